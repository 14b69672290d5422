package parser_test

import (
	"testing"

	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/parser"
)

func TestParseValidModule(t *testing.T) {
	src := `
fn add(a, b):
    return a + b

print add(1, 2)
`
	mod, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mod.Stmts) != 2 {
		t.Fatalf("got %d top-level statements, want 2", len(mod.Stmts))
	}
}

func TestParseAccumulatesMultipleErrors(t *testing.T) {
	// Two independent syntax errors in one pass: a malformed parameter list
	// and a malformed class parent clause. Per the parser's resynchronize-
	// at-NEWLINE discipline, both should surface in a single ErrorList
	// instead of the parser bailing out after the first.
	src := `
fn broken(:
    pass

class Also(:
    pass
`
	_, err := parser.Parse(src)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	list, ok := err.(*diag.ErrorList)
	if !ok {
		t.Fatalf("expected *diag.ErrorList, got %T", err)
	}
	if len(list.Errors) < 2 {
		t.Errorf("got %d accumulated errors, want at least 2", len(list.Errors))
	}
	for _, e := range list.Errors {
		if e.Kind != diag.KindSyntax {
			t.Errorf("error kind = %v, want KindSyntax", e.Kind)
		}
	}
}

func TestParseImportMustPrecedeOtherStatements(t *testing.T) {
	src := `
print 1
import foo
`
	_, err := parser.Parse(src)
	if err == nil {
		t.Fatal("expected an error: import appearing after a statement")
	}
}

func TestParseReportsErrorOnIllegalCharacterInsteadOfTruncating(t *testing.T) {
	src := `
print 1
$
print 2
`
	mod, err := parser.Parse(src)
	if err == nil {
		t.Fatal("expected a syntax error for the illegal '$' character")
	}
	list, ok := err.(*diag.ErrorList)
	if !ok {
		t.Fatalf("expected *diag.ErrorList, got %T", err)
	}
	for _, e := range list.Errors {
		if e.Kind != diag.KindSyntax {
			t.Errorf("error kind = %v, want KindSyntax", e.Kind)
		}
	}
	// The parser should recover past the bad character rather than treating
	// it as end of input: both print statements should still show up (the
	// '$' line itself becomes a third, placeholder expression statement).
	if len(mod.Stmts) != 3 {
		t.Errorf("got %d top-level statements, want 3 (parse should not truncate at the illegal character)", len(mod.Stmts))
	}
}

func TestParseReportsUnterminatedString(t *testing.T) {
	src := `
print "abc
`
	_, err := parser.Parse(src)
	if err == nil {
		t.Fatal("expected a syntax error for the unterminated string literal")
	}
	list, ok := err.(*diag.ErrorList)
	if !ok {
		t.Fatalf("expected *diag.ErrorList, got %T", err)
	}
	for _, e := range list.Errors {
		if e.Kind != diag.KindSyntax {
			t.Errorf("error kind = %v, want KindSyntax", e.Kind)
		}
	}
}

func TestParseReportsUnknownEscape(t *testing.T) {
	src := `
print "\q"
`
	_, err := parser.Parse(src)
	if err == nil {
		t.Fatal("expected a syntax error for the unknown escape sequence")
	}
}

func TestParseOptionalChainForms(t *testing.T) {
	src := `
print a?.b
print a?[0]
print ?a.b
`
	_, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
