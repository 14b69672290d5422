package lexer_test

import (
	"testing"

	"github.com/hebi-lang/hebi/internal/lexer"
	"github.com/hebi-lang/hebi/internal/token"
)

func kinds(src string) []token.Kind {
	lex := lexer.New(src, lexer.Options{})
	var out []token.Kind
	for {
		tok := lex.Next()
		out = append(out, tok.Kind)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func TestLexerEmitsIndentAndDedent(t *testing.T) {
	src := "if true:\n    print 1\nprint 2\n"
	got := kinds(src)
	want := []token.Kind{
		token.KwIf, token.TRUE, token.Colon, token.NEWLINE,
		token.INDENT, token.KwPrint, token.INT, token.NEWLINE,
		token.DEDENT, token.KwPrint, token.INT, token.NEWLINE,
		token.EOF,
	}
	assertKinds(t, got, want)
}

func TestLexerSuppressesNewlinesInsideBrackets(t *testing.T) {
	src := "var x = [\n1,\n2,\n]\n"
	got := kinds(src)
	want := []token.Kind{
		token.KwVar, token.IDENT, token.Eq, token.LBracket,
		token.INT, token.Comma, token.INT, token.Comma, token.RBracket, token.NEWLINE,
		token.EOF,
	}
	assertKinds(t, got, want)
}

func TestLexerScansOperators(t *testing.T) {
	src := "a ?. b ?[ 0 ] ?? c .. d ..= e\n"
	got := kinds(src)
	want := []token.Kind{
		token.IDENT, token.QuestionDot, token.IDENT,
		token.QuestionLBracket, token.INT, token.RBracket,
		token.QQ, token.IDENT, token.DotDot, token.IDENT,
		token.DotDotEq, token.IDENT, token.NEWLINE, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestLexerDecodesStringEscapes(t *testing.T) {
	lex := lexer.New(`"a\nb"` + "\n", lexer.Options{})
	tok := lex.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("Kind = %v, want STRING", tok.Kind)
	}
	if tok.Str != "a\nb" {
		t.Errorf("Str = %q, want %q", tok.Str, "a\nb")
	}
}

func TestLexerFlagsUnterminatedString(t *testing.T) {
	lex := lexer.New(`"abc`, lexer.Options{})
	tok := lex.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("Kind = %v, want STRING", tok.Kind)
	}
	if lex.Errors().Empty() {
		t.Fatal("expected an unterminated-string error, got none")
	}
}

func TestLexerFlagsUnknownEscape(t *testing.T) {
	lex := lexer.New("\"\\q\"\n", lexer.Options{})
	tok := lex.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("Kind = %v, want STRING", tok.Kind)
	}
	if lex.Errors().Empty() {
		t.Fatal("expected an unknown-escape error, got none")
	}
}

func TestLexerRecognizesKeywordsVsIdents(t *testing.T) {
	got := kinds("fn self super classic\n")
	want := []token.Kind{
		token.KwFn, token.KwSelf, token.KwSuper, token.IDENT, token.NEWLINE, token.EOF,
	}
	assertKinds(t, got, want)
}

func assertKinds(t *testing.T, got, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
