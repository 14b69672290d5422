// Package parser implements Hebi's recursive-descent, indentation-sensitive
// parser, producing an AST (package ast) or a non-empty error list.
package parser

import (
	"fmt"

	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/lexer"
	"github.com/hebi-lang/hebi/internal/token"
)

// Parser is a recursive-descent parser over the lexer's token stream. Block
// boundaries come from the INDENT/DEDENT tokens the lexer derives from its
// own indent-width stack; the parser keeps no indentation state itself.
type Parser struct {
	lex  *lexer.Lexer
	tok  token.Token
	peek token.Token
	have bool // whether peek is valid

	errs diag.ErrorList
}

// Parse lexes and parses src into a Module. On any syntax error the parser
// resynchronizes at the next NEWLINE at or below the current indent and
// continues, accumulating diagnostics; the returned error is non-nil iff
// any were collected.
func Parse(src string) (*ast.Module, error) {
	p := &Parser{lex: lexer.New(src, lexer.Options{})}
	p.advance()
	mod := p.parseModule()
	p.errs.Errors = append(p.errs.Errors, p.lex.Errors().Errors...)
	if !p.errs.Empty() {
		return mod, &p.errs
	}
	return mod, nil
}

func (p *Parser) advance() {
	if p.have {
		p.tok = p.peek
		p.have = false
		return
	}
	p.tok = p.lex.Next()
}

func (p *Parser) peekTok() token.Token {
	if !p.have {
		p.peek = p.lex.Next()
		p.have = true
	}
	return p.peek
}

func (p *Parser) at(k token.Kind) bool { return p.tok.Kind == k }

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, context string) (token.Token, bool) {
	if p.at(k) {
		t := p.tok
		p.advance()
		return t, true
	}
	p.errorf(context, "expected %s, found %s", k, p.tok.Kind)
	return p.tok, false
}

func (p *Parser) errorf(context, format string, args ...any) {
	p.errs.Add(diag.NewSyntax(p.tok.Span, context, fmt.Sprintf(format, args...)))
}

// skipNewlines consumes any run of NEWLINE tokens (blank lines between
// statements).
func (p *Parser) skipNewlines() {
	for p.accept(token.NEWLINE) {
	}
}

// synchronize recovers from a syntax error by discarding tokens up to and
// including the next NEWLINE or DEDENT, so the parser can keep collecting
// further diagnostics in the same pass.
func (p *Parser) synchronize() {
	for {
		switch p.tok.Kind {
		case token.NEWLINE:
			p.advance()
			return
		case token.DEDENT, token.EOF:
			return
		default:
			p.advance()
		}
	}
}

func (p *Parser) parseModule() *ast.Module {
	mod := &ast.Module{}
	p.skipNewlines()
	for p.at(token.KwImport) || p.at(token.KwFrom) {
		if imp := p.parseImport(); imp != nil {
			mod.Imports = append(mod.Imports, imp)
		}
		p.skipNewlines()
	}
	for !p.at(token.EOF) {
		if s := p.parseStmt(); s != nil {
			mod.Stmts = append(mod.Stmts, s)
		}
		p.skipNewlines()
	}
	return mod
}

func (p *Parser) parseImport() *ast.Import {
	start := p.tok.Span
	if p.accept(token.KwFrom) {
		path := p.parseDottedPath()
		if _, ok := p.expect(token.KwImport, "parsing from-import"); !ok {
			p.synchronize()
			return nil
		}
		var names []string
		for {
			name, ok := p.expect(token.IDENT, "parsing import name")
			if !ok {
				p.synchronize()
				return nil
			}
			names = append(names, name.Text)
			if !p.accept(token.Comma) {
				break
			}
		}
		end := p.tok.Span
		p.accept(token.NEWLINE)
		return &ast.Import{Path: path, Names: names, Sp: diag.Join(start, end)}
	}
	p.advance() // KwImport
	path := p.parseDottedPath()
	end := p.tok.Span
	p.accept(token.NEWLINE)
	return &ast.Import{Path: path, Sp: diag.Join(start, end)}
}

func (p *Parser) parseDottedPath() []string {
	var path []string
	name, ok := p.expect(token.IDENT, "parsing import path")
	if !ok {
		return nil
	}
	path = append(path, name.Text)
	for p.accept(token.Dot) {
		name, ok := p.expect(token.IDENT, "parsing import path")
		if !ok {
			break
		}
		path = append(path, name.Text)
	}
	return path
}

// parseBlock parses `: <inline-stmt>` or `: NEWLINE INDENT stmts DEDENT`.
func (p *Parser) parseBlock() []ast.Stmt {
	if _, ok := p.expect(token.Colon, "expected ':' to start block"); !ok {
		p.synchronize()
		return nil
	}
	if p.accept(token.NEWLINE) {
		if _, ok := p.expect(token.INDENT, "expected indented block"); !ok {
			return nil
		}
		var stmts []ast.Stmt
		for !p.at(token.DEDENT) && !p.at(token.EOF) {
			if s := p.parseStmt(); s != nil {
				stmts = append(stmts, s)
			}
			p.skipNewlines()
		}
		p.accept(token.DEDENT)
		return stmts
	}
	// Inline single statement on the same line.
	s := p.parseStmt()
	if s == nil {
		return nil
	}
	return []ast.Stmt{s}
}
