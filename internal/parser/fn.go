package parser

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/token"
)

// parseFnExpr parses a function literal's signature and body, starting at
// the `fn` keyword. allowName controls whether a following identifier is
// consumed as the function's name (statement and method positions) or left
// for the caller (anonymous function-expression position).
func (p *Parser) parseFnExpr(allowName bool) *ast.FnExpr {
	start := p.tok.Span
	p.advance() // fn

	fn := &ast.FnExpr{}
	if allowName && p.at(token.IDENT) {
		fn.Name = p.tok.Text
		p.advance()
	}

	if _, ok := p.expect(token.LParen, "parsing function parameters"); ok {
		p.parseParams(fn)
	} else {
		p.synchronize()
		fn.Base = ast.Base{Sp: diag.Join(start, p.tok.Span)}
		return fn
	}

	fn.Body = p.parseBlock()
	fn.IsGenerator = bodyYields(fn.Body)
	fn.Base = ast.Base{Sp: diag.Join(start, p.tok.Span)}
	return fn
}

// parseParams parses the parenthesized parameter list: an optional leading
// `self`, positional parameters (with optional `= default`), an optional
// `*rest` variadic collector (after which bare names become keyword
// parameters), and an optional trailing `**kwargs` collector.
func (p *Parser) parseParams(fn *ast.FnExpr) {
	first := true
	seenVariadicPositional := false
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if first && p.at(token.KwSelf) {
			p.advance()
			fn.HasSelf = true
			first = false
			if !p.accept(token.Comma) {
				break
			}
			continue
		}
		first = false

		switch p.tok.Kind {
		case token.Star:
			p.advance()
			name, ok := p.expect(token.IDENT, "parsing variadic parameter")
			if !ok {
				p.synchronize()
				return
			}
			fn.Params = append(fn.Params, ast.Param{Name: name.Text, Kind: ast.ParamVariadicPositional})
			seenVariadicPositional = true
		case token.StarStar:
			p.advance()
			name, ok := p.expect(token.IDENT, "parsing keyword-variadic parameter")
			if !ok {
				p.synchronize()
				return
			}
			fn.Params = append(fn.Params, ast.Param{Name: name.Text, Kind: ast.ParamVariadicKeyword})
		case token.IDENT:
			name := p.tok.Text
			p.advance()
			kind := ast.ParamPositional
			if seenVariadicPositional {
				kind = ast.ParamKeyword
			}
			var def ast.Expr
			if p.accept(token.Eq) {
				def = p.parseExpr()
				if seenVariadicPositional {
					kind = ast.ParamKeywordDefault
				} else {
					kind = ast.ParamPositionalDefault
				}
			}
			fn.Params = append(fn.Params, ast.Param{Name: name, Kind: kind, Default: def})
		default:
			p.errorf("parsing function parameters", "expected parameter name, found %s", p.tok.Kind)
			p.synchronize()
			return
		}
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "parsing function parameters")
}

// bodyYields reports whether stmts contains a yield reachable without
// crossing into a nested function literal, which is what makes the
// enclosing function a generator.
func bodyYields(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if stmtYields(s) {
			return true
		}
	}
	return false
}

func stmtYields(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.YieldStmt:
		return true
	case *ast.IfStmt:
		if bodyYields(st.Then) || bodyYields(st.Else) {
			return true
		}
		for _, e := range st.Elif {
			if bodyYields(e.Body) {
				return true
			}
		}
	case *ast.WhileStmt:
		return bodyYields(st.Body)
	case *ast.LoopStmt:
		return bodyYields(st.Body)
	case *ast.ForStmt:
		return bodyYields(st.Body)
	}
	return false
}
