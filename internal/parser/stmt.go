package parser

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/token"
)

func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.KwVar:
		return p.parseVar()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwLoop:
		return p.parseLoop()
	case token.KwFor:
		return p.parseFor()
	case token.KwBreak:
		sp := p.tok.Span
		p.advance()
		p.acceptStmtEnd()
		return &ast.BreakStmt{Base: ast.Base{Sp: sp}}
	case token.KwContinue:
		sp := p.tok.Span
		p.advance()
		p.acceptStmtEnd()
		return &ast.ContinueStmt{Base: ast.Base{Sp: sp}}
	case token.KwReturn:
		return p.parseReturn()
	case token.KwYield:
		return p.parseYield()
	case token.KwPrint:
		return p.parsePrint()
	case token.KwFn:
		return p.parseFnStmt()
	case token.KwClass:
		return p.parseClass()
	case token.KwPass:
		sp := p.tok.Span
		p.advance()
		p.acceptStmtEnd()
		return &ast.PassStmt{Base: ast.Base{Sp: sp}}
	case token.KwImport, token.KwFrom:
		p.errorf("parsing statement", "import must appear before other statements")
		p.synchronize()
		return nil
	default:
		return p.parseSimpleOrAssign()
	}
}

func (p *Parser) acceptStmtEnd() {
	if !p.accept(token.NEWLINE) && !p.at(token.EOF) && !p.at(token.DEDENT) {
		p.errorf("parsing statement", "expected end of statement, found %s", p.tok.Kind)
		p.synchronize()
	}
}

func (p *Parser) parseVar() ast.Stmt {
	start := p.tok.Span
	p.advance()
	name, ok := p.expect(token.IDENT, "parsing var declaration")
	if !ok {
		p.synchronize()
		return nil
	}
	var value ast.Expr
	if p.accept(token.Eq) {
		value = p.parseExpr()
	}
	end := p.tok.Span
	p.acceptStmtEnd()
	return &ast.VarStmt{Base: ast.Base{Sp: diag.Join(start, end)}, Name: name.Text, Value: value}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.tok.Span
	p.advance()
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	for p.at(token.KwElif) {
		p.advance()
		c := p.parseExpr()
		b := p.parseBlock()
		stmt.Elif = append(stmt.Elif, ast.ElifClause{Cond: c, Body: b})
	}
	if p.accept(token.KwElse) {
		stmt.Else = p.parseBlock()
	}
	stmt.Sp = diag.Join(start, p.tok.Span)
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.tok.Span
	p.advance()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
}

func (p *Parser) parseLoop() ast.Stmt {
	start := p.tok.Span
	p.advance()
	body := p.parseBlock()
	return &ast.LoopStmt{Body: body, Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.tok.Span
	p.advance()
	name, ok := p.expect(token.IDENT, "parsing for-loop binding")
	if !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(token.KwIn, "parsing for-loop"); !ok {
		p.synchronize()
		return nil
	}
	iter := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{Name: name.Text, Iter: iter, Body: body, Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.tok.Span
	p.advance()
	var val ast.Expr
	if !p.at(token.NEWLINE) && !p.at(token.EOF) && !p.at(token.DEDENT) {
		val = p.parseExpr()
	}
	end := p.tok.Span
	p.acceptStmtEnd()
	return &ast.ReturnStmt{Value: val, Base: ast.Base{Sp: diag.Join(start, end)}}
}

func (p *Parser) parseYield() ast.Stmt {
	start := p.tok.Span
	p.advance()
	val := p.parseExpr()
	end := p.tok.Span
	p.acceptStmtEnd()
	return &ast.YieldStmt{Value: val, Base: ast.Base{Sp: diag.Join(start, end)}}
}

func (p *Parser) parsePrint() ast.Stmt {
	start := p.tok.Span
	p.advance()
	var vals []ast.Expr
	if !p.at(token.NEWLINE) && !p.at(token.EOF) && !p.at(token.DEDENT) {
		vals = append(vals, p.parseExpr())
		for p.accept(token.Comma) {
			vals = append(vals, p.parseExpr())
		}
	}
	end := p.tok.Span
	p.acceptStmtEnd()
	return &ast.PrintStmt{Values: vals, Base: ast.Base{Sp: diag.Join(start, end)}}
}

func (p *Parser) parseFnStmt() ast.Stmt {
	start := p.tok.Span
	fn := p.parseFnExpr(true)
	return &ast.FnStmt{Fn: fn, Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
}

func (p *Parser) parseClass() ast.Stmt {
	start := p.tok.Span
	p.advance()
	name, ok := p.expect(token.IDENT, "parsing class name")
	if !ok {
		p.synchronize()
		return nil
	}
	stmt := &ast.ClassStmt{Name: name.Text}
	if p.accept(token.LParen) {
		parent, ok := p.expect(token.IDENT, "parsing class parent")
		if ok {
			stmt.Parent = parent.Text
		}
		p.expect(token.RParen, "parsing class parent")
	}
	if _, ok := p.expect(token.Colon, "expected ':' to start class body"); !ok {
		p.synchronize()
		return nil
	}
	if p.accept(token.NEWLINE) {
		p.expect(token.INDENT, "expected indented class body")
		for !p.at(token.DEDENT) && !p.at(token.EOF) {
			p.parseClassMember(stmt)
			p.skipNewlines()
		}
		p.accept(token.DEDENT)
	} else {
		p.parseClassMember(stmt)
	}
	stmt.Sp = diag.Join(start, p.tok.Span)
	return stmt
}

func (p *Parser) parseClassMember(stmt *ast.ClassStmt) {
	switch p.tok.Kind {
	case token.KwFn:
		fn := p.parseFnExpr(true)
		stmt.Methods = append(stmt.Methods, fn)
	case token.KwPass:
		p.advance()
		p.acceptStmtEnd()
	case token.IDENT:
		name := p.tok.Text
		p.advance()
		var def ast.Expr
		if p.accept(token.Eq) {
			def = p.parseExpr()
		}
		p.acceptStmtEnd()
		stmt.Fields = append(stmt.Fields, ast.FieldDecl{Name: name, Default: def})
	default:
		p.errorf("parsing class body", "expected field or method declaration, found %s", p.tok.Kind)
		p.synchronize()
	}
}

// parseSimpleOrAssign parses an expression-led statement: a bare expression
// statement, a plain assignment, or a compound assignment.
func (p *Parser) parseSimpleOrAssign() ast.Stmt {
	start := p.tok.Span
	target := p.parseExpr()
	op, isAssign := p.assignOp()
	if !isAssign {
		end := p.tok.Span
		p.acceptStmtEnd()
		return &ast.ExprStmt{X: target, Base: ast.Base{Sp: diag.Join(start, end)}}
	}
	p.advance()
	value := p.parseExpr()
	end := p.tok.Span
	p.acceptStmtEnd()
	return &ast.AssignStmt{Target: target, Op: op, Value: value, Base: ast.Base{Sp: diag.Join(start, end)}}
}

func (p *Parser) assignOp() (ast.AssignOp, bool) {
	switch p.tok.Kind {
	case token.Eq:
		return ast.AssignPlain, true
	case token.PlusEq:
		return ast.AssignAdd, true
	case token.MinusEq:
		return ast.AssignSub, true
	case token.StarEq:
		return ast.AssignMul, true
	case token.SlashEq:
		return ast.AssignDiv, true
	case token.PercentEq:
		return ast.AssignRem, true
	case token.StarStarEq:
		return ast.AssignPow, true
	case token.QQEq:
		return ast.AssignCoalesce, true
	default:
		return 0, false
	}
}
