package parser

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/token"
)

// precedence levels, lowest to highest, per the specification: ||, &&,
// ==/!=, </<=/>/>=, ??, ../..=, +/-, */÷/%, ** (right-assoc).
const (
	precNone = iota
	precOr
	precAnd
	precEq
	precCmp
	precCoalesce
	precRange
	precAdd
	precMul
	precPow
	precUnary
	precPostfix
)

func binPrec(k token.Kind) (int, bool) {
	switch k {
	case token.PipePipe:
		return precOr, true
	case token.AmpAmp:
		return precAnd, true
	case token.EqEq, token.NotEq:
		return precEq, true
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precCmp, true
	case token.QQ:
		return precCoalesce, true
	case token.DotDot, token.DotDotEq:
		return precRange, true
	case token.Plus, token.Minus:
		return precAdd, true
	case token.Star, token.Slash, token.Percent:
		return precMul, true
	case token.StarStar:
		return precPow, true
	default:
		return precNone, false
	}
}

func binOpFor(k token.Kind) ast.BinOp {
	switch k {
	case token.PipePipe:
		return ast.OpOr
	case token.AmpAmp:
		return ast.OpAnd
	case token.EqEq:
		return ast.OpEq
	case token.NotEq:
		return ast.OpNe
	case token.Lt:
		return ast.OpLt
	case token.LtEq:
		return ast.OpLe
	case token.Gt:
		return ast.OpGt
	case token.GtEq:
		return ast.OpGe
	case token.QQ:
		return ast.OpCoalesce
	case token.Plus:
		return ast.OpAdd
	case token.Minus:
		return ast.OpSub
	case token.Star:
		return ast.OpMul
	case token.Slash:
		return ast.OpDiv
	case token.Percent:
		return ast.OpRem
	case token.StarStar:
		return ast.OpPow
	}
	panic("unreachable")
}

func (p *Parser) parseExpr() ast.Expr {
	if p.at(token.KwIf) {
		return p.parseIfExpr()
	}
	return p.parseBinary(precOr)
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.tok.Span
	p.advance()
	cond := p.parseBinary(precOr)
	p.expect(token.Colon, "parsing if-expression")
	then := p.parseExpr()
	p.expect(token.KwElse, "parsing if-expression: 'if' as an expression requires an 'else'")
	p.expect(token.Colon, "parsing if-expression")
	els := p.parseExpr()
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
}

// parseBinary implements precedence climbing for levels below precRange
// (range operators are handled specially since `..`/`..=` may omit either
// operand, unlike the other binary operators).
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	if minPrec == precRange {
		return p.parseRangeOrHigher()
	}
	left := p.parseBinary(minPrec + 1)
	for {
		prec, ok := binPrec(p.tok.Kind)
		if !ok || prec != minPrec {
			break
		}
		op := binOpFor(p.tok.Kind)
		opSp := p.tok.Span
		p.advance()
		right := p.parseBinary(minPrec + 1)
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: ast.Base{Sp: diag.Join(left.Span(), right.Span())}}
		_ = opSp
	}
	return left
}

func (p *Parser) parseRangeOrHigher() ast.Expr {
	start := p.tok.Span
	left := p.parseAdd()
	if p.at(token.DotDot) || p.at(token.DotDotEq) {
		inclusive := p.at(token.DotDotEq)
		p.advance()
		right := p.parseAdd()
		return &ast.RangeExpr{Lo: left, Hi: right, Inclusive: inclusive, Base: ast.Base{Sp: diag.Join(start, right.Span())}}
	}
	return left
}

func (p *Parser) parseAdd() ast.Expr {
	left := p.parseMul()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := binOpFor(p.tok.Kind)
		p.advance()
		right := p.parseMul()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: ast.Base{Sp: diag.Join(left.Span(), right.Span())}}
	}
	return left
}

func (p *Parser) parseMul() ast.Expr {
	left := p.parsePow()
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		op := binOpFor(p.tok.Kind)
		p.advance()
		right := p.parsePow()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: ast.Base{Sp: diag.Join(left.Span(), right.Span())}}
	}
	return left
}

// parsePow is right-associative: `2 ** 3 ** 2 == 2 ** (3 ** 2)`.
func (p *Parser) parsePow() ast.Expr {
	left := p.parseUnary()
	if p.at(token.StarStar) {
		p.advance()
		right := p.parsePow()
		return &ast.BinaryExpr{Op: ast.OpPow, Left: left, Right: right, Base: ast.Base{Sp: diag.Join(left.Span(), right.Span())}}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.tok.Kind {
	case token.Bang:
		start := p.tok.Span
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNot, X: x, Base: ast.Base{Sp: diag.Join(start, x.Span())}}
	case token.Minus:
		start := p.tok.Span
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNeg, X: x, Base: ast.Base{Sp: diag.Join(start, x.Span())}}
	case token.Question:
		start := p.tok.Span
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpTry, X: x, Base: ast.Base{Sp: diag.Join(start, x.Span())}}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.Dot:
			p.advance()
			name, ok := p.expect(token.IDENT, "parsing field key")
			if !ok {
				return x
			}
			x = &ast.FieldExpr{X: x, Name: name.Text, Base: ast.Base{Sp: diag.Join(x.Span(), name.Span)}}
		case token.QuestionDot:
			p.advance()
			name, ok := p.expect(token.IDENT, "parsing field key")
			if !ok {
				return x
			}
			x = &ast.FieldExpr{X: x, Name: name.Text, Optional: true, Base: ast.Base{Sp: diag.Join(x.Span(), name.Span)}}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end, _ := p.expect(token.RBracket, "parsing index expression")
			x = &ast.IndexExpr{X: x, Index: idx, Base: ast.Base{Sp: diag.Join(x.Span(), end.Span)}}
		case token.QuestionLBracket:
			p.advance()
			idx := p.parseExpr()
			end, _ := p.expect(token.RBracket, "parsing optional index expression")
			x = &ast.IndexExpr{X: x, Index: idx, Optional: true, Base: ast.Base{Sp: diag.Join(x.Span(), end.Span)}}
		case token.LParen:
			x = p.parseCall(x)
		default:
			return x
		}
	}
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	p.advance() // (
	var args []ast.CallArg
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if p.at(token.IDENT) && p.peekTok().Kind == token.Eq {
			name := p.tok.Text
			p.advance()
			p.advance() // =
			v := p.parseExpr()
			args = append(args, ast.CallArg{Name: name, Value: v})
		} else {
			args = append(args, ast.CallArg{Value: p.parseExpr()})
		}
		if !p.accept(token.Comma) {
			break
		}
	}
	end, _ := p.expect(token.RParen, "parsing call arguments")
	return &ast.CallExpr{Callee: callee, Args: args, Base: ast.Base{Sp: diag.Join(callee.Span(), end.Span)}}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.tok
	switch t.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLit{Value: t.Int, Base: ast.Base{Sp: t.Span}}
	case token.FLOAT:
		p.advance()
		return &ast.FloatLit{Value: t.Flt, Base: ast.Base{Sp: t.Span}}
	case token.STRING:
		p.advance()
		return &ast.StringLit{Value: t.Str, Base: ast.Base{Sp: t.Span}}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Base: ast.Base{Sp: t.Span}}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Base: ast.Base{Sp: t.Span}}
	case token.NONE:
		p.advance()
		return &ast.NoneLit{Base: ast.Base{Sp: t.Span}}
	case token.KwSelf:
		p.advance()
		return &ast.SelfExpr{Base: ast.Base{Sp: t.Span}}
	case token.KwSuper:
		p.advance()
		return &ast.SuperExpr{Base: ast.Base{Sp: t.Span}}
	case token.IDENT:
		p.advance()
		return &ast.Ident{Name: t.Text, Base: ast.Base{Sp: t.Span}}
	case token.LParen:
		return p.parseParenOrTuple()
	case token.LBracket:
		return p.parseList()
	case token.LBrace:
		return p.parseDict()
	case token.KwFn:
		return p.parseFnExpr(false)
	default:
		p.errorf("parsing expression", "unexpected %s", t.Kind)
		p.advance()
		return &ast.NoneLit{Base: ast.Base{Sp: t.Span}}
	}
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	start := p.tok.Span
	p.advance()
	if p.accept(token.RParen) {
		return &ast.TupleExpr{Base: ast.Base{Sp: diag.Join(start, p.tok.Span)}}
	}
	first := p.parseExpr()
	if p.accept(token.Comma) {
		elems := []ast.Expr{first}
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elems = append(elems, p.parseExpr())
			if !p.accept(token.Comma) {
				break
			}
		}
		end, _ := p.expect(token.RParen, "parsing tuple")
		return &ast.TupleExpr{Elems: elems, Base: ast.Base{Sp: diag.Join(start, end.Span)}}
	}
	end, _ := p.expect(token.RParen, "parsing parenthesized expression")
	_ = end
	return first
}

func (p *Parser) parseList() ast.Expr {
	start := p.tok.Span
	p.advance()
	var elems []ast.Expr
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		elems = append(elems, p.parseExpr())
		if !p.accept(token.Comma) {
			break
		}
	}
	end, _ := p.expect(token.RBracket, "parsing list literal")
	return &ast.ListExpr{Elems: elems, Base: ast.Base{Sp: diag.Join(start, end.Span)}}
}

func (p *Parser) parseDict() ast.Expr {
	start := p.tok.Span
	p.advance()
	var entries []ast.DictEntry
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		var key ast.Expr
		if p.at(token.IDENT) && p.peekTok().Kind == token.Colon {
			key = &ast.StringLit{Value: p.tok.Text, Base: ast.Base{Sp: p.tok.Span}}
			p.advance()
		} else {
			key = p.parseExpr()
		}
		if _, ok := p.expect(token.Colon, "parsing dict entry"); !ok {
			break
		}
		val := p.parseExpr()
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if !p.accept(token.Comma) {
			break
		}
	}
	end, _ := p.expect(token.RBrace, "parsing dict literal")
	return &ast.DictExpr{Entries: entries, Base: ast.Base{Sp: diag.Join(start, end.Span)}}
}
