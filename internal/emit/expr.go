package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

// emitExpr compiles e, leaving its value in the accumulator.
func (c *compiler) emitExpr(f *funcCtx, e ast.Expr) {
	switch x := e.(type) {
	case *ast.IntLit:
		c.emitIntLit(f, x.Value)
	case *ast.FloatLit:
		f.w.Emit(bytecode.LoadConst, f.constFloat(x.Value))
	case *ast.StringLit:
		f.w.Emit(bytecode.LoadConst, f.constStr(x.Value))
	case *ast.BoolLit:
		if x.Value {
			f.w.Emit(bytecode.LoadTrue)
		} else {
			f.w.Emit(bytecode.LoadFalse)
		}
	case *ast.NoneLit:
		f.w.Emit(bytecode.LoadNone)
	case *ast.Ident:
		c.loadName(f, x.Name, x.Span())
	case *ast.SelfExpr:
		f.w.Emit(bytecode.LoadSelf)
	case *ast.SuperExpr:
		f.w.Emit(bytecode.LoadSuper)
	case *ast.BinaryExpr:
		c.emitBinary(f, x)
	case *ast.UnaryExpr:
		c.emitUnary(f, x)
	case *ast.CallExpr:
		c.emitCall(f, x)
	case *ast.FieldExpr:
		c.emitExpr(f, x.X)
		op := bytecode.LoadField
		if x.Optional {
			op = bytecode.LoadFieldOpt
		}
		f.w.Emit(op, f.constStr(x.Name))
	case *ast.IndexExpr:
		c.emitExpr(f, x.X)
		obj := f.alloc()
		f.w.Emit(bytecode.Store, obj)
		c.emitExpr(f, x.Index)
		op := bytecode.LoadIndex
		if x.Optional {
			op = bytecode.LoadIndexOpt
		}
		f.w.Emit(op, obj)
		f.free(obj)
	case *ast.ListExpr:
		c.emitSeqLiteral(f, bytecode.MakeList, x.Elems)
	case *ast.TupleExpr:
		c.emitSeqLiteral(f, bytecode.MakeTuple, x.Elems)
	case *ast.DictExpr:
		c.emitDictLiteral(f, x)
	case *ast.RangeExpr:
		c.emitExpr(f, x.Lo)
		lo := f.alloc()
		f.w.Emit(bytecode.Store, lo)
		c.emitExpr(f, x.Hi)
		incl := 0
		if x.Inclusive {
			incl = 1
		}
		f.w.Emit(bytecode.MakeRange, lo, incl)
		f.free(lo)
	case *ast.IfExpr:
		c.emitIfExpr(f, x)
	case *ast.FnExpr:
		c.emitFnExpr(f, x)
	default:
		c.errorf(e.Span(), "unsupported expression %T", e)
	}
}

func (c *compiler) emitIntLit(f *funcCtx, v int64) {
	if v >= -32768 && v <= 32767 {
		f.w.Emit(bytecode.LoadSmi, int(v))
		return
	}
	f.w.Emit(bytecode.LoadConst, f.constInt(v))
}

// emitSeqLiteral evaluates elems into consecutive registers and folds them
// into a single list/tuple value with op.
func (c *compiler) emitSeqLiteral(f *funcCtx, op bytecode.Op, elems []ast.Expr) {
	base := f.nextReg
	for _, el := range elems {
		c.emitExpr(f, el)
		f.w.Emit(bytecode.Store, f.alloc())
	}
	f.w.Emit(op, base, len(elems))
	for i := len(elems) - 1; i >= 0; i-- {
		f.free(base + i)
	}
}

func (c *compiler) emitDictLiteral(f *funcCtx, x *ast.DictExpr) {
	base := f.nextReg
	for _, ent := range x.Entries {
		c.emitExpr(f, ent.Key)
		f.w.Emit(bytecode.Store, f.alloc())
		c.emitExpr(f, ent.Value)
		f.w.Emit(bytecode.Store, f.alloc())
	}
	f.w.Emit(bytecode.MakeDict, base, len(x.Entries))
	for i := 2*len(x.Entries) - 1; i >= 0; i-- {
		f.free(base + i)
	}
}

func (c *compiler) emitIfExpr(f *funcCtx, x *ast.IfExpr) {
	c.emitExpr(f, x.Cond)
	toElse := f.emitForwardJump(bytecode.JumpIfFalse)
	c.emitExpr(f, x.Then)
	toEnd := f.emitForwardJump(bytecode.Jump)
	f.patchForwardJump(toElse)
	c.emitExpr(f, x.Else)
	f.patchForwardJump(toEnd)
}

var binOpcode = map[ast.BinOp]bytecode.Op{
	ast.OpAdd: bytecode.Add,
	ast.OpSub: bytecode.Sub,
	ast.OpMul: bytecode.Mul,
	ast.OpDiv: bytecode.Div,
	ast.OpRem: bytecode.Rem,
	ast.OpPow: bytecode.Pow,
	ast.OpEq:  bytecode.CmpEq,
	ast.OpNe:  bytecode.CmpNe,
	ast.OpLt:  bytecode.CmpLt,
	ast.OpLe:  bytecode.CmpLe,
	ast.OpGt:  bytecode.CmpGt,
	ast.OpGe:  bytecode.CmpGe,
}

func (c *compiler) emitBinary(f *funcCtx, x *ast.BinaryExpr) {
	switch x.Op {
	case ast.OpAnd:
		c.emitExpr(f, x.Left)
		short := f.emitForwardJump(bytecode.JumpIfFalse)
		c.emitExpr(f, x.Right)
		f.patchForwardJump(short)
		return
	case ast.OpOr:
		c.emitExpr(f, x.Left)
		notFalse := f.emitForwardJump(bytecode.JumpIfFalse)
		toEnd := f.emitForwardJump(bytecode.Jump)
		f.patchForwardJump(notFalse)
		c.emitExpr(f, x.Right)
		f.patchForwardJump(toEnd)
		return
	case ast.OpCoalesce:
		c.emitExpr(f, x.Left)
		toRight := f.emitForwardJump(bytecode.JumpIfNone)
		toEnd := f.emitForwardJump(bytecode.Jump)
		f.patchForwardJump(toRight)
		c.emitExpr(f, x.Right)
		f.patchForwardJump(toEnd)
		return
	}
	op, ok := binOpcode[x.Op]
	if !ok {
		c.errorf(x.Span(), "unsupported binary operator")
		return
	}
	c.emitExpr(f, x.Left)
	lhs := f.alloc()
	f.w.Emit(bytecode.Store, lhs)
	c.emitExpr(f, x.Right)
	f.w.Emit(op, lhs)
	f.free(lhs)
}

func (c *compiler) emitUnary(f *funcCtx, x *ast.UnaryExpr) {
	if x.Op == ast.OpTry {
		c.emitTry(f, x.X)
		return
	}
	c.emitExpr(f, x.X)
	switch x.Op {
	case ast.OpNeg:
		f.w.Emit(bytecode.Inv)
	case ast.OpNot:
		f.w.Emit(bytecode.Not)
	}
}

// emitTry compiles the `?e` prefix optional-chaining operator: it forces
// the outermost field/index access of e into its Opt opcode variant, so a
// none receiver (or an unknown field/index on a non-none receiver) yields
// none instead of erroring, the same as the postfix `?.`/`?[` forms.
func (c *compiler) emitTry(f *funcCtx, e ast.Expr) {
	switch x := e.(type) {
	case *ast.FieldExpr:
		c.emitExpr(f, x.X)
		f.w.Emit(bytecode.LoadFieldOpt, f.constStr(x.Name))
	case *ast.IndexExpr:
		c.emitExpr(f, x.X)
		obj := f.alloc()
		f.w.Emit(bytecode.Store, obj)
		c.emitExpr(f, x.Index)
		f.w.Emit(bytecode.LoadIndexOpt, obj)
		f.free(obj)
	default:
		c.emitExpr(f, e)
	}
}

func (c *compiler) emitCall(f *funcCtx, x *ast.CallExpr) {
	c.emitExpr(f, x.Callee)
	calleeReg := f.alloc()
	f.w.Emit(bytecode.Store, calleeReg)
	base := f.nextReg

	var positional, keyword []ast.CallArg
	for _, a := range x.Args {
		if a.Name != "" {
			keyword = append(keyword, a)
		} else {
			positional = append(positional, a)
		}
	}

	for _, a := range positional {
		c.emitExpr(f, a.Value)
		f.w.Emit(bytecode.Store, f.alloc())
	}
	n := len(positional)
	if len(keyword) > 0 {
		kwBase := f.nextReg
		for _, a := range keyword {
			f.w.Emit(bytecode.LoadConst, f.constStr(a.Name))
			f.w.Emit(bytecode.Store, f.alloc())
			c.emitExpr(f, a.Value)
			f.w.Emit(bytecode.Store, f.alloc())
		}
		f.w.Emit(bytecode.MakeDict, kwBase, len(keyword))
		for r := f.nextReg - 1; r >= kwBase; r-- {
			f.free(r)
		}
		f.w.Emit(bytecode.Store, f.alloc())
		n = len(positional) + 1
		n |= bytecode.CallKwFlag
	}

	f.w.Emit(bytecode.Call, calleeReg, n)
	for r := f.nextReg - 1; r >= base; r-- {
		f.free(r)
	}
	f.free(calleeReg)
}
