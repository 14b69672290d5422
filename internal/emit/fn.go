package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

// emitFnExpr compiles x into its own Function, emits MakeFn for it, and
// follows with one UpvalueReg/UpvalueSlot per descriptor the child resolved
// against f, leaving the resulting closure in the accumulator.
func (c *compiler) emitFnExpr(f *funcCtx, x *ast.FnExpr) {
	name := x.Name
	if name == "" {
		name = "<anonymous>"
	}
	child := newFuncCtx(f, name)
	child.hasSelf = x.HasSelf
	child.isGenerator = x.IsGenerator
	child.pushBlock()

	params := c.buildParams(child, x)

	for _, s := range x.Body {
		c.emitStmt(child, s)
	}
	child.popBlock()
	child.w.Emit(bytecode.LoadNone)
	child.w.Emit(bytecode.Ret)

	fn := child.build()
	fn.Params = params
	fn.IsGenerator = child.isGenerator
	idx := f.constFunc(fn)
	f.w.Emit(bytecode.MakeFn, idx)
	// Each UpvalueReg/UpvalueSlot below fills the newly created closure's
	// capture slots in order: slot i is filled by the i-th instruction.
	for destIdx, uv := range child.upvalues {
		if uv.FromParentReg {
			f.w.Emit(bytecode.UpvalueReg, uv.Index, destIdx)
		} else {
			f.w.Emit(bytecode.UpvalueSlot, uv.Index, destIdx)
		}
	}
}

// buildParams declares each parameter as a local in declaration order (so
// its register matches the position the VM's argument-binding procedure
// writes into) and assembles the compile-time Params shape the VM checks
// arity/keyword-shape against.
func (c *compiler) buildParams(child *funcCtx, x *ast.FnExpr) bytecode.Params {
	var p bytecode.Params
	p.HasSelf = x.HasSelf
	for _, param := range x.Params {
		switch param.Kind {
		case ast.ParamPositional:
			child.declareLocal(param.Name)
			p.Positional = append(p.Positional, param.Name)
		case ast.ParamPositionalDefault:
			child.declareLocal(param.Name)
			p.Positional = append(p.Positional, param.Name)
			p.PositionalDefaults = append(p.PositionalDefaults, c.constFold(param.Default))
		case ast.ParamVariadicPositional:
			child.declareLocal(param.Name)
			p.HasVariadicPositional = true
			p.VariadicPositional = param.Name
		case ast.ParamKeyword:
			child.declareLocal(param.Name)
			p.Keyword = append(p.Keyword, param.Name)
		case ast.ParamKeywordDefault:
			child.declareLocal(param.Name)
			p.Keyword = append(p.Keyword, param.Name)
			if p.KeywordDefaults == nil {
				p.KeywordDefaults = map[string]bytecode.Const{}
			}
			p.KeywordDefaults[param.Name] = c.constFold(param.Default)
		case ast.ParamVariadicKeyword:
			child.declareLocal(param.Name)
			p.HasVariadicKw = true
			p.VariadicKw = param.Name
		}
	}
	return p
}

// constFold evaluates a parameter default to a compile-time constant.
// Parameter defaults are restricted to literals (unlike class field
// defaults, which run through MakeClass's register window and may be
// arbitrary expressions).
func (c *compiler) constFold(e ast.Expr) bytecode.Const {
	switch lit := e.(type) {
	case *ast.IntLit:
		return bytecode.Const{Kind: bytecode.ConstInt, Int: lit.Value}
	case *ast.FloatLit:
		return bytecode.Const{Kind: bytecode.ConstFloat, Float: lit.Value}
	case *ast.StringLit:
		return bytecode.Const{Kind: bytecode.ConstString, Str: lit.Value}
	case *ast.BoolLit:
		v := int64(0)
		if lit.Value {
			v = 1
		}
		return bytecode.Const{Kind: bytecode.ConstBool, Int: v}
	case *ast.NoneLit:
		return bytecode.Const{Kind: bytecode.ConstNone}
	default:
		c.errorf(e.Span(), "parameter default must be a literal")
		return bytecode.Const{}
	}
}
