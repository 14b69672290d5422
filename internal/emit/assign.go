package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

var compoundOpcode = map[ast.AssignOp]bytecode.Op{
	ast.AssignAdd: bytecode.Add,
	ast.AssignSub: bytecode.Sub,
	ast.AssignMul: bytecode.Mul,
	ast.AssignDiv: bytecode.Div,
	ast.AssignRem: bytecode.Rem,
	ast.AssignPow: bytecode.Pow,
}

// combine leaves newValue = current <op> (result of evaluating rhs) in the
// accumulator, given current's value already sitting in register cur.
func (c *compiler) combine(f *funcCtx, op ast.AssignOp, cur int, rhs ast.Expr) {
	if op == ast.AssignCoalesce {
		f.w.Emit(bytecode.Load, cur)
		toRhs := f.emitForwardJump(bytecode.JumpIfNone)
		toEnd := f.emitForwardJump(bytecode.Jump)
		f.patchForwardJump(toRhs)
		c.emitExpr(f, rhs)
		f.patchForwardJump(toEnd)
		return
	}
	bop, ok := compoundOpcode[op]
	if !ok {
		panic("emit: unknown compound assignment operator")
	}
	c.emitExpr(f, rhs)
	f.w.Emit(bop, cur)
}

func (c *compiler) emitAssignStmt(f *funcCtx, st *ast.AssignStmt) {
	switch target := st.Target.(type) {
	case *ast.Ident:
		c.emitIdentAssign(f, target, st)
	case *ast.FieldExpr:
		c.emitFieldAssign(f, target, st)
	case *ast.IndexExpr:
		c.emitIndexAssign(f, target, st)
	default:
		c.errorf(st.Span(), "invalid assignment target %T", st.Target)
	}
}

func (c *compiler) emitIdentAssign(f *funcCtx, target *ast.Ident, st *ast.AssignStmt) {
	if st.Op == ast.AssignPlain {
		c.emitExpr(f, st.Value)
		c.storeName(f, target.Name, st.Span())
		return
	}
	c.loadName(f, target.Name, target.Span())
	cur := f.alloc()
	f.w.Emit(bytecode.Store, cur)
	c.combine(f, st.Op, cur, st.Value)
	f.free(cur)
	c.storeName(f, target.Name, st.Span())
}

func (c *compiler) emitFieldAssign(f *funcCtx, target *ast.FieldExpr, st *ast.AssignStmt) {
	c.emitExpr(f, target.X)
	obj := f.alloc()
	f.w.Emit(bytecode.Store, obj)
	nameIdx := f.constStr(target.Name)

	if st.Op == ast.AssignPlain {
		c.emitExpr(f, st.Value)
		f.w.Emit(bytecode.StoreField, obj, nameIdx)
		f.free(obj)
		return
	}
	f.w.Emit(bytecode.LoadField, nameIdx)
	cur := f.alloc()
	f.w.Emit(bytecode.Store, cur)
	c.combine(f, st.Op, cur, st.Value)
	f.free(cur)
	f.w.Emit(bytecode.StoreField, obj, nameIdx)
	f.free(obj)
}

func (c *compiler) emitIndexAssign(f *funcCtx, target *ast.IndexExpr, st *ast.AssignStmt) {
	c.emitExpr(f, target.X)
	obj := f.alloc()
	f.w.Emit(bytecode.Store, obj)
	c.emitExpr(f, target.Index)
	idx := f.alloc()
	f.w.Emit(bytecode.Store, idx)

	if st.Op == ast.AssignPlain {
		c.emitExpr(f, st.Value)
		f.w.Emit(bytecode.StoreIndex, obj, idx)
		f.free(idx)
		f.free(obj)
		return
	}
	f.w.Emit(bytecode.Load, idx)
	f.w.Emit(bytecode.LoadIndex, obj)
	cur := f.alloc()
	f.w.Emit(bytecode.Store, cur)
	c.combine(f, st.Op, cur, st.Value)
	f.free(cur)
	f.w.Emit(bytecode.StoreIndex, obj, idx)
	f.free(idx)
	f.free(obj)
}
