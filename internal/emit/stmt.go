package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

func (c *compiler) emitStmt(f *funcCtx, s ast.Stmt) {
	if s == nil {
		return
	}
	f.markSpan(s.Span())
	switch st := s.(type) {
	case *ast.VarStmt:
		c.emitVarStmt(f, st)
	case *ast.AssignStmt:
		c.emitAssignStmt(f, st)
	case *ast.IfStmt:
		c.emitIfStmt(f, st)
	case *ast.WhileStmt:
		c.emitWhileStmt(f, st)
	case *ast.LoopStmt:
		c.emitLoopStmt(f, st)
	case *ast.ForStmt:
		c.emitForStmt(f, st)
	case *ast.BreakStmt:
		c.emitBreak(f, st)
	case *ast.ContinueStmt:
		c.emitContinue(f, st)
	case *ast.ReturnStmt:
		c.emitReturn(f, st)
	case *ast.YieldStmt:
		c.emitYield(f, st)
	case *ast.PrintStmt:
		c.emitPrint(f, st)
	case *ast.PassStmt:
		// no-op
	case *ast.ExprStmt:
		c.emitExpr(f, st.X)
	case *ast.FnStmt:
		c.emitFnExpr(f, st.Fn)
		c.bindNewName(f, st.Fn.Name, st.Span())
	case *ast.ClassStmt:
		c.emitClassStmt(f, st)
	default:
		c.errorf(s.Span(), "unsupported statement %T", s)
	}
}

func (c *compiler) emitBlock(f *funcCtx, stmts []ast.Stmt) {
	for _, s := range stmts {
		c.emitStmt(f, s)
	}
}

func (c *compiler) emitVarStmt(f *funcCtx, st *ast.VarStmt) {
	if st.Value != nil {
		c.emitExpr(f, st.Value)
	} else {
		f.w.Emit(bytecode.LoadNone)
	}
	c.bindNewName(f, st.Name, st.Span())
}

func (c *compiler) emitIfStmt(f *funcCtx, st *ast.IfStmt) {
	c.emitExpr(f, st.Cond)
	skipThen := f.emitForwardJump(bytecode.JumpIfFalse)
	f.pushBlock()
	c.emitBlock(f, st.Then)
	f.popBlock()
	var toEnd []int
	hasMore := len(st.Elif) > 0 || st.Else != nil
	if hasMore {
		toEnd = append(toEnd, f.emitForwardJump(bytecode.Jump))
	}
	f.patchForwardJump(skipThen)

	for i, elif := range st.Elif {
		c.emitExpr(f, elif.Cond)
		skip := f.emitForwardJump(bytecode.JumpIfFalse)
		f.pushBlock()
		c.emitBlock(f, elif.Body)
		f.popBlock()
		more := i < len(st.Elif)-1 || st.Else != nil
		if more {
			toEnd = append(toEnd, f.emitForwardJump(bytecode.Jump))
		}
		f.patchForwardJump(skip)
	}

	if st.Else != nil {
		f.pushBlock()
		c.emitBlock(f, st.Else)
		f.popBlock()
	}
	for _, pc := range toEnd {
		f.patchForwardJump(pc)
	}
}

func (c *compiler) emitWhileStmt(f *funcCtx, st *ast.WhileStmt) {
	header := len(f.w.Code)
	c.emitExpr(f, st.Cond)
	exit := f.emitForwardJump(bytecode.JumpIfFalse)
	f.pushLoop(header)
	f.pushBlock()
	c.emitBlock(f, st.Body)
	f.popBlock()
	f.emitJumpBack(header)
	f.patchForwardJump(exit)
	f.popLoop()
}

func (c *compiler) emitLoopStmt(f *funcCtx, st *ast.LoopStmt) {
	header := len(f.w.Code)
	f.pushLoop(header)
	f.pushBlock()
	c.emitBlock(f, st.Body)
	f.popBlock()
	f.emitJumpBack(header)
	f.popLoop()
}

func (c *compiler) emitForStmt(f *funcCtx, st *ast.ForStmt) {
	f.pushBlock()
	c.emitExpr(f, st.Iter)
	stateReg := f.alloc()
	f.w.Emit(bytecode.IterInit, stateReg)

	header := len(f.w.Code)
	f.w.Emit(bytecode.IterNext, stateReg)
	exit := f.emitForwardJump(bytecode.JumpIfNone)

	f.pushLoop(header)
	f.pushBlock()
	bindReg := f.declareLocal(st.Name)
	f.w.Emit(bytecode.Store, bindReg)
	c.emitBlock(f, st.Body)
	f.popBlock()
	f.emitJumpBack(header)
	f.patchForwardJump(exit)
	f.popLoop()
	f.popBlock()
}

func (f *funcCtx) pushLoop(headerPC int) {
	f.loops = append(f.loops, &loopCtx{headerPC: headerPC})
}

func (f *funcCtx) popLoop() {
	lp := f.loops[len(f.loops)-1]
	f.loops = f.loops[:len(f.loops)-1]
	for _, pc := range lp.breaks {
		f.patchForwardJump(pc)
	}
}

func (c *compiler) emitBreak(f *funcCtx, st *ast.BreakStmt) {
	if len(f.loops) == 0 {
		c.errorf(st.Span(), "break outside a loop")
		return
	}
	lp := f.loops[len(f.loops)-1]
	pc := f.emitForwardJump(bytecode.Jump)
	lp.breaks = append(lp.breaks, pc)
}

func (c *compiler) emitContinue(f *funcCtx, st *ast.ContinueStmt) {
	if len(f.loops) == 0 {
		c.errorf(st.Span(), "continue outside a loop")
		return
	}
	lp := f.loops[len(f.loops)-1]
	f.emitJumpBack(lp.headerPC)
}

func (c *compiler) emitReturn(f *funcCtx, st *ast.ReturnStmt) {
	if f.isModuleScope {
		c.errorf(st.Span(), "return outside a function")
		return
	}
	if st.Value != nil {
		c.emitExpr(f, st.Value)
	} else {
		f.w.Emit(bytecode.LoadNone)
	}
	f.w.Emit(bytecode.Ret)
}

func (c *compiler) emitYield(f *funcCtx, st *ast.YieldStmt) {
	if f.isModuleScope {
		c.errorf(st.Span(), "yield outside a function")
		return
	}
	if !f.isGenerator {
		c.errorf(st.Span(), "yield outside a generator function")
		return
	}
	if st.Value != nil {
		c.emitExpr(f, st.Value)
	} else {
		f.w.Emit(bytecode.LoadNone)
	}
	f.w.Emit(bytecode.Suspend)
}

func (c *compiler) emitPrint(f *funcCtx, st *ast.PrintStmt) {
	if len(st.Values) == 1 {
		c.emitExpr(f, st.Values[0])
		f.w.Emit(bytecode.Print)
		return
	}
	base := f.nextReg
	for _, v := range st.Values {
		c.emitExpr(f, v)
		r := f.alloc()
		f.w.Emit(bytecode.Store, r)
	}
	f.w.Emit(bytecode.PrintN, base, len(st.Values))
	for i := len(st.Values) - 1; i >= 0; i-- {
		f.free(base + i)
	}
}
