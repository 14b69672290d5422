package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
)

// collectModuleVars pre-declares every name a top-level var/fn/class
// statement binds, in source order, before any statement body is compiled.
// This is what lets two top-level functions call each other regardless of
// declaration order: by the time either body is compiled, both already
// have a module-variable slot assigned.
func collectModuleVars(top *funcCtx, stmts []ast.Stmt) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.VarStmt:
			top.declareModuleVar(st.Name)
		case *ast.FnStmt:
			top.declareModuleVar(st.Fn.Name)
		case *ast.ClassStmt:
			top.declareModuleVar(st.Name)
		}
	}
}

// loadName compiles a read of name into the accumulator, resolving it as a
// local, an upvalue, a module variable, or (falling through) a dynamic
// global.
func (c *compiler) loadName(f *funcCtx, name string, sp diag.Span) {
	if reg, ok := f.lookupLocal(name); ok {
		f.w.Emit(bytecode.Load, reg)
		return
	}
	if idx, ok := f.resolveUpvalue(name); ok {
		f.w.Emit(bytecode.LoadUpvalue, idx)
		return
	}
	root := f.rootModuleScope()
	if idx, ok := root.moduleVars[name]; ok {
		f.w.Emit(bytecode.LoadModuleVar, idx)
		return
	}
	f.w.Emit(bytecode.LoadGlobal, f.constStr(name))
}

// storeName compiles a write of the accumulator to name, with the same
// resolution order as loadName.
func (c *compiler) storeName(f *funcCtx, name string, sp diag.Span) {
	if reg, ok := f.lookupLocal(name); ok {
		f.w.Emit(bytecode.Store, reg)
		return
	}
	if idx, ok := f.resolveUpvalue(name); ok {
		f.w.Emit(bytecode.StoreUpvalue, idx)
		return
	}
	root := f.rootModuleScope()
	if idx, ok := root.moduleVars[name]; ok {
		f.w.Emit(bytecode.StoreModuleVar, idx)
		return
	}
	f.w.Emit(bytecode.StoreGlobal, f.constStr(name))
}

// bindNewName declares name as a brand new binding (from `var`, a function
// statement, or a class statement) and stores the accumulator into it:
// a fresh local register in function scope, or the pre-assigned module-var
// slot at module scope.
func (c *compiler) bindNewName(f *funcCtx, name string, sp diag.Span) {
	if f.isModuleScope {
		idx := f.declareModuleVar(name)
		f.w.Emit(bytecode.StoreModuleVar, idx)
		return
	}
	reg := f.declareLocal(name)
	f.w.Emit(bytecode.Store, reg)
}
