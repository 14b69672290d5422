package emit

import (
	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

// emitClassStmt builds MakeClass's register window — the optional parent,
// then each method closure, then each field default, in declaration order —
// and binds the resulting class under the statement's name.
func (c *compiler) emitClassStmt(f *funcCtx, st *ast.ClassStmt) {
	base := f.nextReg

	if st.Parent != "" {
		c.loadName(f, st.Parent, st.Span())
		f.w.Emit(bytecode.Store, f.alloc())
	}

	methodNames := make([]string, len(st.Methods))
	for i, m := range st.Methods {
		c.emitFnExpr(f, m)
		f.w.Emit(bytecode.Store, f.alloc())
		methodNames[i] = m.Name
	}

	fieldNames := make([]string, len(st.Fields))
	for i, fd := range st.Fields {
		if fd.Default != nil {
			c.emitExpr(f, fd.Default)
		} else {
			f.w.Emit(bytecode.LoadNone)
		}
		f.w.Emit(bytecode.Store, f.alloc())
		fieldNames[i] = fd.Name
	}

	tmpl := &bytecode.ClassDesc{
		Name:        st.Name,
		IsDerived:   st.Parent != "",
		MethodNames: methodNames,
		FieldNames:  fieldNames,
	}
	idx := f.constClass(tmpl)
	f.w.Emit(bytecode.MakeClass, base, idx)

	for r := f.nextReg - 1; r >= base; r-- {
		f.free(r)
	}
	c.bindNewName(f, st.Name, st.Span())
}
