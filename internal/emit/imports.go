package emit

import (
	"strings"

	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
)

// emitImports runs before any top-level statement: each import resolves its
// dotted path through the host's module loader into a single module handle
// register, then either binds that handle directly (`import a.b`) or reads
// each requested name off it as an ordinary field access (`from a import x,
// y`), in declaration order, binding the result the same way a var
// statement would.
func (c *compiler) emitImports(f *funcCtx, imports []*ast.Import) {
	for _, imp := range imports {
		path := strings.Join(imp.Path, ".")
		modReg := f.alloc()
		f.w.Emit(bytecode.Import, f.constStr(path), modReg)

		if len(imp.Names) == 0 {
			f.w.Emit(bytecode.Load, modReg)
			c.bindNewName(f, imp.Path[len(imp.Path)-1], imp.Span())
			f.free(modReg)
			continue
		}
		for _, name := range imp.Names {
			f.w.Emit(bytecode.Load, modReg)
			f.w.Emit(bytecode.LoadField, f.constStr(name))
			c.bindNewName(f, name, imp.Span())
		}
		f.free(modReg)
	}
}
