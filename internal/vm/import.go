package vm

import (
	"fmt"

	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/emit"
	"github.com/hebi-lang/hebi/internal/parser"
	"github.com/hebi-lang/hebi/internal/value"
)

// ModuleLoader resolves a dotted import path (as written in `import a.b` or
// `from a.b import x`) to source text. The embedding facade's
// FileModuleLoader (internal/embed/loader) is the concrete implementation backing
// a Context's Loader; tests can substitute an in-memory one.
type ModuleLoader interface {
	Load(path string) (src string, displayName string, err error)
}

// RegisterModule pre-populates the module cache so a later `import path`
// resolves to mod directly without ever consulting t.Loader — this is how
// the embedding facade's native modules (internal/embed.NativeModule,
// assembled into a *value.Module by ToModule) are wired in ahead of any
// script run.
func (t *Thread) RegisterModule(path string, mod *value.Module) {
	t.modules[path] = mod
}

// doImport implements the Import opcode: resolve path through t.Loader,
// compiling and running it at most once per Thread (subsequent imports of
// the same path return the cached module), and hand back the resulting
// module handle. Binding individual names out of it (`from a import x`) is
// the emitter's job, done with an ordinary LoadField against this handle.
func (t *Thread) doImport(path string) (value.Value, error) {
	if mod, ok := t.modules[path]; ok {
		return value.Obj(value.ModuleObj(mod)), nil
	}
	if t.Loader == nil {
		return value.Value{}, diag.NewLookup(diag.Span{}, fmt.Sprintf("no module loader configured; cannot import %q", path), "", nil)
	}

	src, displayName, err := t.Loader.Load(path)
	if err != nil {
		return value.Value{}, diag.NewLookup(diag.Span{}, fmt.Sprintf("cannot import %q: %s", path, err), "", nil)
	}

	astMod, err := parser.Parse(src)
	if err != nil {
		return value.Value{}, err
	}
	res, err := emit.Compile(astMod, displayName)
	if err != nil {
		return value.Value{}, err
	}

	mod := value.NewModule(path, len(res.ModuleVars))
	for i, name := range res.ModuleVars {
		mod.Names[name] = i
	}
	// Cache before running the body so a self-importing cycle observes a
	// partially initialized module rather than recompiling forever.
	t.modules[path] = mod

	fr := newFrame(res.Body, nil, mod, value.None())
	if _, err := t.runFrame(fr); err != nil {
		delete(t.modules, path)
		return value.Value{}, err
	}
	return value.Obj(value.ModuleObj(mod)), nil
}
