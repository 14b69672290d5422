// Package embed is the host-facing registration layer: builders that turn
// Go functions and types into the value.NativeFunc/value.NativeClass shapes
// the VM already knows how to call, plus a value.Module assembly step so a
// registered NativeModule can be resolved by `import` exactly like a
// script-defined one. The root hebi package is a thin facade over this.
package embed

import (
	"github.com/hebi-lang/hebi/internal/embed/moduleschema"
	"github.com/hebi-lang/hebi/internal/value"
)

// NativeModule collects the functions, classes, and constants a host
// exposes under a single import path, mirroring the shape of a compiled
// script module closely enough that internal/vm's import resolution
// doesn't need to special-case native modules at all — see ToModule.
type NativeModule struct {
	Name    string
	Funcs   map[string]*value.NativeFunc
	Classes map[string]*value.NativeClass
	Consts  map[string]value.Value
}

// NewNativeModule starts an empty module builder for name (the path a
// script would `import` it under).
func NewNativeModule(name string) *NativeModule {
	return &NativeModule{
		Name:    name,
		Funcs:   map[string]*value.NativeFunc{},
		Classes: map[string]*value.NativeClass{},
		Consts:  map[string]value.Value{},
	}
}

// Func registers a synchronous native function under name.
func (m *NativeModule) Func(name string, fn func(value.Scope) (value.Value, error)) *NativeModule {
	m.Funcs[name] = &value.NativeFunc{Name: name, Sync: fn}
	return m
}

// AsyncFunc registers an asynchronous native function under name: fn
// returns a value.Future instead of resolving immediately, for native
// calls that would otherwise block a VM thread (I/O, timers, host RPCs).
func (m *NativeModule) AsyncFunc(name string, fn func(value.Scope) (value.Future, error)) *NativeModule {
	m.Funcs[name] = &value.NativeFunc{Name: name, Async: fn}
	return m
}

// Const registers a plain value (no call semantics) under name.
func (m *NativeModule) Const(name string, v value.Value) *NativeModule {
	m.Consts[name] = v
	return m
}

// Class registers a native class, built with NewNativeClass.
func (m *NativeModule) Class(nc *value.NativeClass) *NativeModule {
	m.Classes[nc.Name] = nc
	return m
}

// declMap renders m's current registrations into the generic
// map[string]any shape moduleschema's JSON schema describes, so the same
// structural rules (non-empty names) apply whether a host built the module
// through this fluent builder or decoded it from a manifest file.
func (m *NativeModule) declMap() map[string]any {
	funcs := make([]any, 0, len(m.Funcs))
	for name, fn := range m.Funcs {
		funcs = append(funcs, map[string]any{"name": name, "async": fn.Async != nil})
	}
	classes := make([]any, 0, len(m.Classes))
	for name, nc := range m.Classes {
		fields := make([]any, len(nc.FieldNames))
		for i, f := range nc.FieldNames {
			fields[i] = f
		}
		classes = append(classes, map[string]any{"name": name, "fields": fields})
	}
	return map[string]any{"name": m.Name, "functions": funcs, "classes": classes}
}

// Validate checks m's registrations against the native-module declaration
// schema (internal/embed/moduleschema), catching a malformed registration
// (most commonly an empty name reached through direct struct construction
// rather than the builder methods above) before it reaches ToModule.
func (m *NativeModule) Validate() error {
	return moduleschema.Validate(m.declMap())
}

// ToModule materializes m into a value.Module with a fixed name->slot table,
// the same shape a compiled script module produces, so it can be cached
// directly in a vm.Thread's module table and addressed by ordinary
// LoadField reads off the import handle. It validates m first; a malformed
// registration is a host bug caught at registration time, not a script-
// facing runtime error.
func (m *NativeModule) ToModule() (*value.Module, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	mod := value.NewModule(m.Name, len(m.Funcs)+len(m.Classes)+len(m.Consts))
	i := 0
	for name, fn := range m.Funcs {
		mod.Names[name] = i
		mod.Vars[i] = value.Obj(value.NativeFuncObj(fn))
		i++
	}
	for name, nc := range m.Classes {
		mod.Names[name] = i
		mod.Vars[i] = value.Obj(value.NativeClassObj(nc))
		i++
	}
	for name, v := range m.Consts {
		mod.Names[name] = i
		mod.Vars[i] = v
		i++
	}
	return mod, nil
}

// NativeClassBuilder builds a value.NativeClass field by field, the same
// fluent style as NativeModule above.
type NativeClassBuilder struct {
	nc *value.NativeClass
}

// NewNativeClass starts a builder for a native class named name.
func NewNativeClass(name string) *NativeClassBuilder {
	return &NativeClassBuilder{nc: &value.NativeClass{
		Name:          name,
		Methods:       map[string]*value.NativeFunc{},
		StaticMethods: map[string]*value.NativeFunc{},
	}}
}

// Init sets the constructor run when a script does `ClassName(...)`.
func (b *NativeClassBuilder) Init(fn func(value.Scope) error) *NativeClassBuilder {
	b.nc.Init = fn
	return b
}

// Field declares a field with its default value, in the order instances
// are reported to have them.
func (b *NativeClassBuilder) Field(name string, def value.Value) *NativeClassBuilder {
	b.nc.FieldNames = append(b.nc.FieldNames, name)
	b.nc.FieldValues = append(b.nc.FieldValues, def)
	return b
}

// Method registers an instance method bound to the receiver at call time.
func (b *NativeClassBuilder) Method(name string, fn func(value.Scope) (value.Value, error)) *NativeClassBuilder {
	b.nc.Methods[name] = &value.NativeFunc{Name: name, Sync: fn}
	return b
}

// StaticMethod registers a method reachable off the class itself rather
// than an instance (e.g. `ClassName.parse(...)`).
func (b *NativeClassBuilder) StaticMethod(name string, fn func(value.Scope) (value.Value, error)) *NativeClassBuilder {
	b.nc.StaticMethods[name] = &value.NativeFunc{Name: name, Sync: fn}
	return b
}

// Build returns the assembled value.NativeClass.
func (b *NativeClassBuilder) Build() *value.NativeClass { return b.nc }
