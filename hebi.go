// Package hebi is the public embedding facade for the Hebi scripting
// language: compiling source into a reusable Program, running it against a
// Context, and registering native functions/classes/modules a script can
// call into. Everything here is a thin wrapper over internal/parser,
// internal/emit, internal/vm, and internal/embed — the core stays
// unexported so its bytecode/value representation can change freely
// between versions.
package hebi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/embed"
	"github.com/hebi-lang/hebi/internal/emit"
	"github.com/hebi-lang/hebi/internal/parser"
	"github.com/hebi-lang/hebi/internal/value"
	"github.com/hebi-lang/hebi/internal/vm"
	"golang.org/x/mod/semver"
)

// Version is this build's own semantic version.
const Version = "v0.1.0"

// CompatibleWith reports whether this build can serve a host that declares
// specVersion as its minimum required Hebi version: same major version,
// and Version at least as new as specVersion.
func CompatibleWith(specVersion string) bool {
	if !semver.IsValid(specVersion) || !semver.IsValid(Version) {
		return false
	}
	if semver.Major(specVersion) != semver.Major(Version) {
		return false
	}
	return semver.Compare(Version, specVersion) >= 0
}

// Value is Hebi's runtime value: none, bool, int, float, or a heap object
// handle.
type Value = value.Value

// Scope is the argument/context handle passed to every native callback.
type Scope = value.Scope

// Future is an async native call's pending result, polled to completion by
// the VM's await loop.
type Future = value.Future

// NativeModule and NativeClassBuilder are the registration builders a host
// uses to expose Go functionality to scripts.
type NativeModule = embed.NativeModule
type NativeClassBuilder = embed.NativeClassBuilder

// NewNativeModule starts a builder for a module script code can `import`
// under name.
func NewNativeModule(name string) *NativeModule { return embed.NewNativeModule(name) }

// NewNativeClass starts a builder for a native class.
func NewNativeClass(name string) *NativeClassBuilder { return embed.NewNativeClass(name) }

// Constructors for handing values back to scripts from native code.
func None() Value           { return value.None() }
func Bool(b bool) Value     { return value.Bool(b) }
func Int(i int64) Value     { return value.Int(i) }
func Float(f float64) Value { return value.Float(f) }
func Str(s string) Value    { return value.Obj(value.Str(s)) }
func List(vs []Value) Value { return value.Obj(value.List(append([]Value(nil), vs...))) }

// ModuleLoader resolves a dotted import path to source text for `import`.
// internal/embed/loader.FileModuleLoader is the filesystem-backed default;
// hosts may supply any type satisfying this interface.
type ModuleLoader = vm.ModuleLoader

// Program is compiled, ready-to-run source. A Program can be Run more than
// once and from more than one Context concurrently (it is immutable once
// Compile returns), which is why compiling is a separate step from running.
type Program struct {
	name string
	fn   *bytecode.Function
	vars []string
}

// Compile parses and emits src under the given module name (used in stack
// traces and as the default display name), or a non-nil error wrapping
// every syntax/emit diagnostic found.
func Compile(name, src string) (*Program, error) {
	mod, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	res, err := emit.Compile(mod, name)
	if err != nil {
		return nil, err
	}
	return &Program{name: name, fn: res.Body, vars: res.ModuleVars}, nil
}

// Name returns the module name Program was compiled under.
func (p *Program) Name() string { return p.name }

// Disassemble renders Program's bytecode in the textual form the `dis`
// subcommand prints, for debugging and golden-file tests.
func (p *Program) Disassemble() string {
	return bytecode.Disassemble(p.fn)
}

// MarshalChunk serializes Program's bytecode into the CBOR chunk format
// (see internal/bytecode/chunkfile.go), for caching a compiled Program
// without its original source; LoadChunk reads it back.
func (p *Program) MarshalChunk() ([]byte, error) {
	return bytecode.EncodeChunk(p.fn, p.vars)
}

// LoadChunk deserializes a Program previously produced by MarshalChunk.
// name is purely cosmetic; the chunk carries its own function names.
func LoadChunk(name string, data []byte) (*Program, error) {
	fn, vars, err := bytecode.DecodeChunk(data)
	if err != nil {
		return nil, err
	}
	return &Program{name: name, fn: fn, vars: vars}, nil
}

// Context is one embeddable Hebi execution context: a single-threaded VM
// plus its registered globals and native modules. A Context's methods are
// not safe for concurrent use by more than one goroutine at a time — the
// VM it wraps executes single-threaded, matching the language's execution
// model; a host running scripts concurrently creates one Context per
// goroutine (or serializes access with its own mutex, as RunAsync does
// internally for a single Context shared across calls).
type Context struct {
	mu     sync.Mutex
	thread *vm.Thread
	loader ModuleLoader
	logger *slog.Logger
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithLoader sets the module loader `import` resolves paths through.
func WithLoader(l ModuleLoader) Option {
	return func(c *Context) { c.loader = l }
}

// WithLogger sets the structured logger stored on the Context's VM thread
// (vm.Thread.Logger). Neither the compiler nor the VM writes log records
// through it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithStdout sets the sink `print`/`printN` write to. Defaults to
// os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *Context) { c.thread.Stdout = writerPrinter{w} }
}

// WithGlobal pre-registers a global variable visible to every Program run
// in this Context.
func WithGlobal(name string, v Value) Option {
	return func(c *Context) { c.thread.Globals[name] = v }
}

type writerPrinter struct{ w io.Writer }

func (p writerPrinter) Print(s string) { fmt.Fprint(p.w, s) }

// NewContext creates a Context, applying opts in declaration order.
func NewContext(opts ...Option) *Context {
	th := vm.NewThread(context.Background())
	th.Stdout = writerPrinter{os.Stdout}
	c := &Context{thread: th}
	for _, opt := range opts {
		opt(c)
	}
	th.Loader = c.loader
	th.Logger = c.logger
	return c
}

// Register makes mod resolvable via `import <mod.Name>` in this Context,
// without ever consulting the configured ModuleLoader. It returns an error
// if mod's registrations fail structural validation (see
// NativeModule.Validate) rather than surfacing a broken native module the
// first time a script imports it.
func (c *Context) Register(mod *NativeModule) error {
	built, err := mod.ToModule()
	if err != nil {
		return err
	}
	c.thread.RegisterModule(mod.Name, built)
	return nil
}

// Global reads a global variable by name.
func (c *Context) Global(name string) (Value, bool) {
	v, ok := c.thread.Globals[name]
	return v, ok
}

// SetGlobal sets a global variable visible to every Program subsequently
// run in this Context.
func (c *Context) SetGlobal(name string, v Value) {
	c.thread.Globals[name] = v
}

// Run executes prog's top level to completion against this Context,
// observing ctx's cancellation at loop back-edges and during any pending
// async native call. Only one Run/RunAsync may be in flight on a given
// Context at a time; Run blocks until any other call finishes.
func (c *Context) Run(ctx context.Context, prog *Program) (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread.Run(ctx, prog.fn, prog.vars)
}

// Eval compiles and runs src in one step, under the display name "<eval>".
func (c *Context) Eval(ctx context.Context, src string) (Value, error) {
	prog, err := Compile("<eval>", src)
	if err != nil {
		return Value{}, err
	}
	return c.Run(ctx, prog)
}

// AsyncResult is a Run/Eval in progress on its own goroutine. Wait blocks
// until it completes; the zero value is never valid (construct via
// RunAsync/EvalAsync).
type AsyncResult struct {
	done chan struct{}
	v    Value
	err  error
}

// Wait blocks until the async run completes, returning its result.
func (a *AsyncResult) Wait() (Value, error) {
	<-a.done
	return a.v, a.err
}

// Done returns a channel closed when the result is ready, for a select
// alongside other events.
func (a *AsyncResult) Done() <-chan struct{} { return a.done }

// RunAsync starts prog running on its own goroutine and returns
// immediately. This is how a host keeps its own goroutine unblocked while a
// script awaits a native async call or simply runs long — the blocking
// happens inside the spawned goroutine, never the caller's.
func (c *Context) RunAsync(ctx context.Context, prog *Program) *AsyncResult {
	a := &AsyncResult{done: make(chan struct{})}
	go func() {
		a.v, a.err = c.Run(ctx, prog)
		close(a.done)
	}()
	return a
}

// EvalAsync compiles and runs src on its own goroutine, returning
// immediately; compile errors surface through AsyncResult.Wait like any
// other failure.
func (c *Context) EvalAsync(ctx context.Context, src string) *AsyncResult {
	a := &AsyncResult{done: make(chan struct{})}
	go func() {
		prog, err := Compile("<eval>", src)
		if err != nil {
			a.err = err
			close(a.done)
			return
		}
		a.v, a.err = c.Run(ctx, prog)
		close(a.done)
	}()
	return a
}
