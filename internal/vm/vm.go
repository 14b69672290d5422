// Package vm executes compiled bytecode.Function chunks: the dispatch loop,
// call frames, upvalue lifecycle, arithmetic/comparison, iteration, class
// instantiation, imports, and cooperative suspension.
package vm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// Thread is a single cooperative execution thread: one context owns exactly
// one Thread, matching the specification's single-threaded VM model.
type Thread struct {
	ctx     context.Context
	Globals map[string]value.Value
	Stdout  Printer
	Loader  ModuleLoader
	Logger  *slog.Logger

	modules  map[string]*value.Module // cache keyed by resolved path
	depth    int                      // call-stack depth, for a recursion guard
	interner *value.Interner          // pools LoadConst string materializations for this Thread's lifetime
}

// Printer is the `print`/`printN` sink; the embedding facade wires this to
// an io.Writer (defaulting to os.Stdout).
type Printer interface {
	Print(s string)
}

// MaxCallDepth bounds native Go recursion (frames recurse through Thread.call),
// protecting the host process from a runaway script before Go's own stack
// guard would kick in less gracefully.
const MaxCallDepth = 4096

// NewThread creates a Thread bound to ctx. Globals/Loader/Logger may be
// filled in by the caller (the embedding facade) before the first Run.
func NewThread(ctx context.Context) *Thread {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Thread{
		ctx:      ctx,
		Globals:  map[string]value.Value{},
		modules:  map[string]*value.Module{},
		interner: value.NewInterner(),
	}
}

// Run executes fn's top level as this Thread's program, under ctx (replacing
// whatever context the Thread was created with — a fresh Run supersedes any
// prior one, matching the facade's "one Run/RunAsync in flight at a time"
// contract). moduleVars names the program's module-scope slots in slot
// order, exactly as emit.Compile reports them.
func (t *Thread) Run(ctx context.Context, fn *bytecode.Function, moduleVars []string) (value.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	t.ctx = ctx
	mod := value.NewModule("<program>", len(moduleVars))
	for i, name := range moduleVars {
		mod.Names[name] = i
	}
	fr := newFrame(fn, nil, mod, value.None())
	return t.runFrame(fr)
}

// frame is one call's register window and dispatch state. Frames recurse
// through Go's call stack (t.call), matching every nested Call/MakeClass
// instance-init/meta-method invocation to a native stack frame; upvalue
// cells alias a frame's regs slice directly since it is never reallocated
// after creation.
type frame struct {
	fn      *bytecode.Function
	closure *value.Closure // nil for the module's own top-level frame and for bare ObjFunc calls
	module  *value.Module
	self    value.Value
	// definingClass is the ClassDesc whose body declares the method this
	// frame is running, used by `super` to start its search at its parent
	// rather than the receiver's (possibly more derived) dynamic class.
	// nil outside of method calls.
	definingClass *value.ClassDesc
	// gen is non-nil when this frame is the directly-dispatched body of a
	// generator coroutine; Suspend hands off through its channels instead
	// of erroring.
	gen *genCoroutine

	regs  []value.Value
	acc   value.Value
	pc    int
	cells map[int]*value.Cell // open upvalues, keyed by register index
}

func newFrame(fn *bytecode.Function, closure *value.Closure, mod *value.Module, self value.Value) *frame {
	return &frame{fn: fn, closure: closure, module: mod, self: self, regs: make([]value.Value, fn.NumRegs)}
}

// openCell returns the (memoized) upvalue cell aliasing register idx, so
// two closures capturing the same variable from fr observe each other's
// writes through it.
func (fr *frame) openCell(idx int) *value.Cell {
	if fr.cells == nil {
		fr.cells = map[int]*value.Cell{}
	}
	if c, ok := fr.cells[idx]; ok {
		return c
	}
	c := &value.Cell{Stack: fr.regs, Index: idx}
	fr.cells[idx] = c
	return c
}

// closeCells detaches every open upvalue cell from fr's register window
// into its own heap copy, per the specification: "at function return, all
// upvalues referring to the returning frame's locals are closed atomically
// before the frame is popped."
func (fr *frame) closeCells() {
	for _, c := range fr.cells {
		c.Close()
	}
}

// runtimeErr builds a KindType diagnostic tagged with fr's current
// instruction span, the shape every opcode handler below raises through.
func (fr *frame) runtimeErr(format string, args ...any) error {
	sp := fr.fn.SpanAt(fr.pc)
	return diag.NewType(sp, fmt.Sprintf(format, args...))
}

// run executes fr to completion: a return, a propagated error, or
// cancellation. It is the sole dispatch loop; Call/class-init/meta-method
// invocations recurse into Thread.call, which wraps this.
func (t *Thread) run(fr *frame) (value.Value, error) {
	for {
		instr := bytecode.Decode(fr.fn.Code, fr.pc)
		fr.pc += instr.Length
		a := instr.Args

		switch instr.Op {
		case bytecode.Nop:

		case bytecode.Load:
			fr.acc = fr.regs[a[0]]
		case bytecode.Store:
			fr.regs[a[0]] = fr.acc

		case bytecode.LoadConst:
			v, err := t.constValue(fr, a[0])
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.LoadGlobal:
			name := fr.fn.Consts[a[0]].Str
			v, ok := t.Globals[name]
			if !ok {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, diag.NewLookup(fr.fn.SpanAt(fr.pc), "undefined name "+quote(name), name, t.globalNames()))
			}
			fr.acc = v
		case bytecode.StoreGlobal:
			name := fr.fn.Consts[a[0]].Str
			t.Globals[name] = fr.acc
		case bytecode.LoadUpvalue:
			fr.acc = fr.closure.Captures[a[0]].Get()
		case bytecode.StoreUpvalue:
			fr.closure.Captures[a[0]].Set(fr.acc)
		case bytecode.LoadModuleVar:
			fr.acc = fr.module.Vars[a[0]]
		case bytecode.StoreModuleVar:
			fr.module.Vars[a[0]] = fr.acc

		case bytecode.LoadNone:
			fr.acc = value.None()
		case bytecode.LoadTrue:
			fr.acc = value.Bool(true)
		case bytecode.LoadFalse:
			fr.acc = value.Bool(false)
		case bytecode.LoadSmi:
			fr.acc = value.Int(int64(a[0]))
		case bytecode.LoadSelf:
			fr.acc = fr.self
		case bytecode.LoadSuper:
			v, err := t.loadSuper(fr)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v

		case bytecode.LoadField, bytecode.LoadFieldOpt:
			name := fr.fn.Consts[a[0]].Str
			v, err := t.loadField(fr, fr.acc, name, instr.Op == bytecode.LoadFieldOpt)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.StoreField:
			name := fr.fn.Consts[a[1]].Str
			if err := t.storeField(fr, fr.regs[a[0]], name, fr.acc); err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
		case bytecode.LoadIndex, bytecode.LoadIndexOpt:
			v, err := t.loadIndex(fr, fr.regs[a[0]], fr.acc, instr.Op == bytecode.LoadIndexOpt)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.StoreIndex:
			if err := t.storeIndex(fr, fr.regs[a[0]], fr.regs[a[1]], fr.acc); err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}

		case bytecode.MakeFn:
			fn := fr.fn.Consts[a[0]].Func
			fr.acc = value.Obj(value.ClosureObj(&value.Closure{Fn: fn, Captures: make([]*value.Cell, len(fn.Upvalues)), Module: fr.module}))
		case bytecode.UpvalueReg:
			fr.acc.AsObject().Closure.Captures[a[1]] = fr.openCell(a[0])
		case bytecode.UpvalueSlot:
			fr.acc.AsObject().Closure.Captures[a[1]] = fr.closure.Captures[a[0]]
		case bytecode.MakeClass:
			v, err := t.makeClass(fr, a[0], a[1])
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.MakeList:
			fr.acc = value.Obj(value.List(append([]value.Value(nil), fr.regs[a[0]:a[0]+a[1]]...)))
		case bytecode.MakeTuple:
			fr.acc = value.Obj(value.TupleObj(append([]value.Value(nil), fr.regs[a[0]:a[0]+a[1]]...)))
		case bytecode.MakeDict:
			d := value.NewDict()
			base := a[0]
			for i := 0; i < a[1]; i++ {
				d.Set(fr.regs[base+2*i], fr.regs[base+2*i+1])
			}
			fr.acc = value.Obj(value.DictObj(d))
		case bytecode.MakeRange:
			hi, ok := asInt(fr.acc)
			if !ok {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, fr.runtimeErr("range bound must be int"))
			}
			lo, ok := asInt(fr.regs[a[0]])
			if !ok {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, fr.runtimeErr("range bound must be int"))
			}
			fr.acc = value.Obj(value.RangeObj(value.Range{Lo: lo, Hi: hi, Inclusive: a[1] != 0}))

		case bytecode.Jump:
			fr.pc += a[0]
		case bytecode.JumpBack:
			fr.pc -= a[0]
			if err := t.ctx.Err(); err != nil {
				fr.closeCells()
				return value.Value{}, diag.NewCancellation()
			}
		case bytecode.JumpIfFalse:
			if !fr.acc.Truthy() {
				fr.pc += a[0]
			}
		case bytecode.JumpIfNone:
			if fr.acc.IsNone() {
				fr.pc += a[0]
			}

		case bytecode.IterInit:
			st, err := t.iterInit(fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.regs[a[0]] = st
		case bytecode.IterNext:
			v, err := t.iterNext(fr.regs[a[0]])
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Rem, bytecode.Pow:
			v, err := t.binaryArith(fr, instr.Op, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.Inv:
			v, err := t.negate(fr, fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.Not:
			fr.acc = value.Bool(!fr.acc.Truthy())

		case bytecode.CmpEq:
			v, err := t.equal(fr, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = value.Bool(v)
		case bytecode.CmpNe:
			v, err := t.equal(fr, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = value.Bool(!v)
		case bytecode.CmpGt, bytecode.CmpGe, bytecode.CmpLt, bytecode.CmpLe:
			v, err := t.compare(fr, instr.Op, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = value.Bool(v)
		case bytecode.CmpType:
			v, err := t.cmpType(fr, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = value.Bool(v)
		case bytecode.Contains:
			v, err := t.contains(fr, fr.regs[a[0]], fr.acc)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = value.Bool(v)

		case bytecode.Print:
			if t.Stdout != nil {
				t.Stdout.Print(fr.acc.String() + "\n")
			}
		case bytecode.PrintN:
			if t.Stdout != nil {
				t.Stdout.Print(joinValues(fr.regs[a[0]:a[0]+a[1]]) + "\n")
			}

		case bytecode.Call:
			v, err := t.dispatchCall(fr, a[0], a[1])
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v
		case bytecode.Import:
			v, err := t.doImport(fr.fn.Consts[a[0]].Str)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.regs[a[1]] = v

		case bytecode.Ret:
			fr.closeCells()
			return fr.acc, nil
		case bytecode.Suspend:
			v, err := t.suspend(fr)
			if err != nil {
				fr.closeCells()
				return value.Value{}, t.wrapErr(fr, err)
			}
			fr.acc = v

		default:
			fr.closeCells()
			return value.Value{}, t.wrapErr(fr, fr.runtimeErr("unhandled opcode %s", instr.Op))
		}
	}
}

// wrapErr accumulates fr's call-frame trace onto a propagating runtime
// error, per the specification's "unwind closing upvalues, accumulating a
// call trace (function name, span, module)".
func (t *Thread) wrapErr(fr *frame, err error) error {
	de, ok := err.(*diag.Error)
	if !ok {
		return err
	}
	modName := ""
	if fr.module != nil {
		modName = fr.module.Name
	}
	de.Trace = append(de.Trace, diag.Frame{Function: fr.fn.Name, Module: modName, Span: fr.fn.SpanAt(fr.pc)})
	return de
}

func (t *Thread) globalNames() []string {
	names := make([]string, 0, len(t.Globals))
	for n := range t.Globals {
		names = append(names, n)
	}
	return names
}

func joinValues(vs []value.Value) string {
	if len(vs) == 0 {
		return ""
	}
	out := vs[0].String()
	for _, v := range vs[1:] {
		out += " " + v.String()
	}
	return out
}

func asInt(v value.Value) (int64, bool) {
	if v.IsInt() {
		return v.AsInt(), true
	}
	return 0, false
}

func quote(s string) string { return "\"" + s + "\"" }
