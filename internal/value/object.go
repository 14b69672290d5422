package value

import (
	"fmt"
	"strings"

	"github.com/hebi-lang/hebi/internal/bytecode"
)

// ObjKind tags the dynamic variant of an Object.
type ObjKind int

const (
	ObjStr ObjKind = iota
	ObjList
	ObjDict
	ObjTuple
	ObjRange
	ObjFunc
	ObjClosure
	ObjClass    // runtime instance
	ObjClassDef // static descriptor
	ObjMethod   // bound receiver + func/closure
	ObjProxy    // transient `super` proxy
	ObjModule
	ObjNativeFunc
	ObjNativeClass
	ObjError
	ObjIter // internal iterator/generator state produced by IterInit; never surfaced to user code directly
)

// Object is the common heap representation for every reference-type value.
// The Kind field selects which embedded payload is meaningful.
type Object struct {
	Kind ObjKind

	Str   string // ObjStr
	List  []Value
	Dict  *Dict
	Tuple []Value
	Range Range

	Func    *bytecode.Function // ObjFunc
	Closure *Closure            // ObjClosure

	Class    *Class     // ObjClass (instance)
	ClassDef *ClassDesc // ObjClassDef

	Method *Method // ObjMethod
	Proxy  *Proxy  // ObjProxy

	Module *Module // ObjModule

	Native      *NativeFunc  // ObjNativeFunc
	NativeClass *NativeClass // ObjNativeClass

	Err *ErrorObj // ObjError

	Iter Iterator // ObjIter
}

// Iterator is the VM-internal iteration protocol driven by IterInit/
// IterNext: Next returns the next value and true, or a zero value and false
// at exhaustion. Concrete implementations (range counters, the next()-method
// adapter for user values, and the goroutine-backed generator coroutine) all
// live in package vm, which is the only place that constructs one; this
// package only needs the shape so Object can hold one without an import
// cycle back onto package vm.
type Iterator interface {
	Next() (Value, bool, error)
}

// Dict preserves insertion order, per the specification's data model.
type Dict struct {
	keys   []Value
	index  map[string]int // fast path for string keys; other key kinds fall back to linear scan
	values []Value
}

func NewDict() *Dict {
	return &Dict{index: map[string]int{}}
}

func (d *Dict) Len() int { return len(d.keys) }

func (d *Dict) Get(key Value) (Value, bool) {
	if key.IsObject() && key.AsObject() != nil && key.AsObject().Kind == ObjStr {
		if i, ok := d.index[key.AsObject().Str]; ok {
			return d.values[i], true
		}
		return Value{}, false
	}
	for i, k := range d.keys {
		if Equal(k, key) {
			return d.values[i], true
		}
	}
	return Value{}, false
}

func (d *Dict) Set(key, val Value) {
	if key.IsObject() && key.AsObject() != nil && key.AsObject().Kind == ObjStr {
		s := key.AsObject().Str
		if i, ok := d.index[s]; ok {
			d.values[i] = val
			return
		}
		d.index[s] = len(d.keys)
		d.keys = append(d.keys, key)
		d.values = append(d.values, val)
		return
	}
	for i, k := range d.keys {
		if Equal(k, key) {
			d.values[i] = val
			return
		}
	}
	d.keys = append(d.keys, key)
	d.values = append(d.values, val)
}

func (d *Dict) Delete(key Value) bool {
	for i, k := range d.keys {
		if Equal(k, key) {
			if k.IsObject() && k.AsObject() != nil && k.AsObject().Kind == ObjStr {
				delete(d.index, k.AsObject().Str)
			}
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			d.values = append(d.values[:i], d.values[i+1:]...)
			for s, idx := range d.index {
				if idx > i {
					d.index[s] = idx - 1
				}
			}
			return true
		}
	}
	return false
}

func (d *Dict) Keys() []Value   { return d.keys }
func (d *Dict) Values() []Value { return d.values }

// Range is an integer range, inclusive or exclusive of Hi.
type Range struct {
	Lo, Hi    int64
	Inclusive bool
}

// Len returns the number of integers the range yields.
func (r Range) Len() int64 {
	n := r.Hi - r.Lo
	if r.Inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// Closure pairs a Function with its captured upvalue cells and the Module
// it was lexically defined in, so LoadModuleVar/StoreModuleVar inside a
// closure called from anywhere (including re-entrantly from another
// module's frame) still index the defining module's slot table.
type Closure struct {
	Fn       *bytecode.Function
	Captures []*Cell
	Module   *Module
}

// Cell is an upvalue storage cell: either "open" (pointing at a live stack
// slot via Stack/Index) or "closed" (holding a heap copy in Value once the
// owning frame has returned).
type Cell struct {
	Closed bool
	Value  Value
	Stack  []Value // shared slice view of the owning frame's register window
	Index  int     // index into Stack while open
}

func (c *Cell) Get() Value {
	if c.Closed {
		return c.Value
	}
	return c.Stack[c.Index]
}

func (c *Cell) Set(v Value) {
	if c.Closed {
		c.Value = v
		return
	}
	c.Stack[c.Index] = v
}

// Close copies the current stack value into the cell and detaches it from
// the stack, per the specification's "closed upvalue" semantics.
func (c *Cell) Close() {
	if c.Closed {
		return
	}
	c.Value = c.Stack[c.Index]
	c.Closed = true
	c.Stack = nil
}

// ClassDesc is the runtime class descriptor produced each time a MakeClass
// instruction executes: the compile-time template (name, declaration
// order) plus the actual parent, method closures, and field default values
// read out of that instruction's register window. Because Hebi classes can
// have a dynamically computed parent and methods/defaults that close over
// enclosing scope, this can't be a purely compile-time structure the way
// bytecode.ClassDesc is — it is allocated fresh by the VM, not interned.
type ClassDesc struct {
	Template      *bytecode.ClassDesc
	Parent        *ClassDesc // nil for a root class
	Methods       map[string]Value
	FieldDefaults []Value // parallel to Template.FieldNames
}

func (c *ClassDesc) Name() string { return c.Template.Name }

// Method looks up a method by name along the parent chain, also returning
// the descriptor that actually owns the match (the class whose body defines
// it, not necessarily c itself) — for `super` dispatch the caller starts
// the search at Parent, and a frame running this method records the owner
// as its definingClass so a further nested `super` resolves against the
// owner's parent rather than the original receiver's dynamic class.
func (c *ClassDesc) Method(name string) (Value, *ClassDesc, bool) {
	for cd := c; cd != nil; cd = cd.Parent {
		if m, ok := cd.Methods[name]; ok {
			return m, cd, true
		}
	}
	return Value{}, nil, false
}

// IsSubclassOf reports whether c is child, or descends from, other.
func (c *ClassDesc) IsSubclassOf(other *ClassDesc) bool {
	for cd := c; cd != nil; cd = cd.Parent {
		if cd == other {
			return true
		}
	}
	return false
}

// Class is a runtime instance: a mutable field table until Freeze, after
// which new fields cannot be added (existing ones may still be assigned).
type Class struct {
	Def    *ClassDesc
	Fields map[string]Value
	Frozen bool
}

func NewInstance(def *ClassDesc) *Class {
	return &Class{Def: def, Fields: map[string]Value{}}
}

func (c *Class) Freeze() { c.Frozen = true }

func (c *Class) Get(name string) (Value, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

// Set stores a field, returning false if the instance is frozen and name is
// not an existing field (the one case spec.md requires to be an error).
func (c *Class) Set(name string, v Value) bool {
	if _, exists := c.Fields[name]; !exists && c.Frozen {
		return false
	}
	c.Fields[name] = v
	return true
}

// Method is a receiver bound to a function or closure, created transiently
// on field access and never stored back onto the receiver (this is what
// keeps `instance -> method -> self` from forming a reference cycle).
type Method struct {
	Receiver      Value
	Func          *bytecode.Function
	Closure       *Closure
	Native        *NativeFunc
	DefiningClass *ClassDesc // the descriptor whose body this method came from, for a further nested `super`
}

// Proxy represents `super`: the current self together with the parent
// class descriptor method lookup should start from. Like Method, a Proxy is
// never retained past the call that produced it.
type Proxy struct {
	Receiver Value
	Parent   *ClassDesc
}

// Module is a namespace produced by executing a top-level program, indexed
// by a fixed-index variable slot table computed at emit time.
type Module struct {
	Name  string
	Vars  []Value
	Names map[string]int // exported name -> slot index
}

func NewModule(name string, nSlots int) *Module {
	return &Module{Name: name, Vars: make([]Value, nSlots), Names: map[string]int{}}
}

// NativeFunc wraps a host callback. Async is non-nil for functions
// registered via NativeModule.AsyncFunc; exactly one of Sync/Async is
// set.
type NativeFunc struct {
	Name  string
	Sync  func(Scope) (Value, error)
	Async func(Scope) (Future, error)
}

// Future is the embedding API's async result: a value that resolves later.
// Implementations come from host code through async native functions, and
// internal/vm's awaitFuture polls them; this package only declares the shape.
type Future interface {
	Poll() (Value, error, bool) // bool is "done"
}

// Scope is the host-facing argument/context handle passed to native
// callbacks, per the specification's §6 embedding API: positional/keyword
// argument access, the bound receiver for native methods, a way to call
// back into the VM, and constructors for new heap values. The concrete
// implementation lives in internal/vm (the only place with a *Thread to
// back it), forward-declared here as an interface so package value has no
// import cycle back onto internal/vm.
type Scope interface {
	Param(i int) Value
	Kwarg(name string) (Value, bool)
	NumArgs() int
	// Self is the bound receiver for a native method call; None outside one.
	Self() Value
	// Call re-enters the VM to invoke any callable value from within a
	// native callback (native re-entrancy, per the specification's §5
	// "Re-entrancy from native callbacks back into the VM is supported").
	Call(callee Value, args []Value) (Value, error)
	// Global reads/writes the context's root namespace.
	Global(name string) (Value, bool)
	SetGlobal(name string, v Value)
	NewString(s string) Value
	NewList(vs []Value) Value
	NewDict() Value
}

// NativeClass is a host-defined class: a constructor plus field defaults
// and sync/async method tables, mirroring bytecode.ClassDesc's static shape
// for user-defined classes.
type NativeClass struct {
	Name        string
	Init        func(Scope) error
	FieldNames  []string
	FieldValues []Value
	Methods     map[string]*NativeFunc
	StaticMethods map[string]*NativeFunc
}

// ErrorObj is the runtime representation of a raised/caught error value.
type ErrorObj struct {
	Message string
	Payload any
}

func (o *Object) TypeName() string {
	switch o.Kind {
	case ObjStr:
		return "str"
	case ObjList:
		return "list"
	case ObjDict:
		return "dict"
	case ObjTuple:
		return "tuple"
	case ObjRange:
		return "range"
	case ObjFunc, ObjClosure:
		return "function"
	case ObjClass:
		return "instance"
	case ObjClassDef:
		return "class"
	case ObjMethod:
		return "method"
	case ObjProxy:
		return "super"
	case ObjModule:
		return "module"
	case ObjNativeFunc:
		return "function"
	case ObjNativeClass:
		return "class"
	case ObjError:
		return "error"
	case ObjIter:
		return "generator"
	default:
		return "object"
	}
}

func (o *Object) String() string {
	switch o.Kind {
	case ObjStr:
		return o.Str
	case ObjList:
		parts := make([]string, len(o.List))
		for i, v := range o.List {
			parts[i] = reprValue(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjTuple:
		parts := make([]string, len(o.Tuple))
		for i, v := range o.Tuple {
			parts[i] = reprValue(v)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ObjDict:
		parts := make([]string, 0, o.Dict.Len())
		for i, k := range o.Dict.Keys() {
			parts = append(parts, fmt.Sprintf("%s: %s", reprValue(k), reprValue(o.Dict.Values()[i])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ObjRange:
		op := ".."
		if o.Range.Inclusive {
			op = "..="
		}
		return fmt.Sprintf("%d%s%d", o.Range.Lo, op, o.Range.Hi)
	case ObjFunc:
		return fmt.Sprintf("<function %s>", o.Func.Name)
	case ObjClosure:
		return fmt.Sprintf("<function %s>", o.Closure.Fn.Name)
	case ObjClass:
		return fmt.Sprintf("<%s instance>", o.Class.Def.Name())
	case ObjClassDef:
		return fmt.Sprintf("<class %s>", o.ClassDef.Name())
	case ObjMethod:
		return "<bound method>"
	case ObjModule:
		return fmt.Sprintf("<module %s>", o.Module.Name)
	case ObjNativeFunc:
		return fmt.Sprintf("<native function %s>", o.Native.Name)
	case ObjNativeClass:
		return fmt.Sprintf("<native class %s>", o.NativeClass.Name)
	case ObjError:
		return fmt.Sprintf("<error: %s>", o.Err.Message)
	case ObjIter:
		return "<generator>"
	default:
		return "<object>"
	}
}

func reprValue(v Value) string {
	if v.IsObject() && v.AsObject() != nil && v.AsObject().Kind == ObjStr {
		return fmt.Sprintf("%q", v.AsObject().Str)
	}
	return v.String()
}

// Str allocates a string object. Interning is handled by the caller's
// Context (see intern.go) so this stays a plain constructor.
func Str(s string) *Object { return &Object{Kind: ObjStr, Str: s} }
func List(vs []Value) *Object { return &Object{Kind: ObjList, List: vs} }
func TupleObj(vs []Value) *Object { return &Object{Kind: ObjTuple, Tuple: vs} }
func DictObj(d *Dict) *Object { return &Object{Kind: ObjDict, Dict: d} }
func RangeObj(r Range) *Object { return &Object{Kind: ObjRange, Range: r} }
func FuncObj(f *bytecode.Function) *Object { return &Object{Kind: ObjFunc, Func: f} }
func ClosureObj(c *Closure) *Object { return &Object{Kind: ObjClosure, Closure: c} }
func ClassObj(c *Class) *Object { return &Object{Kind: ObjClass, Class: c} }
func ClassDefObj(c *ClassDesc) *Object { return &Object{Kind: ObjClassDef, ClassDef: c} }
func MethodObj(m *Method) *Object { return &Object{Kind: ObjMethod, Method: m} }
func ProxyObj(p *Proxy) *Object { return &Object{Kind: ObjProxy, Proxy: p} }
func ModuleObj(m *Module) *Object { return &Object{Kind: ObjModule, Module: m} }
func NativeFuncObj(n *NativeFunc) *Object { return &Object{Kind: ObjNativeFunc, Native: n} }
func NativeClassObj(n *NativeClass) *Object { return &Object{Kind: ObjNativeClass, NativeClass: n} }
func ErrorObject(e *ErrorObj) *Object { return &Object{Kind: ObjError, Err: e} }
func IterObj(it Iterator) *Object     { return &Object{Kind: ObjIter, Iter: it} }
