package bytecode

import "github.com/hebi-lang/hebi/internal/diag"

// ConstKind tags the variant stored in a ConstPool entry.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNone
	ConstFunc
	ConstClass
)

// Const is one constant-pool entry. Exactly one of the typed fields is
// meaningful, selected by Kind. ConstBool uses Int as 0/1; ConstNone uses no
// field. These two exist only so parameter defaults (typed as Const, unlike
// ordinary bool/none literals which compile to dedicated LoadTrue/LoadFalse/
// LoadNone opcodes) can represent every literal kind.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Func  *Function
	Class *ClassDesc
}

// Upvalue describes one captured-variable slot of a function, per the
// specification's Upvalue resolution algorithm: it either aliases a
// register of the immediately enclosing function (Reg) or forwards an
// upvalue of the enclosing function (Upvalue).
type Upvalue struct {
	FromParentReg bool // true: Index is a register of the enclosing function; false: Index is an upvalue index of the enclosing function
	Index         int
}

// Params mirrors the specification's argument-binding shape (§4.6).
type Params struct {
	Positional            []string
	PositionalDefaults    []Const // parallel to the trailing len(PositionalDefaults) entries of Positional
	HasVariadicPositional bool
	VariadicPositional    string

	Keyword         []string
	KeywordDefaults map[string]Const
	HasVariadicKw   bool
	VariadicKw      string

	HasSelf bool
}

// MinMaxPositional returns the minimum and maximum number of positional
// arguments this parameter shape accepts (maximum is -1 if variadic).
func (p Params) MinMaxPositional() (min, max int) {
	required := len(p.Positional) - len(p.PositionalDefaults)
	min = required
	if p.HasVariadicPositional {
		max = -1
	} else {
		max = len(p.Positional)
	}
	return
}

// SpanMark records the source span responsible for the instruction at PC,
// for stack traces. Marks are sparse (one per source statement/expression
// boundary the emitter cared about, not one per instruction) and sorted by
// PC; a lookup finds the mark with the greatest PC not exceeding the query.
type SpanMark struct {
	PC int
	Sp diag.Span
}

// Function is a compiled chunk: bytecode plus everything needed to execute
// it in a call frame.
type Function struct {
	Name        string
	Params      Params
	NumRegs     int
	Upvalues    []Upvalue
	Code        []byte
	Consts      []Const
	Spans       []SpanMark
	ModuleVar   int  // index into the defining module's slot table, or -1
	IsGenerator bool // body contains a yield; Call produces a generator instead of running immediately
}

// SpanAt returns the span responsible for the instruction at pc, or a
// zero Span if fn has no marks at or before pc.
func (fn *Function) SpanAt(pc int) diag.Span {
	var best diag.Span
	for _, m := range fn.Spans {
		if m.PC > pc {
			break
		}
		best = m.Sp
	}
	return best
}

// ClassDesc is the compile-time, static template for a class statement: the
// shape MakeClass's register window must match, not the runtime descriptor
// itself. Methods and field defaults are always runtime values (built via
// MakeFn/expression evaluation into the window immediately before MakeClass
// executes, since either can reference enclosing-scope captures or
// non-constant expressions), so this template carries only declaration
// order and names; the runtime descriptor (parent resolution, method
// closures, field default values) is assembled by the VM and lives in
// package value, which already depends on this package.
type ClassDesc struct {
	Name        string
	IsDerived   bool
	MethodNames []string // declaration order, parallel to the window slots after the optional parent
	FieldNames  []string // declaration order, parallel to the window slots after the methods
}
