// Package emit lowers a parsed module into register-based bytecode
// (package bytecode): register allocation, upvalue resolution, constant
// pool deduplication, and control-flow patching.
package emit

import (
	"fmt"

	"github.com/hebi-lang/hebi/internal/ast"
	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
)

// Result is what compiling one module produces: its top-level executable
// body plus the ordered list of module-variable names backing the slot
// table a value.Module is constructed with.
type Result struct {
	Body       *bytecode.Function
	ModuleVars []string
}

// Compile lowers mod into a Result, or a non-nil error if anything in the
// module violates a static rule (break/continue/yield/return outside their
// context, an invalid assignment target, and so on). The module body
// returns the value of its last statement when that is an expression
// statement, and none otherwise.
func Compile(mod *ast.Module, moduleName string) (*Result, error) {
	c := &compiler{}
	top := newFuncCtx(nil, "<module "+moduleName+">")
	top.isModuleScope = true
	top.pushBlock()
	c.emitImports(top, mod.Imports)
	collectModuleVars(top, mod.Stmts)
	for _, s := range mod.Stmts {
		c.emitStmt(top, s)
	}
	top.popBlock()
	if n := len(mod.Stmts); n == 0 {
		top.w.Emit(bytecode.LoadNone)
	} else if _, ok := mod.Stmts[n-1].(*ast.ExprStmt); !ok {
		top.w.Emit(bytecode.LoadNone)
	}
	top.w.Emit(bytecode.Ret)

	res := &Result{Body: top.build(), ModuleVars: top.moduleVarNames}
	if !c.errs.Empty() {
		return res, &c.errs
	}
	return res, nil
}

type compiler struct {
	errs diag.ErrorList
}

func (c *compiler) errorf(sp diag.Span, format string, args ...any) {
	c.errs.Add(diag.NewEmit(sp, fmt.Sprintf(format, args...)))
}

// funcCtx tracks everything specific to the function currently being
// compiled: its instruction writer, register allocator, constant pool,
// block/name resolution stack, and loop-patch bookkeeping. Nested function
// literals and methods get their own funcCtx chained via parent, which
// upvalue resolution walks.
type funcCtx struct {
	parent *funcCtx
	name   string

	w       bytecode.Writer
	nextReg int
	maxReg  int
	// captured marks a register as having been aliased by an open upvalue
	// cell; such registers are never handed back out by the allocator, so
	// two closures created at different points never silently alias the
	// same slot once one of them has captured it.
	captured map[int]bool
	// permanent marks a register as backing a named variable, live for
	// the rest of the function; see declareLocal.
	permanent map[int]bool

	consts   []bytecode.Const
	intIdx   map[int64]int
	floatIdx map[float64]int
	strIdx   map[string]int
	spans    []bytecode.SpanMark

	blocks []*blockCtx

	isModuleScope  bool
	moduleVars     map[string]int
	moduleVarNames []string

	hasSelf     bool
	isGenerator bool

	upvalues   []bytecode.Upvalue
	upvalueIdx map[string]int

	loops []*loopCtx
}

type blockCtx struct {
	vars    map[string]int
	baseReg int
}

type loopCtx struct {
	headerPC int
	breaks   []int // pc of each break's Jump instruction, patched once the loop end is known
}

func newFuncCtx(parent *funcCtx, name string) *funcCtx {
	return &funcCtx{
		parent:     parent,
		name:       name,
		captured:   map[int]bool{},
		permanent:  map[int]bool{},
		intIdx:     map[int64]int{},
		floatIdx:   map[float64]int{},
		strIdx:     map[string]int{},
		moduleVars: map[string]int{},
		upvalueIdx: map[string]int{},
	}
}

func (f *funcCtx) build() *bytecode.Function {
	return &bytecode.Function{
		Name:      f.name,
		NumRegs:   f.maxReg,
		Upvalues:  f.upvalues,
		Code:      f.w.Code,
		Consts:    f.consts,
		Spans:     f.spans,
		ModuleVar: -1,
	}
}

// ---- register allocation ----

func (f *funcCtx) alloc() int {
	r := f.nextReg
	f.nextReg++
	if f.nextReg > f.maxReg {
		f.maxReg = f.nextReg
	}
	return r
}

// free returns a register to the pool, unless it has been captured by a
// closure or backs a named variable, in which case it must never be
// reused.
func (f *funcCtx) free(r int) {
	if f.captured[r] || f.permanent[r] {
		return
	}
	if r == f.nextReg-1 {
		f.nextReg--
	}
}

func (f *funcCtx) pushBlock() {
	f.blocks = append(f.blocks, &blockCtx{vars: map[string]int{}, baseReg: f.nextReg})
}

// popBlock discards the innermost block's temporaries, reclaiming its
// register range for reuse unless any register in it has since been
// captured by a closure or holds a named variable (permanent registers are
// never reclaimed: if/while/for/loop bodies don't introduce a new variable
// scope, matching the language's function-scoped `var`).
func (f *funcCtx) popBlock() {
	b := f.blocks[len(f.blocks)-1]
	f.blocks = f.blocks[:len(f.blocks)-1]
	if !anyUnreclaimableFrom(f, b.baseReg) {
		f.nextReg = b.baseReg
	}
}

func anyUnreclaimableFrom(f *funcCtx, base int) bool {
	for r := base; r < f.nextReg; r++ {
		if f.captured[r] || f.permanent[r] {
			return true
		}
	}
	return false
}

// declareLocal binds name to a fresh register for the rest of the
// enclosing function, regardless of how deeply the declaration is nested
// inside if/while/for/loop bodies (those don't introduce their own
// variable scope). A second declareLocal for the same name later in the
// function simply rebinds it to a new register from that point on.
func (f *funcCtx) declareLocal(name string) int {
	r := f.alloc()
	f.permanent[r] = true
	f.blocks[0].vars[name] = r
	return r
}

// lookupLocal finds name among this function's declared variables (all
// live in blocks[0]; see declareLocal).
func (f *funcCtx) lookupLocal(name string) (int, bool) {
	r, ok := f.blocks[0].vars[name]
	return r, ok
}

func (f *funcCtx) declareModuleVar(name string) int {
	if idx, ok := f.moduleVars[name]; ok {
		return idx
	}
	idx := len(f.moduleVarNames)
	f.moduleVars[name] = idx
	f.moduleVarNames = append(f.moduleVarNames, name)
	return idx
}

// resolveUpvalue finds name in an enclosing function, adding (and
// memoizing) an upvalue chain entry in every function between f and the
// defining scope. Returns false if name isn't a local anywhere up the
// chain (the caller then falls back to module-var/global resolution).
func (f *funcCtx) resolveUpvalue(name string) (int, bool) {
	if idx, ok := f.upvalueIdx[name]; ok {
		return idx, true
	}
	if f.parent == nil {
		return 0, false
	}
	if reg, ok := f.parent.lookupLocal(name); ok {
		f.parent.captured[reg] = true
		idx := len(f.upvalues)
		f.upvalues = append(f.upvalues, bytecode.Upvalue{FromParentReg: true, Index: reg})
		f.upvalueIdx[name] = idx
		return idx, true
	}
	if pidx, ok := f.parent.resolveUpvalue(name); ok {
		idx := len(f.upvalues)
		f.upvalues = append(f.upvalues, bytecode.Upvalue{FromParentReg: false, Index: pidx})
		f.upvalueIdx[name] = idx
		return idx, true
	}
	return 0, false
}

// rootModuleScope walks to the outermost (module) funcCtx, where module
// variables live regardless of how deeply nested the current function is.
func (f *funcCtx) rootModuleScope() *funcCtx {
	r := f
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// ---- constant pool ----

func (f *funcCtx) constInt(v int64) int {
	if i, ok := f.intIdx[v]; ok {
		return i
	}
	i := len(f.consts)
	f.consts = append(f.consts, bytecode.Const{Kind: bytecode.ConstInt, Int: v})
	f.intIdx[v] = i
	return i
}

func (f *funcCtx) constFloat(v float64) int {
	if i, ok := f.floatIdx[v]; ok {
		return i
	}
	i := len(f.consts)
	f.consts = append(f.consts, bytecode.Const{Kind: bytecode.ConstFloat, Float: v})
	f.floatIdx[v] = i
	return i
}

func (f *funcCtx) constStr(v string) int {
	if i, ok := f.strIdx[v]; ok {
		return i
	}
	i := len(f.consts)
	f.consts = append(f.consts, bytecode.Const{Kind: bytecode.ConstString, Str: v})
	f.strIdx[v] = i
	return i
}

func (f *funcCtx) constFunc(fn *bytecode.Function) int {
	i := len(f.consts)
	f.consts = append(f.consts, bytecode.Const{Kind: bytecode.ConstFunc, Func: fn})
	return i
}

func (f *funcCtx) constClass(cd *bytecode.ClassDesc) int {
	i := len(f.consts)
	f.consts = append(f.consts, bytecode.Const{Kind: bytecode.ConstClass, Class: cd})
	return i
}

// ---- jump patching ----
//
// Jump/JumpIfFalse/JumpBack operands are the unsigned distance between the
// jump instruction's own start PC and its target, direction implied by the
// opcode. That means a forward jump's operand isn't known until its target
// is reached, but its start PC is known the instant it's emitted — so
// emitForwardJump reserves a fixed-width (Wide32) placeholder and
// patchForwardJump fills in the real, almost always much smaller, distance
// once the target PC is reached.

// placeholderOffset forces Writer.Emit to choose the Wide32 encoding so the
// later patch, which doesn't change the instruction's length, always fits.
const placeholderOffset = 1 << 17

// emitForwardJump emits op (Jump or JumpIfFalse) with a placeholder operand
// and returns the instruction's start PC, to pass to patchForwardJump once
// the target is reached.
func (f *funcCtx) emitForwardJump(op bytecode.Op) int {
	return f.w.Emit(op, placeholderOffset)
}

// patchForwardJump fills in startPC's real jump distance now that control
// flow has reached its target (the current end of the code stream).
func (f *funcCtx) patchForwardJump(startPC int) {
	f.w.PatchOperand(startPC, len(f.w.Code)-startPC)
}

// emitJumpBack emits a JumpBack to the given (already-reached) header PC.
func (f *funcCtx) emitJumpBack(headerPC int) {
	startPC := len(f.w.Code)
	f.w.Emit(bytecode.JumpBack, startPC-headerPC)
}

// markSpan records sp as responsible for whatever instruction is emitted
// next, for stack traces.
func (f *funcCtx) markSpan(sp diag.Span) {
	f.spans = append(f.spans, bytecode.SpanMark{PC: len(f.w.Code), Sp: sp})
}
