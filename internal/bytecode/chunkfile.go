package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/hebi-lang/hebi/internal/diag"
)

// ChunkFormatVersion is bumped whenever the wire shape below changes. The
// specification explicitly does not promise binary stability across
// versions (§1 Non-goals), so readers must reject a version they don't
// recognize rather than attempt to interpret it.
const ChunkFormatVersion = 1

// wireConst/wireFunction/wireClass mirror Const/Function/ClassDesc but with
// cbor tags and resolved cross-references flattened into indices, since the
// in-memory graph uses pointers that CBOR can't round-trip directly.
type wireConst struct {
	Kind   ConstKind `cbor:"kind"`
	Int    int64     `cbor:"int,omitempty"`
	Float  float64   `cbor:"float,omitempty"`
	Str    string    `cbor:"str,omitempty"`
	FnIdx  int       `cbor:"fn_idx,omitempty"`  // valid when Kind == ConstFunc
	ClsIdx int       `cbor:"cls_idx,omitempty"` // valid when Kind == ConstClass
}

type wireUpvalue struct {
	FromParentReg bool `cbor:"from_parent_reg"`
	Index         int  `cbor:"index"`
}

type wireParams struct {
	Positional            []string         `cbor:"positional"`
	PositionalDefaults    []wireConst      `cbor:"positional_defaults"`
	HasVariadicPositional bool             `cbor:"has_variadic_positional"`
	VariadicPositional    string           `cbor:"variadic_positional,omitempty"`
	Keyword               []string         `cbor:"keyword"`
	KeywordDefaults       map[string]wireConst `cbor:"keyword_defaults"`
	HasVariadicKw         bool             `cbor:"has_variadic_kw"`
	VariadicKw            string           `cbor:"variadic_kw,omitempty"`
	HasSelf               bool             `cbor:"has_self"`
}

type wireSpanMark struct {
	PC    int `cbor:"pc"`
	Start int `cbor:"start"`
	End   int `cbor:"end"`
}

type wireFunction struct {
	Name        string         `cbor:"name"`
	Params      wireParams     `cbor:"params"`
	NumRegs     int            `cbor:"num_regs"`
	Upvalues    []wireUpvalue  `cbor:"upvalues"`
	Code        []byte         `cbor:"code"`
	Consts      []wireConst    `cbor:"consts"`
	Spans       []wireSpanMark `cbor:"spans"`
	ModuleVar   int            `cbor:"module_var"`
	IsGenerator bool           `cbor:"is_generator,omitempty"`
}

type wireClass struct {
	Name        string   `cbor:"name"`
	IsDerived   bool     `cbor:"is_derived"`
	MethodNames []string `cbor:"method_names"`
	FieldNames  []string `cbor:"field_names"`
}

// ChunkFile is the on-disk/wire representation of a compiled Function,
// flattening the function/class const-pool graph into parallel tables so it
// round-trips through CBOR without pointer cycles.
type ChunkFile struct {
	Version    int            `cbor:"version"`
	Entry      int            `cbor:"entry"` // index into Functions naming the top-level chunk
	Functions  []wireFunction `cbor:"functions"`
	Classes    []wireClass    `cbor:"classes"`
	ModuleVars []string       `cbor:"module_vars"` // entry function's module-variable slot table, in slot order
}

// EncodeChunk serializes fn (and everything it transitively references via
// its constant pool) into a CBOR ChunkFile. moduleVars is the top-level
// module-variable slot table (emit.Result.ModuleVars) fn's StoreModuleVar/
// LoadModuleVar instructions index into — without it a decoded chunk would
// have no way to size the Module a later Run allocates for fn.
func EncodeChunk(fn *Function, moduleVars []string) ([]byte, error) {
	enc := &chunkEncoder{
		fnIndex:  map[*Function]int{},
		clsIndex: map[*ClassDesc]int{},
	}
	entry := enc.addFunction(fn)
	cf := ChunkFile{
		Version:    ChunkFormatVersion,
		Entry:      entry,
		Functions:  enc.functions,
		Classes:    enc.classes,
		ModuleVars: moduleVars,
	}
	return cbor.Marshal(cf)
}

// DecodeChunk deserializes a CBOR ChunkFile back into a Function graph plus
// its module-variable slot table.
func DecodeChunk(data []byte) (*Function, []string, error) {
	var cf ChunkFile
	if err := cbor.Unmarshal(data, &cf); err != nil {
		return nil, nil, fmt.Errorf("bytecode: decode chunk: %w", err)
	}
	if cf.Version != ChunkFormatVersion {
		return nil, nil, fmt.Errorf("bytecode: unsupported chunk format version %d (expected %d)", cf.Version, ChunkFormatVersion)
	}
	dec := &chunkDecoder{cf: &cf}
	return dec.function(cf.Entry), cf.ModuleVars, nil
}

type chunkEncoder struct {
	fnIndex   map[*Function]int
	clsIndex  map[*ClassDesc]int
	functions []wireFunction
	classes   []wireClass
}

func (e *chunkEncoder) addFunction(fn *Function) int {
	if i, ok := e.fnIndex[fn]; ok {
		return i
	}
	idx := len(e.functions)
	e.functions = append(e.functions, wireFunction{}) // reserve slot for cycles
	e.fnIndex[fn] = idx

	wf := wireFunction{
		Name:        fn.Name,
		NumRegs:     fn.NumRegs,
		Code:        fn.Code,
		ModuleVar:   fn.ModuleVar,
		IsGenerator: fn.IsGenerator,
		Params: wireParams{
			Positional:            fn.Params.Positional,
			HasVariadicPositional: fn.Params.HasVariadicPositional,
			VariadicPositional:    fn.Params.VariadicPositional,
			Keyword:               fn.Params.Keyword,
			HasVariadicKw:         fn.Params.HasVariadicKw,
			VariadicKw:            fn.Params.VariadicKw,
			HasSelf:               fn.Params.HasSelf,
			KeywordDefaults:       map[string]wireConst{},
		},
	}
	for _, c := range fn.Params.PositionalDefaults {
		wf.Params.PositionalDefaults = append(wf.Params.PositionalDefaults, e.constant(c))
	}
	for k, c := range fn.Params.KeywordDefaults {
		wf.Params.KeywordDefaults[k] = e.constant(c)
	}
	for _, u := range fn.Upvalues {
		wf.Upvalues = append(wf.Upvalues, wireUpvalue{FromParentReg: u.FromParentReg, Index: u.Index})
	}
	for _, c := range fn.Consts {
		wf.Consts = append(wf.Consts, e.constant(c))
	}
	for _, m := range fn.Spans {
		wf.Spans = append(wf.Spans, wireSpanMark{PC: m.PC, Start: m.Sp.Start, End: m.Sp.End})
	}
	e.functions[idx] = wf
	return idx
}

func (e *chunkEncoder) addClass(cd *ClassDesc) int {
	if i, ok := e.clsIndex[cd]; ok {
		return i
	}
	idx := len(e.classes)
	e.classes = append(e.classes, wireClass{})
	e.clsIndex[cd] = idx

	e.classes[idx] = wireClass{
		Name:        cd.Name,
		IsDerived:   cd.IsDerived,
		MethodNames: cd.MethodNames,
		FieldNames:  cd.FieldNames,
	}
	return idx
}

func (e *chunkEncoder) constant(c Const) wireConst {
	wc := wireConst{Kind: c.Kind, Int: c.Int, Float: c.Float, Str: c.Str}
	switch c.Kind {
	case ConstFunc:
		wc.FnIdx = e.addFunction(c.Func)
	case ConstClass:
		wc.ClsIdx = e.addClass(c.Class)
	}
	return wc
}

type chunkDecoder struct {
	cf        *ChunkFile
	functions map[int]*Function
	classes   map[int]*ClassDesc
}

func (d *chunkDecoder) function(idx int) *Function {
	if d.functions == nil {
		d.functions = map[int]*Function{}
	}
	if fn, ok := d.functions[idx]; ok {
		return fn
	}
	wf := d.cf.Functions[idx]
	fn := &Function{Name: wf.Name, NumRegs: wf.NumRegs, Code: wf.Code, ModuleVar: wf.ModuleVar, IsGenerator: wf.IsGenerator}
	d.functions[idx] = fn // reserve before recursing, breaks cycles
	fn.Params = Params{
		Positional:            wf.Params.Positional,
		HasVariadicPositional: wf.Params.HasVariadicPositional,
		VariadicPositional:    wf.Params.VariadicPositional,
		Keyword:               wf.Params.Keyword,
		HasVariadicKw:         wf.Params.HasVariadicKw,
		VariadicKw:            wf.Params.VariadicKw,
		HasSelf:               wf.Params.HasSelf,
	}
	for _, c := range wf.Params.PositionalDefaults {
		fn.Params.PositionalDefaults = append(fn.Params.PositionalDefaults, d.constant(c))
	}
	for k, c := range wf.Params.KeywordDefaults {
		if fn.Params.KeywordDefaults == nil {
			fn.Params.KeywordDefaults = map[string]Const{}
		}
		fn.Params.KeywordDefaults[k] = d.constant(c)
	}
	for _, u := range wf.Upvalues {
		fn.Upvalues = append(fn.Upvalues, Upvalue{FromParentReg: u.FromParentReg, Index: u.Index})
	}
	for _, c := range wf.Consts {
		fn.Consts = append(fn.Consts, d.constant(c))
	}
	for _, m := range wf.Spans {
		fn.Spans = append(fn.Spans, SpanMark{PC: m.PC, Sp: diag.Span{Start: m.Start, End: m.End}})
	}
	return fn
}

func (d *chunkDecoder) class(idx int) *ClassDesc {
	if d.classes == nil {
		d.classes = map[int]*ClassDesc{}
	}
	if cd, ok := d.classes[idx]; ok {
		return cd
	}
	wc := d.cf.Classes[idx]
	cd := &ClassDesc{Name: wc.Name, IsDerived: wc.IsDerived, MethodNames: wc.MethodNames, FieldNames: wc.FieldNames}
	d.classes[idx] = cd
	return cd
}

func (d *chunkDecoder) constant(c wireConst) Const {
	out := Const{Kind: c.Kind, Int: c.Int, Float: c.Float, Str: c.Str}
	switch c.Kind {
	case ConstFunc:
		out.Func = d.function(c.FnIdx)
	case ConstClass:
		out.Class = d.class(c.ClsIdx)
	}
	return out
}
