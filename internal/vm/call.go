package vm

import (
	"fmt"
	"sort"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// dispatchCall decodes a Call r,n instruction's register window and invokes
// the callee, per the specification's §4.6 calling convention. The high bit
// of n (bytecode.CallKwFlag) marks the final window slot as a keyword dict
// rather than a positional argument (see internal/emit's emitCall).
func (t *Thread) dispatchCall(fr *frame, calleeReg, n int) (value.Value, error) {
	callee := fr.regs[calleeReg]
	base := calleeReg + 1

	posN := n
	var kw *value.Dict
	if n&bytecode.CallKwFlag != 0 {
		posN = (n &^ bytecode.CallKwFlag) - 1
		kwVal := fr.regs[base+posN]
		if kwVal.IsObject() && kwVal.AsObject() != nil && kwVal.AsObject().Kind == value.ObjDict {
			kw = kwVal.AsObject().Dict
		}
	}
	args := fr.regs[base : base+posN]
	return t.Call(callee, args, kw)
}

// Call is the generic "invoke any callable value" entry point: the Call
// opcode, the iteration protocol's next()-method fallback, and the
// embedding API's Scope.call all funnel through this.
func (t *Thread) Call(callee value.Value, args []value.Value, kw *value.Dict) (value.Value, error) {
	if !callee.IsObject() || callee.AsObject() == nil {
		return value.Value{}, diag.NewType(diag.Span{}, fmt.Sprintf("value of type %s is not callable", callee.TypeName()))
	}
	o := callee.AsObject()
	switch o.Kind {
	case value.ObjClosure:
		return t.callFunc(o.Closure.Fn, o.Closure, o.Closure.Module, value.None(), false, nil, args, kw)
	case value.ObjFunc:
		return t.callFunc(o.Func, nil, nil, value.None(), false, nil, args, kw)
	case value.ObjMethod:
		m := o.Method
		if m.Native != nil {
			return t.callNativeAs(m.Native, m.Receiver, args, kw)
		}
		fn := m.Func
		var clos *value.Closure
		var mod *value.Module
		if m.Closure != nil {
			fn = m.Closure.Fn
			clos = m.Closure
			mod = m.Closure.Module
		}
		return t.callFunc(fn, clos, mod, m.Receiver, true, m.DefiningClass, args, kw)
	case value.ObjClassDef:
		return t.instantiate(o.ClassDef, args, kw)
	case value.ObjNativeFunc:
		return t.callNative(o.Native, args, kw)
	case value.ObjNativeClass:
		return t.instantiateNative(o.NativeClass, args, kw)
	default:
		return value.Value{}, diag.NewType(diag.Span{}, fmt.Sprintf("value of type %s is not callable", callee.TypeName()))
	}
}

// callFunc binds args/kw to fn's parameter shape and either runs the body
// immediately (ordinary function) or, if fn is a generator, builds the
// frame without running it and hands back a suspended generator value.
func (t *Thread) callFunc(fn *bytecode.Function, clos *value.Closure, mod *value.Module, self value.Value, selfBound bool, defining *value.ClassDesc, args []value.Value, kw *value.Dict) (value.Value, error) {
	if fn.Params.HasSelf && !selfBound {
		if len(args) == 0 {
			return value.Value{}, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() missing self argument", fn.Name), "", nil)
		}
		self = args[0]
		args = args[1:]
	}

	regs, err := bindArgs(fn, args, kw)
	if err != nil {
		return value.Value{}, err
	}

	fr := &frame{fn: fn, closure: clos, module: mod, self: self, definingClass: defining, regs: regs}

	if fn.IsGenerator {
		return value.Obj(value.IterObj(newGenerator(t, fr))), nil
	}
	return t.runFrame(fr)
}

// runFrame executes fr to completion, guarding against runaway native Go
// recursion (see MaxCallDepth).
func (t *Thread) runFrame(fr *frame) (value.Value, error) {
	t.depth++
	if t.depth > MaxCallDepth {
		t.depth--
		return value.Value{}, diag.NewType(diag.Span{}, "stack overflow")
	}
	v, err := t.run(fr)
	t.depth--
	return v, err
}

// bindArgs implements the specification's §4.6 argument-binding procedure
// against fn's static parameter shape, producing the new frame's register
// window (registers beyond the parameter count are left zero-valued
// locals/temporaries).
func bindArgs(fn *bytecode.Function, args []value.Value, kw *value.Dict) ([]value.Value, error) {
	p := fn.Params
	regs := make([]value.Value, fn.NumRegs)

	min, max := p.MinMaxPositional()
	if len(args) < min || (max >= 0 && len(args) > max) {
		return nil, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() takes %s positional argument%s but %d given", fname(fn.Name), arityDesc(min, max), plural(max), len(args)), "", nil)
	}

	nPos := len(p.Positional)
	firstDefault := nPos - len(p.PositionalDefaults)
	for i := 0; i < nPos; i++ {
		if i < len(args) {
			regs[i] = args[i]
			continue
		}
		regs[i] = constToValue(p.PositionalDefaults[i-firstDefault])
	}

	idx := nPos
	if p.HasVariadicPositional {
		var rest []value.Value
		if len(args) > nPos {
			rest = append([]value.Value(nil), args[nPos:]...)
		}
		regs[idx] = value.Obj(value.List(rest))
		idx++
	}

	remaining := map[string]value.Value{}
	if kw != nil {
		for i, k := range kw.Keys() {
			if k.IsObject() && k.AsObject() != nil && k.AsObject().Kind == value.ObjStr {
				remaining[k.AsObject().Str] = kw.Values()[i]
			}
		}
	}

	for _, name := range p.Keyword {
		if v, ok := remaining[name]; ok {
			regs[idx] = v
			delete(remaining, name)
		} else if def, ok := p.KeywordDefaults[name]; ok {
			regs[idx] = constToValue(def)
		} else {
			return nil, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() missing required keyword argument %q", fname(fn.Name), name), "", nil)
		}
		idx++
	}

	if p.HasVariadicKw {
		d := value.NewDict()
		for _, k := range sortedKeys(remaining) {
			d.Set(value.Obj(value.Str(k)), remaining[k])
		}
		regs[idx] = value.Obj(value.DictObj(d))
		idx++
	} else if len(remaining) > 0 {
		keys := sortedKeys(remaining)
		return nil, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() got an unexpected keyword argument %q", fname(fn.Name), keys[0]), "", nil)
	}

	return regs, nil
}

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fname(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func arityDesc(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("at least %d", min)
	}
	if min == max {
		return fmt.Sprintf("%d", min)
	}
	return fmt.Sprintf("%d to %d", min, max)
}

func plural(max int) string {
	if max == 1 {
		return ""
	}
	return "s"
}

// instantiate allocates a fresh instance of def, running init (if any) or
// else binding args/kw against the field list as keyword-with-default
// parameters, then freezes the instance.
func (t *Thread) instantiate(def *value.ClassDesc, args []value.Value, kw *value.Dict) (value.Value, error) {
	inst := value.NewInstance(def)
	fillFieldDefaults(inst, def)

	if initVal, owner, ok := def.Method("init"); ok {
		o := initVal.AsObject()
		var fn *bytecode.Function
		var clos *value.Closure
		var mod *value.Module
		if o.Kind == value.ObjClosure {
			fn = o.Closure.Fn
			clos = o.Closure
			mod = o.Closure.Module
		} else {
			fn = o.Func
		}
		if _, err := t.callFunc(fn, clos, mod, value.Obj(value.ClassObj(inst)), true, owner, args, kw); err != nil {
			return value.Value{}, err
		}
		inst.Freeze()
		return value.Obj(value.ClassObj(inst)), nil
	}

	if len(args) > 0 {
		return value.Value{}, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() takes 0 positional arguments but %d given", def.Name(), len(args)), "", nil)
	}
	if kw != nil {
		for i, k := range kw.Keys() {
			if !k.IsObject() || k.AsObject() == nil || k.AsObject().Kind != value.ObjStr {
				continue
			}
			name := k.AsObject().Str
			if _, ok := inst.Fields[name]; !ok {
				return value.Value{}, diag.NewLookup(diag.Span{}, fmt.Sprintf("%s() got an unexpected keyword argument %q", def.Name(), name), "", nil)
			}
			inst.Fields[name] = kw.Values()[i]
		}
	}
	inst.Freeze()
	return value.Obj(value.ClassObj(inst)), nil
}

// fillFieldDefaults walks def's parent chain root-first so a subclass's own
// field declarations take precedence over a same-named inherited default.
func fillFieldDefaults(inst *value.Class, def *value.ClassDesc) {
	if def == nil {
		return
	}
	fillFieldDefaults(inst, def.Parent)
	for i, name := range def.Template.FieldNames {
		inst.Fields[name] = def.FieldDefaults[i]
	}
}

// loadSuper builds the transient `super` proxy: the current self paired
// with the parent of the class whose body declares the currently executing
// method (fr.definingClass), not self's own (possibly more derived)
// dynamic class.
func (t *Thread) loadSuper(fr *frame) (value.Value, error) {
	if fr.definingClass == nil || fr.definingClass.Parent == nil {
		return value.Value{}, diag.NewType(fr.fn.SpanAt(fr.pc), "super used outside a method with a parent class")
	}
	return value.Obj(value.ProxyObj(&value.Proxy{Receiver: fr.self, Parent: fr.definingClass.Parent})), nil
}
