package vm

import (
	"fmt"

	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// bindMethod wraps m (an ObjClosure/ObjFunc/ObjNativeFunc value found on a
// class descriptor's method table) into a transient bound-method proxy, per
// the specification's "never retained, only constructed transiently on
// access" discipline that keeps instance->method->self from cycling.
func bindMethod(m value.Value, recv value.Value, owner *value.ClassDesc) value.Value {
	method := &value.Method{Receiver: recv, DefiningClass: owner}
	if o := m.AsObject(); o != nil {
		switch o.Kind {
		case value.ObjClosure:
			method.Closure = o.Closure
		case value.ObjFunc:
			method.Func = o.Func
		case value.ObjNativeFunc:
			method.Native = o.Native
		}
	}
	return value.Obj(value.MethodObj(method))
}

func (t *Thread) loadField(fr *frame, recv value.Value, name string, optional bool) (value.Value, error) {
	sp := fr.fn.SpanAt(fr.pc)
	if recv.IsNone() {
		if optional {
			return value.None(), nil
		}
		return value.Value{}, diag.NewType(sp, fmt.Sprintf("cannot access field %q of none", name))
	}
	if !recv.IsObject() || recv.AsObject() == nil {
		return value.Value{}, diag.NewType(sp, fmt.Sprintf("value of type %s has no field %q", recv.TypeName(), name))
	}
	o := recv.AsObject()
	switch o.Kind {
	case value.ObjClass:
		if v, ok := o.Class.Get(name); ok {
			return v, nil
		}
		if m, owner, ok := o.Class.Def.Method(name); ok {
			return bindMethod(m, recv, owner), nil
		}
		return unresolvedField(sp, name, optional)
	case value.ObjClassDef:
		if m, owner, ok := o.ClassDef.Method(name); ok {
			return bindMethod(m, value.Value{}, owner), nil
		}
		return unresolvedField(sp, name, optional)
	case value.ObjModule:
		if idx, ok := o.Module.Names[name]; ok {
			return o.Module.Vars[idx], nil
		}
		return unresolvedField(sp, name, optional)
	case value.ObjProxy:
		p := o.Proxy
		if m, owner, ok := p.Parent.Method(name); ok {
			return bindMethod(m, p.Receiver, owner), nil
		}
		return unresolvedField(sp, name, optional)
	case value.ObjNativeClass:
		if sm, ok := o.NativeClass.StaticMethods[name]; ok {
			return value.Obj(value.NativeFuncObj(sm)), nil
		}
		return unresolvedField(sp, name, optional)
	default:
		return unresolvedField(sp, name, optional)
	}
}

func unresolvedField(sp diag.Span, name string, optional bool) (value.Value, error) {
	if optional {
		return value.None(), nil
	}
	return value.Value{}, diag.NewUnresolved(sp, fmt.Sprintf("unknown field %q", name))
}

func (t *Thread) storeField(fr *frame, recv value.Value, name string, val value.Value) error {
	sp := fr.fn.SpanAt(fr.pc)
	if !recv.IsObject() || recv.AsObject() == nil || recv.AsObject().Kind != value.ObjClass {
		return diag.NewType(sp, fmt.Sprintf("cannot set field %q on value of type %s", name, recv.TypeName()))
	}
	inst := recv.AsObject().Class
	if !inst.Set(name, val) {
		return diag.NewUnresolved(sp, fmt.Sprintf("cannot add new field %q to a frozen instance", name))
	}
	return nil
}

func (t *Thread) loadIndex(fr *frame, recv, key value.Value, optional bool) (value.Value, error) {
	sp := fr.fn.SpanAt(fr.pc)
	if recv.IsNone() && optional {
		return value.None(), nil
	}
	if !recv.IsObject() || recv.AsObject() == nil {
		return value.Value{}, diag.NewType(sp, fmt.Sprintf("value of type %s is not indexable", recv.TypeName()))
	}
	o := recv.AsObject()
	switch o.Kind {
	case value.ObjList:
		i, ok := asIndex(key, len(o.List))
		if !ok {
			return unresolvedIndex(sp, optional)
		}
		return o.List[i], nil
	case value.ObjTuple:
		i, ok := asIndex(key, len(o.Tuple))
		if !ok {
			return unresolvedIndex(sp, optional)
		}
		return o.Tuple[i], nil
	case value.ObjStr:
		runes := []rune(o.Str)
		i, ok := asIndex(key, len(runes))
		if !ok {
			return unresolvedIndex(sp, optional)
		}
		return value.Obj(value.Str(string(runes[i]))), nil
	case value.ObjDict:
		v, ok := o.Dict.Get(key)
		if !ok {
			return unresolvedIndex(sp, optional)
		}
		return v, nil
	default:
		return value.Value{}, diag.NewType(sp, fmt.Sprintf("value of type %s is not indexable", recv.TypeName()))
	}
}

func unresolvedIndex(sp diag.Span, optional bool) (value.Value, error) {
	if optional {
		return value.None(), nil
	}
	return value.Value{}, diag.NewUnresolved(sp, "index out of range")
}

// asIndex resolves key to a list/tuple/string index, supporting negative
// indices counted from the end (key == -1 is the last element).
func asIndex(key value.Value, n int) (int, bool) {
	if !key.IsInt() {
		return 0, false
	}
	i := int(key.AsInt())
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func (t *Thread) storeIndex(fr *frame, recv, key, val value.Value) error {
	sp := fr.fn.SpanAt(fr.pc)
	if !recv.IsObject() || recv.AsObject() == nil {
		return diag.NewType(sp, fmt.Sprintf("value of type %s is not indexable", recv.TypeName()))
	}
	o := recv.AsObject()
	switch o.Kind {
	case value.ObjList:
		i, ok := asIndex(key, len(o.List))
		if !ok {
			return diag.NewUnresolved(sp, "index out of range")
		}
		o.List[i] = val
		return nil
	case value.ObjDict:
		o.Dict.Set(key, val)
		return nil
	default:
		return diag.NewType(sp, fmt.Sprintf("value of type %s does not support item assignment", recv.TypeName()))
	}
}
