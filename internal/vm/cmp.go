package vm

import (
	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/value"
)

// equal implements ==/!= , with a __meta_eq__ hook for class instances
// before falling back to value.Equal's identity-based default.
func (t *Thread) equal(fr *frame, a, b value.Value) (bool, error) {
	if a.IsObject() && a.AsObject() != nil && a.AsObject().Kind == value.ObjClass {
		if inst := a.AsObject().Class; inst != nil {
			if m, owner, ok := inst.Def.Method("__meta_eq__"); ok {
				v, err := t.Call(bindMethod(m, a, owner), []value.Value{b}, nil)
				if err != nil {
					return false, err
				}
				return v.Truthy(), nil
			}
		}
	}
	return value.Equal(a, b), nil
}

// compare implements the four ordering comparisons, with a __meta_cmp__
// hook (expected to return a negative/zero/positive int) for class
// instances before falling back to value.Compare's comparable domains.
func (t *Thread) compare(fr *frame, op bytecode.Op, a, b value.Value) (bool, error) {
	if a.IsObject() && a.AsObject() != nil && a.AsObject().Kind == value.ObjClass {
		if inst := a.AsObject().Class; inst != nil {
			if m, owner, ok := inst.Def.Method("__meta_cmp__"); ok {
				v, err := t.Call(bindMethod(m, a, owner), []value.Value{b}, nil)
				if err != nil {
					return false, err
				}
				if !v.IsInt() {
					return false, fr.runtimeErr("__meta_cmp__ must return an int")
				}
				return cmpOpMatches(op, ordOf(v.AsInt())), nil
			}
		}
	}
	ord, ok := value.Compare(a, b)
	if !ok {
		return false, fr.runtimeErr("unsupported comparison between %s and %s", a.TypeName(), b.TypeName())
	}
	return cmpOpMatches(op, ord), nil
}

func ordOf(n int64) value.Ordering {
	switch {
	case n < 0:
		return value.Less
	case n > 0:
		return value.Greater
	default:
		return value.Eq
	}
}

func cmpOpMatches(op bytecode.Op, ord value.Ordering) bool {
	switch op {
	case bytecode.CmpGt:
		return ord == value.Greater
	case bytecode.CmpGe:
		return ord == value.Greater || ord == value.Eq
	case bytecode.CmpLt:
		return ord == value.Less
	case bytecode.CmpLe:
		return ord == value.Less || ord == value.Eq
	default:
		return false
	}
}

// cmpType implements the `is` class-membership test: v is an instance
// whose class equals or descends from the class on the right.
func (t *Thread) cmpType(fr *frame, v, classVal value.Value) (bool, error) {
	if !classVal.IsObject() || classVal.AsObject() == nil || classVal.AsObject().Kind != value.ObjClassDef {
		return false, fr.runtimeErr("right-hand side of `is` must be a class")
	}
	want := classVal.AsObject().ClassDef
	if !v.IsObject() || v.AsObject() == nil || v.AsObject().Kind != value.ObjClass {
		return false, nil
	}
	return v.AsObject().Class.Def.IsSubclassOf(want), nil
}

// contains implements the `in` operator over list/tuple/dict/range/string,
// with a __meta_contains__ hook for class instances.
func (t *Thread) contains(fr *frame, needle, haystack value.Value) (bool, error) {
	if !haystack.IsObject() || haystack.AsObject() == nil {
		return false, fr.runtimeErr("argument of type %s is not iterable", haystack.TypeName())
	}
	o := haystack.AsObject()
	switch o.Kind {
	case value.ObjList:
		for _, v := range o.List {
			if value.Equal(v, needle) {
				return true, nil
			}
		}
		return false, nil
	case value.ObjTuple:
		for _, v := range o.Tuple {
			if value.Equal(v, needle) {
				return true, nil
			}
		}
		return false, nil
	case value.ObjDict:
		_, ok := o.Dict.Get(needle)
		return ok, nil
	case value.ObjRange:
		if !needle.IsInt() {
			return false, nil
		}
		n := needle.AsInt()
		if n < o.Range.Lo {
			return false, nil
		}
		if o.Range.Inclusive {
			return n <= o.Range.Hi, nil
		}
		return n < o.Range.Hi, nil
	case value.ObjStr:
		if !needle.IsObject() || needle.AsObject() == nil || needle.AsObject().Kind != value.ObjStr {
			return false, fr.runtimeErr("'in <str>' requires a str as the left operand")
		}
		return containsSubstring(o.Str, needle.AsObject().Str), nil
	case value.ObjClass:
		if m, owner, ok := o.Class.Def.Method("__meta_contains__"); ok {
			v, err := t.Call(bindMethod(m, haystack, owner), []value.Value{needle}, nil)
			if err != nil {
				return false, err
			}
			return v.Truthy(), nil
		}
		return false, fr.runtimeErr("instance of %s does not support `in`", o.Class.Def.Name())
	default:
		return false, fr.runtimeErr("argument of type %s is not iterable", haystack.TypeName())
	}
}

func containsSubstring(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
