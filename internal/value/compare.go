package value

import "strings"

// Equal implements ==/!= . none only equals none; numbers compare across
// int/float with the usual promotion; strings compare by content;
// everything else compares by object identity.
func Equal(a, b Value) bool {
	if a.kind == KindNone || b.kind == KindNone {
		return a.kind == KindNone && b.kind == KindNone
	}
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.AsInt() == b.AsInt()
		}
		return a.AsFloat64() == b.AsFloat64()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindObject:
		ao, bo := a.AsObject(), b.AsObject()
		if ao == bo {
			return true
		}
		if ao == nil || bo == nil {
			return false
		}
		if ao.Kind == ObjStr && bo.Kind == ObjStr {
			return ao.Str == bo.Str
		}
		return false
	}
	return false
}

// Ordering is the result of Compare: total order within the comparable
// domains the specification defines (int/float, string, bool).
type Ordering int

const (
	Less Ordering = -1
	Eq   Ordering = 0
	Greater Ordering = 1
)

// Compare implements the four ordering comparisons. The bool return
// reports whether a and b are from a comparable domain at all;
// heterogeneous ordering is a runtime type error at the VM layer, not here.
func Compare(a, b Value) (Ordering, bool) {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsFloat64(), b.AsFloat64()
		switch {
		case x < y:
			return Less, true
		case x > y:
			return Greater, true
		default:
			return Eq, true
		}
	}
	if a.kind == KindBool && b.kind == KindBool {
		x, y := b2i(a.AsBool()), b2i(b.AsBool())
		return cmpInt(x, y), true
	}
	if a.IsObject() && b.IsObject() && a.AsObject() != nil && b.AsObject() != nil {
		ao, bo := a.AsObject(), b.AsObject()
		if ao.Kind == ObjStr && bo.Kind == ObjStr {
			return cmpInt(int64(strings.Compare(ao.Str, bo.Str)), 0), true
		}
	}
	return Eq, false
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func cmpInt(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Eq
	}
}
