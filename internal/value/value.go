// Package value implements Hebi's tagged value representation and its
// heap object variants.
//
// The specification models heap objects as reference-counted handles with
// explicit weak edges to break cycles (bound methods are never retained,
// only constructed transiently on access). Go already provides a tracing
// collector, so object identity here is a plain pointer rather than a
// hand-rolled refcount; the structural discipline the specification asks
// for — bound-method proxies constructed on demand instead of stored, so a
// `Class -> Method -> self` cycle never exists in the first place — is kept
// regardless, since it is what makes `super` and bound-method dispatch
// correct, not just what makes refcounting collect them.
package value

import "fmt"

// Kind tags the dynamic type of a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindObject
)

// Value is Hebi's tagged value: none, bool, int, float, or an object handle.
type Value struct {
	kind Kind
	num  uint64 // bool/int bit pattern, or float64 bits
	obj  *Object
}

func None() Value                  { return Value{kind: KindNone} }
func Bool(b bool) Value            { return Value{kind: KindBool, num: b2u(b)} }
func Int(i int64) Value            { return Value{kind: KindInt, num: uint64(i)} }
func Float(f float64) Value        { return Value{kind: KindFloat, num: f2u(f)} }
func Obj(o *Object) Value          { return Value{kind: KindObject, obj: o} }

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNone() bool { return v.kind == KindNone }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) IsInt() bool  { return v.kind == KindInt }
func (v Value) IsFloat() bool {
	return v.kind == KindFloat
}
func (v Value) IsObject() bool { return v.kind == KindObject }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) AsBool() bool     { return v.num != 0 }
func (v Value) AsInt() int64     { return int64(v.num) }
func (v Value) AsFloat() float64 { return u2f(v.num) }
func (v Value) AsObject() *Object {
	return v.obj
}

// AsFloat64 coerces an int or float value to float64, for the VM's mixed
// arithmetic promotion.
func (v Value) AsFloat64() float64 {
	if v.kind == KindInt {
		return float64(int64(v.num))
	}
	return u2f(v.num)
}

// Truthy implements Hebi's truthiness rule: none and false are falsy, 0 and
// 0.0 are NOT special-cased (only none/false are falsy), everything else is
// truthy. This matches the specification's comparison section, which treats
// truthiness as orthogonal to numeric zero.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNone:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

func (v Value) TypeName() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObject:
		if v.obj == nil {
			return "none"
		}
		return v.obj.TypeName()
	}
	return "?"
}

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case KindObject:
		if v.obj == nil {
			return "none"
		}
		return v.obj.String()
	}
	return "?"
}

// Is reports identity/value equality as used by ==/!= (see Equal in
// compare.go for the full comparison semantics including cross-type rules).
func (v Value) Is(other Value) bool {
	return Equal(v, other)
}
