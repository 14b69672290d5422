package vm

import (
	"math"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/value"
)

// binaryArith implements Add/Sub/Mul/Div/Rem/Pow per the specification's
// §4.5 numeric promotion rule: int op int stays int, including Div, except
// that Div by a zero int promotes both sides to float and follows IEEE 754
// (infinity/NaN) rather than raising; any other int/float mix promotes to
// float. A class instance on the left gets one chance at a matching
// __meta_*__ method before this falls back to a type error, per the
// specification's operator-overload hook.
func (t *Thread) binaryArith(fr *frame, op bytecode.Op, lhs, rhs value.Value) (value.Value, error) {
	if lhs.IsObject() && lhs.AsObject() != nil && lhs.AsObject().Kind == value.ObjClass {
		if v, ok, err := t.tryMetaArith(fr, op, lhs, rhs); ok || err != nil {
			return v, err
		}
	}
	if !lhs.IsNumber() || !rhs.IsNumber() {
		return value.Value{}, fr.runtimeErr("unsupported operand types for %s: %s and %s", arithName(op), lhs.TypeName(), rhs.TypeName())
	}

	if lhs.IsInt() && rhs.IsInt() && !(op == bytecode.Pow && rhs.AsInt() < 0) {
		a, b := lhs.AsInt(), rhs.AsInt()
		switch op {
		case bytecode.Add:
			return value.Int(a + b), nil
		case bytecode.Sub:
			return value.Int(a - b), nil
		case bytecode.Mul:
			return value.Int(a * b), nil
		case bytecode.Div:
			if b == 0 {
				return value.Float(lhs.AsFloat64() / rhs.AsFloat64()), nil
			}
			return value.Int(a / b), nil
		case bytecode.Rem:
			if b == 0 {
				return value.Value{}, fr.runtimeErr("integer modulo by zero")
			}
			return value.Int(a % b), nil
		case bytecode.Pow:
			return value.Int(ipow(a, b)), nil
		}
	}

	a, b := lhs.AsFloat64(), rhs.AsFloat64()
	switch op {
	case bytecode.Add:
		return value.Float(a + b), nil
	case bytecode.Sub:
		return value.Float(a - b), nil
	case bytecode.Mul:
		return value.Float(a * b), nil
	case bytecode.Div:
		return value.Float(a / b), nil
	case bytecode.Rem:
		return value.Float(math.Mod(a, b)), nil
	case bytecode.Pow:
		return value.Float(math.Pow(a, b)), nil
	default:
		return value.Value{}, fr.runtimeErr("unhandled arithmetic opcode %s", op)
	}
}

func ipow(base, exp int64) int64 {
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func arithName(op bytecode.Op) string {
	switch op {
	case bytecode.Add:
		return "+"
	case bytecode.Sub:
		return "-"
	case bytecode.Mul:
		return "*"
	case bytecode.Div:
		return "/"
	case bytecode.Rem:
		return "%"
	case bytecode.Pow:
		return "**"
	default:
		return "?"
	}
}

// metaName maps a binary opcode to the overload method a class can define,
// following the specification's __meta_<op>__ naming convention.
func metaName(op bytecode.Op) string {
	switch op {
	case bytecode.Add:
		return "__meta_add__"
	case bytecode.Sub:
		return "__meta_sub__"
	case bytecode.Mul:
		return "__meta_mul__"
	case bytecode.Div:
		return "__meta_div__"
	case bytecode.Rem:
		return "__meta_rem__"
	case bytecode.Pow:
		return "__meta_pow__"
	default:
		return ""
	}
}

func (t *Thread) tryMetaArith(fr *frame, op bytecode.Op, lhs, rhs value.Value) (value.Value, bool, error) {
	name := metaName(op)
	if name == "" {
		return value.Value{}, false, nil
	}
	inst := lhs.AsObject().Class
	m, owner, ok := inst.Def.Method(name)
	if !ok {
		return value.Value{}, false, nil
	}
	v, err := t.Call(bindMethod(m, lhs, owner), []value.Value{rhs}, nil)
	return v, true, err
}

// negate implements unary `-`, per the same int-stays-int/float-promotes
// rule as binaryArith.
func (t *Thread) negate(fr *frame, v value.Value) (value.Value, error) {
	switch {
	case v.IsInt():
		return value.Int(-v.AsInt()), nil
	case v.IsFloat():
		return value.Float(-v.AsFloat()), nil
	default:
		return value.Value{}, fr.runtimeErr("unsupported operand type for -: %s", v.TypeName())
	}
}
