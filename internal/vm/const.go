package vm

import (
	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/value"
)

// constValue materializes a function's constant-pool entry into a runtime
// Value. LoadConst only ever addresses the scalar kinds (int/float/string/
// bool/none); ConstFunc/ConstClass entries are consumed directly by MakeFn/
// MakeClass instead.
func (t *Thread) constValue(fr *frame, idx int) (value.Value, error) {
	k := fr.fn.Consts[idx]
	switch k.Kind {
	case bytecode.ConstInt:
		return value.Int(k.Int), nil
	case bytecode.ConstFloat:
		return value.Float(k.Float), nil
	case bytecode.ConstString:
		return value.Obj(t.interner.Intern(k.Str)), nil
	case bytecode.ConstBool:
		return value.Bool(k.Int != 0), nil
	case bytecode.ConstNone:
		return value.None(), nil
	default:
		return value.Value{}, fr.runtimeErr("unusable constant in LoadConst")
	}
}

// constToValue converts a parameter/field default (always one of the
// scalar Const kinds; see Params docs) into a runtime Value.
func constToValue(k bytecode.Const) value.Value {
	switch k.Kind {
	case bytecode.ConstInt:
		return value.Int(k.Int)
	case bytecode.ConstFloat:
		return value.Float(k.Float)
	case bytecode.ConstString:
		return value.Obj(value.Str(k.Str))
	case bytecode.ConstBool:
		return value.Bool(k.Int != 0)
	default:
		return value.None()
	}
}
