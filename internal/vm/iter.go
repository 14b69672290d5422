package vm

import (
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// iterInit implements the IterInit opcode: build the iterator state object a
// for-in loop's IterNext instructions will drive. Per the emitted protocol
// (see internal/emit's emitForStmt), IterNext yields none to signal
// exhaustion, so this is a value-level iteration protocol rather than a
// distinct "has next" query.
func (t *Thread) iterInit(v value.Value) (value.Value, error) {
	it, err := t.makeIterator(v)
	if err != nil {
		return value.Value{}, err
	}
	return value.Obj(value.IterObj(it)), nil
}

func (t *Thread) makeIterator(v value.Value) (value.Iterator, error) {
	if !v.IsObject() || v.AsObject() == nil {
		return nil, diag.NewType(diag.Span{}, "value of type "+v.TypeName()+" is not iterable")
	}
	o := v.AsObject()
	switch o.Kind {
	case value.ObjRange:
		return &rangeIter{cur: o.Range.Lo, hi: o.Range.Hi, inclusive: o.Range.Inclusive}, nil
	case value.ObjList:
		return &sliceIter{vs: o.List}, nil
	case value.ObjTuple:
		return &sliceIter{vs: o.Tuple}, nil
	case value.ObjStr:
		runes := []rune(o.Str)
		vs := make([]value.Value, len(runes))
		for i, r := range runes {
			vs[i] = value.Obj(value.Str(string(r)))
		}
		return &sliceIter{vs: vs}, nil
	case value.ObjDict:
		return &sliceIter{vs: append([]value.Value(nil), o.Dict.Keys()...)}, nil
	case value.ObjIter:
		return o.Iter, nil
	case value.ObjClass:
		if m, owner, ok := o.Class.Def.Method("iter"); ok {
			iterVal, err := t.Call(bindMethod(m, v, owner), nil, nil)
			if err != nil {
				return nil, err
			}
			return t.makeIterator(iterVal)
		}
		if m, owner, ok := o.Class.Def.Method("next"); ok {
			return &methodIter{t: t, recv: v, method: m, owner: owner}, nil
		}
		return nil, diag.NewType(diag.Span{}, "instance of "+o.Class.Def.Name()+" is not iterable")
	default:
		return nil, diag.NewType(diag.Span{}, "value of type "+v.TypeName()+" is not iterable")
	}
}

// iterNext implements the IterNext opcode: advance state and return its
// next value, or none at exhaustion.
func (t *Thread) iterNext(state value.Value) (value.Value, error) {
	o := state.AsObject()
	v, ok, err := o.Iter.Next()
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.None(), nil
	}
	return v, nil
}

// rangeIter counts across a Range without mutating the Range value itself,
// so the same range literal can be iterated more than once.
type rangeIter struct {
	cur, hi   int64
	inclusive bool
}

func (r *rangeIter) Next() (value.Value, bool, error) {
	if r.inclusive {
		if r.cur > r.hi {
			return value.Value{}, false, nil
		}
	} else if r.cur >= r.hi {
		return value.Value{}, false, nil
	}
	v := value.Int(r.cur)
	r.cur++
	return v, true, nil
}

// sliceIter walks a fixed snapshot of values — used for list/tuple/string/
// dict-keys iteration, all of which hand out a pre-materialized sequence.
type sliceIter struct {
	vs []value.Value
	i  int
}

func (s *sliceIter) Next() (value.Value, bool, error) {
	if s.i >= len(s.vs) {
		return value.Value{}, false, nil
	}
	v := s.vs[s.i]
	s.i++
	return v, true, nil
}

// methodIter adapts a user value's next() method to the iterator protocol:
// each Next call re-enters the VM, treating a returned none as exhaustion.
type methodIter struct {
	t      *Thread
	recv   value.Value
	method value.Value
	owner  *value.ClassDesc
}

func (m *methodIter) Next() (value.Value, bool, error) {
	v, err := m.t.Call(bindMethod(m.method, m.recv, m.owner), nil, nil)
	if err != nil {
		return value.Value{}, false, err
	}
	if v.IsNone() {
		return value.Value{}, false, nil
	}
	return v, true, nil
}
