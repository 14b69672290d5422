package vm

import "github.com/hebi-lang/hebi/internal/value"

// scope is the concrete value.Scope implementation passed to every native
// callback invocation. It is cheap to construct (one per native call) and
// never retained past the call, matching the specification's transient
// Method/Proxy discipline for host-facing handles.
type scope struct {
	t    *Thread
	args []value.Value
	kw   *value.Dict
	self value.Value
}

func (s *scope) Param(i int) value.Value {
	if i < 0 || i >= len(s.args) {
		return value.None()
	}
	return s.args[i]
}

func (s *scope) Kwarg(name string) (value.Value, bool) {
	if s.kw == nil {
		return value.Value{}, false
	}
	return s.kw.Get(value.Obj(value.Str(name)))
}

func (s *scope) NumArgs() int { return len(s.args) }

func (s *scope) Self() value.Value { return s.self }

func (s *scope) Call(callee value.Value, args []value.Value) (value.Value, error) {
	return s.t.Call(callee, args, nil)
}

func (s *scope) Global(name string) (value.Value, bool) {
	v, ok := s.t.Globals[name]
	return v, ok
}

func (s *scope) SetGlobal(name string, v value.Value) {
	s.t.Globals[name] = v
}

func (s *scope) NewString(str string) value.Value { return value.Obj(value.Str(str)) }
func (s *scope) NewList(vs []value.Value) value.Value {
	return value.Obj(value.List(append([]value.Value(nil), vs...)))
}
func (s *scope) NewDict() value.Value { return value.Obj(value.DictObj(value.NewDict())) }
