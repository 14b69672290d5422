package vm

import (
	"github.com/hebi-lang/hebi/internal/value"
)

// makeClass assembles the runtime value.ClassDesc for a MakeClass
// instruction: tmpl (the compile-time template) fixes the declaration
// order, and base is the first register of the window the emitter built —
// the parent (if tmpl.IsDerived), then one register per method closure,
// then one register per field default expression, in that order.
func (t *Thread) makeClass(fr *frame, base, constIdx int) (value.Value, error) {
	tmpl := fr.fn.Consts[constIdx].Class

	offset := 0
	var parent *value.ClassDesc
	if tmpl.IsDerived {
		pv := fr.regs[base]
		if !pv.IsObject() || pv.AsObject() == nil || pv.AsObject().Kind != value.ObjClassDef {
			return value.Value{}, fr.runtimeErr("base class must be a class, got %s", pv.TypeName())
		}
		parent = pv.AsObject().ClassDef
		offset = 1
	}

	methods := make(map[string]value.Value, len(tmpl.MethodNames))
	for i, name := range tmpl.MethodNames {
		methods[name] = fr.regs[base+offset+i]
	}
	offset += len(tmpl.MethodNames)

	defaults := make([]value.Value, len(tmpl.FieldNames))
	for i := range tmpl.FieldNames {
		defaults[i] = fr.regs[base+offset+i]
	}

	desc := &value.ClassDesc{
		Template:      tmpl,
		Parent:        parent,
		Methods:       methods,
		FieldDefaults: defaults,
	}
	return value.Obj(value.ClassDefObj(desc)), nil
}
