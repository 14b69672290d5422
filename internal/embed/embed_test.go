package embed_test

import (
	"testing"

	"github.com/hebi-lang/hebi/internal/embed"
	"github.com/hebi-lang/hebi/internal/value"
)

func TestNativeModuleToModuleExposesFuncsConstsAndClasses(t *testing.T) {
	calls := 0
	mod := embed.NewNativeModule("util").
		Func("noop", func(s value.Scope) (value.Value, error) {
			calls++
			return value.None(), nil
		}).
		Const("pi", value.Float(3.14)).
		Class(embed.NewNativeClass("Thing").Build())

	vm, err := mod.ToModule()
	if err != nil {
		t.Fatalf("ToModule: %v", err)
	}
	if vm.Name != "util" {
		t.Errorf("Name = %q, want util", vm.Name)
	}
	if len(vm.Vars) != 3 {
		t.Fatalf("got %d slots, want 3", len(vm.Vars))
	}

	idx, ok := vm.Names["noop"]
	if !ok {
		t.Fatal("expected noop to be registered")
	}
	fnVal := vm.Vars[idx]
	if fnVal.AsObject() == nil || fnVal.AsObject().Kind != value.ObjNativeFunc {
		t.Fatalf("noop slot has kind %v, want ObjNativeFunc", fnVal.TypeName())
	}

	idx, ok = vm.Names["pi"]
	if !ok {
		t.Fatal("expected pi to be registered")
	}
	if vm.Vars[idx].AsFloat() != 3.14 {
		t.Errorf("pi = %v, want 3.14", vm.Vars[idx])
	}

	idx, ok = vm.Names["Thing"]
	if !ok {
		t.Fatal("expected Thing to be registered")
	}
	if vm.Vars[idx].AsObject() == nil || vm.Vars[idx].AsObject().Kind != value.ObjNativeClass {
		t.Errorf("Thing slot has kind %v, want ObjNativeClass", vm.Vars[idx].TypeName())
	}
}

func TestNativeModuleToModuleRejectsEmptyName(t *testing.T) {
	mod := embed.NewNativeModule("")
	if _, err := mod.ToModule(); err == nil {
		t.Fatal("expected ToModule to reject a module with an empty name")
	}
}

func TestNativeClassBuilderAssemblesFieldsAndMethods(t *testing.T) {
	nc := embed.NewNativeClass("Point").
		Field("x", value.Int(0)).
		Field("y", value.Int(0)).
		Method("sum", func(s value.Scope) (value.Value, error) {
			return value.Int(1), nil
		}).
		StaticMethod("origin", func(s value.Scope) (value.Value, error) {
			return value.Int(0), nil
		}).
		Build()

	if nc.Name != "Point" {
		t.Errorf("Name = %q, want Point", nc.Name)
	}
	if len(nc.FieldNames) != 2 || nc.FieldNames[0] != "x" || nc.FieldNames[1] != "y" {
		t.Errorf("FieldNames = %v, want [x y]", nc.FieldNames)
	}
	if _, ok := nc.Methods["sum"]; !ok {
		t.Error("expected sum method to be registered")
	}
	if _, ok := nc.StaticMethods["origin"]; !ok {
		t.Error("expected origin static method to be registered")
	}
}

func TestAsyncFuncIsRegisteredUnderAsync(t *testing.T) {
	mod := embed.NewNativeModule("io").
		AsyncFunc("read", func(s value.Scope) (value.Future, error) {
			return nil, nil
		})
	fn := mod.Funcs["read"]
	if fn == nil {
		t.Fatal("expected read to be registered")
	}
	if fn.Sync != nil {
		t.Error("an AsyncFunc registration should leave Sync nil")
	}
	if fn.Async == nil {
		t.Error("an AsyncFunc registration should set Async")
	}
}
