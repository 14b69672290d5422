package value

import (
	"testing"

	"github.com/hebi-lang/hebi/internal/bytecode"
)

var classDescStub = bytecode.ClassDesc{Name: "X"}

func TestDictPreservesInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Set(Obj(Str("b")), Int(2))
	d.Set(Obj(Str("a")), Int(1))
	d.Set(Obj(Str("c")), Int(3))

	keys := d.Keys()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i, k := range keys {
		if k.AsObject().Str != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, k.AsObject().Str, want[i])
		}
	}

	v, ok := d.Get(Obj(Str("a")))
	if !ok || v.AsInt() != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
}

func TestDictSetOverwritesExistingKey(t *testing.T) {
	d := NewDict()
	d.Set(Obj(Str("x")), Int(1))
	d.Set(Obj(Str("x")), Int(2))
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	v, _ := d.Get(Obj(Str("x")))
	if v.AsInt() != 2 {
		t.Errorf("Get(x) = %v, want 2", v)
	}
}

func TestDictDelete(t *testing.T) {
	d := NewDict()
	d.Set(Obj(Str("a")), Int(1))
	d.Set(Obj(Str("b")), Int(2))
	if !d.Delete(Obj(Str("a"))) {
		t.Fatal("Delete(a) should report true")
	}
	if _, ok := d.Get(Obj(Str("a"))); ok {
		t.Error("a should no longer be present")
	}
	if d.Delete(Obj(Str("a"))) {
		t.Error("deleting an absent key should report false")
	}
	v, ok := d.Get(Obj(Str("b")))
	if !ok || v.AsInt() != 2 {
		t.Error("deleting a should not disturb b")
	}
}

func TestClassFreezeSemantics(t *testing.T) {
	inst := NewInstance(nil)
	inst.Fields["x"] = Int(1)

	if !inst.Set("x", Int(2)) {
		t.Error("setting an existing field before freezing should succeed")
	}
	if !inst.Set("y", Int(3)) {
		t.Error("setting a new field before freezing should succeed")
	}

	inst.Freeze()

	if !inst.Set("x", Int(10)) {
		t.Error("setting an existing field after freezing should still succeed")
	}
	if inst.Set("z", Int(99)) {
		t.Error("setting a new field on a frozen instance should fail")
	}
	if _, ok := inst.Get("z"); ok {
		t.Error("the rejected field should not have been added")
	}
}

func TestCellOpenAndClose(t *testing.T) {
	stack := []Value{Int(1), Int(2), Int(3)}
	cell := &Cell{Stack: stack, Index: 1}

	if got := cell.Get(); got.AsInt() != 2 {
		t.Fatalf("Get() = %v, want 2", got)
	}

	cell.Set(Int(42))
	if stack[1].AsInt() != 42 {
		t.Fatalf("Set should write through to the shared stack slice, got %v", stack[1])
	}

	cell.Close()
	if !cell.Closed {
		t.Fatal("Close should mark the cell closed")
	}
	if cell.Stack != nil {
		t.Error("Close should detach the cell from the stack")
	}
	if got := cell.Get(); got.AsInt() != 42 {
		t.Errorf("Get() after Close = %v, want 42", got)
	}

	cell.Set(Int(7))
	if stack[1].AsInt() != 42 {
		t.Error("a closed cell's Set must not write back through the old stack slice")
	}
	if cell.Get().AsInt() != 7 {
		t.Error("a closed cell's Set should update its own stored Value")
	}
}

func TestClassDescMethodWalksParentChain(t *testing.T) {
	root := &ClassDesc{
		Template: &classDescStub,
		Methods:  map[string]Value{"greet": Int(1)},
	}
	child := &ClassDesc{Template: &classDescStub, Parent: root, Methods: map[string]Value{}}

	m, owner, ok := child.Method("greet")
	if !ok {
		t.Fatal("expected inherited method to be found")
	}
	if owner != root {
		t.Error("owner should be the defining (root) class, not the child")
	}
	if m.AsInt() != 1 {
		t.Errorf("m = %v, want 1", m)
	}

	if !child.IsSubclassOf(root) {
		t.Error("child should be a subclass of root")
	}
	if root.IsSubclassOf(child) {
		t.Error("root should not be a subclass of child")
	}
}
