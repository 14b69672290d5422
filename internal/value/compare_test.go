package value

import "testing"

func TestEqualNoneOnlyEqualsNone(t *testing.T) {
	if !Equal(None(), None()) {
		t.Error("none should equal none")
	}
	if Equal(None(), Int(0)) {
		t.Error("none should not equal int 0")
	}
	if Equal(None(), Bool(false)) {
		t.Error("none should not equal false")
	}
}

func TestEqualNumericPromotion(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Error("int 3 should equal float 3.0")
	}
	if Equal(Int(3), Float(3.5)) {
		t.Error("int 3 should not equal float 3.5")
	}
}

func TestEqualStringsByContent(t *testing.T) {
	a := Obj(Str("hi"))
	b := Obj(Str("hi"))
	if a.AsObject() == b.AsObject() {
		t.Fatal("test setup: expected distinct string objects")
	}
	if !Equal(a, b) {
		t.Error("distinct string objects with the same content should be equal")
	}
}

func TestEqualObjectIdentityForOtherKinds(t *testing.T) {
	la := Obj(List([]Value{Int(1)}))
	lb := Obj(List([]Value{Int(1)}))
	if Equal(la, lb) {
		t.Error("distinct list objects should not be equal even with identical contents")
	}
	if !Equal(la, la) {
		t.Error("a list object should equal itself")
	}
}

func TestCompareNumeric(t *testing.T) {
	tests := []struct {
		a, b Value
		want Ordering
	}{
		{Int(1), Int(2), Less},
		{Int(2), Int(1), Greater},
		{Int(2), Int(2), Eq},
		{Int(2), Float(2.0), Eq},
		{Float(1.5), Int(2), Less},
	}
	for _, tt := range tests {
		got, ok := Compare(tt.a, tt.b)
		if !ok {
			t.Fatalf("Compare(%v, %v): expected comparable domain", tt.a, tt.b)
		}
		if got != tt.want {
			t.Errorf("Compare(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareStrings(t *testing.T) {
	got, ok := Compare(Obj(Str("abc")), Obj(Str("abd")))
	if !ok {
		t.Fatal("expected strings to be comparable")
	}
	if got != Less {
		t.Errorf("Compare(abc, abd) = %v, want Less", got)
	}
}

func TestCompareHeterogeneousNotComparable(t *testing.T) {
	_, ok := Compare(Int(1), Obj(Str("x")))
	if ok {
		t.Error("int and string should not be in a comparable domain")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{None(), false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), true},
		{Float(0.0), true},
		{Obj(Str("")), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
