package emit_test

import (
	"testing"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/emit"
	"github.com/hebi-lang/hebi/internal/parser"
)

func compile(t *testing.T, src string) (*emit.Result, error) {
	t.Helper()
	mod, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return emit.Compile(mod, "<test>")
}

func TestCompileSimpleModule(t *testing.T) {
	res, err := compile(t, `
var x = 1
var y = 2
print x + y
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ModuleVars) != 2 {
		t.Errorf("ModuleVars = %v, want 2 entries", res.ModuleVars)
	}
	if res.Body == nil || len(res.Body.Code) == 0 {
		t.Fatal("expected a non-empty compiled body")
	}
}

func TestCompileBreakOutsideLoopIsEmitError(t *testing.T) {
	_, err := compile(t, `
break
`)
	if err == nil {
		t.Fatal("expected an emit error for break outside a loop")
	}
	list, ok := err.(*diag.ErrorList)
	if !ok {
		t.Fatalf("expected *diag.ErrorList, got %T", err)
	}
	for _, e := range list.Errors {
		if e.Kind != diag.KindEmit {
			t.Errorf("error kind = %v, want KindEmit", e.Kind)
		}
	}
}

func TestCompileContinueOutsideLoopIsEmitError(t *testing.T) {
	_, err := compile(t, `
continue
`)
	if err == nil {
		t.Fatal("expected an emit error for continue outside a loop")
	}
}

func TestCompileYieldOutsideGeneratorIsEmitError(t *testing.T) {
	_, err := compile(t, `
fn f():
    yield 1

print 1
`)
	// A function containing yield becomes a generator itself, so this is
	// actually valid; yield is only rejected at module (non-function) scope.
	if err != nil {
		t.Fatalf("unexpected error for a generator function body: %v", err)
	}

	_, err = compile(t, `
yield 1
`)
	if err == nil {
		t.Fatal("expected an emit error for yield outside any function")
	}
}

func TestCompileNestedFunctionCapturesEnclosingLocal(t *testing.T) {
	res, err := compile(t, `
fn make_counter():
    var s = 0
    fn inc():
        s += 1
        return s
    return inc

counter = make_counter()
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found bool
	for _, c := range res.Body.Consts {
		if c.Kind == bytecode.ConstFunc && c.Func != nil && c.Func.Name == "make_counter" {
			found = true
			for _, inner := range c.Func.Consts {
				if inner.Kind == bytecode.ConstFunc && inner.Func != nil && len(inner.Func.Upvalues) == 0 {
					t.Errorf("inc() should capture s as an upvalue")
				}
			}
		}
	}
	if !found {
		t.Fatal("expected make_counter to appear in the module's constant pool")
	}
}
