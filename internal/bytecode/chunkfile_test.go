package bytecode_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/emit"
	"github.com/hebi-lang/hebi/internal/parser"
)

func compileFunc(t *testing.T, src string) *bytecode.Function {
	t.Helper()
	mod, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := emit.Compile(mod, "<test>")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return res.Body
}

func TestDisassembleInstrCountMatchesDecodedStream(t *testing.T) {
	fn := compileFunc(t, `
fn fib(n):
    if n <= 1:
        return n
    return fib(n - 1) + fib(n - 2)

print fib(5)
`)
	text := bytecode.Disassemble(fn)
	if text == "" {
		t.Fatal("Disassemble returned empty text")
	}

	n := bytecode.InstrCount(fn)
	if n == 0 {
		t.Fatal("InstrCount returned 0 for a non-trivial function")
	}

	// Every nested function constant should also disassemble and decode
	// cleanly.
	for _, c := range fn.Consts {
		if c.Kind == bytecode.ConstFunc && c.Func != nil {
			if bytecode.InstrCount(c.Func) == 0 {
				t.Errorf("nested function %q has zero decoded instructions", c.Func.Name)
			}
		}
	}
}

func TestChunkRoundTrip(t *testing.T) {
	fn := compileFunc(t, `
var total = 0
for i in 0..10:
    total += i
print total
`)

	data, err := bytecode.EncodeChunk(fn, []string{"total"})
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("EncodeChunk produced no data")
	}

	decoded, vars, err := bytecode.DecodeChunk(data)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if got, want := vars, []string{"total"}; len(got) != len(want) || got[0] != want[0] {
		t.Errorf("decoded module vars = %v, want %v", got, want)
	}

	if got, want := bytecode.InstrCount(decoded), bytecode.InstrCount(fn); got != want {
		t.Errorf("decoded instruction count = %d, want %d", got, want)
	}
	if got, want := bytecode.Disassemble(decoded), bytecode.Disassemble(fn); got != want {
		t.Errorf("decoded disassembly differs from the original:\ngot:\n%s\nwant:\n%s", got, want)
	}

	// Disassembly text doesn't render parameter-binding shape, so diff it
	// structurally: a scalar field dropped or miscoded here would otherwise
	// only surface as a wrong argument bound at call time.
	if diff := cmp.Diff(fn.Params, decoded.Params); diff != "" {
		t.Errorf("decoded Params differs from the original (-want +got):\n%s", diff)
	}
}
