package hebi_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/hebi-lang/hebi"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles and executes src, returning captured stdout.
func run(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	ctx := hebi.NewContext(hebi.WithStdout(&out))
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	_, err = ctx.Run(context.Background(), prog)
	require.NoError(t, err)
	return out.String()
}

func TestFibonacciRecursion(t *testing.T) {
	src := `
fn fib(n):
    if n <= 1:
        return n
    return fib(n - 1) + fib(n - 2)

print fib(10)
`
	assert.Equal(t, "55\n", run(t, src))
}

func TestClassFieldDefaults(t *testing.T) {
	src := `
class Point:
    x = 0
    y = 0

    fn init(x, y):
        self.x = x
        self.y = y

    fn sum():
        return self.x + self.y

class Origin(Point):
    pass

p = Point(3, 4)
print p.sum()

o = Origin()
print o.x
print o.y
`
	assert.Equal(t, "7\n0\n0\n", run(t, src))
}

func TestClosureCounter(t *testing.T) {
	src := `
fn make_counter():
    var s = 0
    fn inc():
        s += 1
        return s
    return inc

counter = make_counter()
print counter()
print counter()
print counter()
`
	assert.Equal(t, "1\n2\n3\n", run(t, src))
}

func TestSuperDispatch(t *testing.T) {
	src := `
class Animal:
    fn speak():
        return "animal"

    fn greet():
        return self.speak()

class Dog(Animal):
    fn speak():
        return "dog"

    fn parent_speak():
        return super.speak()

    fn parent_greet():
        return super.greet()

d = Dog()
print d.speak()
print d.parent_speak()
print d.parent_greet()
`
	// parent_greet calls Animal.greet, which dispatches self.speak() back
	// against d's dynamic class (Dog), not Animal's own speak.
	assert.Equal(t, "dog\nanimal\ndog\n", run(t, src))
}

func TestForRangeContinue(t *testing.T) {
	src := `
var total = 0
for i in 0..10:
    if i % 2 == 0:
        continue
    total += i
print total
`
	// odd numbers 1..9: 1+3+5+7+9 = 25
	assert.Equal(t, "25\n", run(t, src))
}

func TestForRangeBreak(t *testing.T) {
	src := `
for i in 0..100:
    if i == 5:
        break
    print i
`
	assert.Equal(t, "0\n1\n2\n3\n4\n", run(t, src))
}

func TestOptionalChainingPostfix(t *testing.T) {
	src := `
class Box:
    inner = none

b = Box()
print b.inner?.missing
print b?.inner
`
	assert.Equal(t, "none\nnone\n", run(t, src))
}

func TestOptionalChainingPrefix(t *testing.T) {
	src := `
var x = none
print ?x.field
var lst = none
print ?lst[0]
`
	assert.Equal(t, "none\nnone\n", run(t, src))
}

func TestOptionalChainingPrefixNonNoneStillFails(t *testing.T) {
	src := `
var x = 5
print ?x.field
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	ctx := hebi.NewContext()
	_, err = ctx.Run(context.Background(), prog)
	assert.Error(t, err)
}

func TestArithmeticDivisionAndPower(t *testing.T) {
	src := `
print 7 / 2
print 2 ** 10
print 2 ** -1
print 1 / 0
`
	out := run(t, src)
	assert.Equal(t, "3\n1024\n0.5\n+Inf\n", out)
}

func TestArithmeticIdentities(t *testing.T) {
	src := `
var x = 17
print x + 0 == x
print x * 1 == x
print x - x == 0
`
	assert.Equal(t, "true\ntrue\ntrue\n", run(t, src))
}

func TestVariadicAndKeywordArgBinding(t *testing.T) {
	src := `
fn sum_all(*nums):
    var total = 0
    for n in nums:
        total += n
    return total

fn greet(name, greeting="hello"):
    return greeting

fn configure(*rest, port=80):
    return port

print sum_all(1, 2, 3, 4)
print greet("a")
print greet("a", "hi")
print configure()
print configure(port=9090)
`
	assert.Equal(t, "10\nhello\nhi\n80\n9090\n", run(t, src))
}

func TestGeneratorYieldsValuesLazily(t *testing.T) {
	src := `
fn countdown(n):
    while n > 0:
        yield n
        n -= 1

for v in countdown(3):
    print v
`
	assert.Equal(t, "3\n2\n1\n", run(t, src))
}

func TestOperatorOverloadViaMetaMethod(t *testing.T) {
	src := `
class Vec:
    x = 0
    y = 0

    fn init(x, y):
        self.x = x
        self.y = y

    fn __meta_add__(other):
        return Vec(self.x + other.x, self.y + other.y)

a = Vec(1, 2)
b = Vec(3, 4)
c = a + b
print c.x
print c.y
`
	assert.Equal(t, "4\n6\n", run(t, src))
}

func TestIntegerModuloByZeroIsRuntimeError(t *testing.T) {
	src := `
print 5 % 0
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	ctx := hebi.NewContext()
	_, err = ctx.Run(context.Background(), prog)
	assert.Error(t, err)
}

func TestMissingRequiredArgumentIsRuntimeError(t *testing.T) {
	src := `
fn f(x, greeting):
    return x

print f(1)
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	ctx := hebi.NewContext()
	_, err = ctx.Run(context.Background(), prog)
	assert.Error(t, err)
}

func TestUnexpectedKeywordArgumentIsRuntimeError(t *testing.T) {
	src := `
fn f(x):
    return x

print f(1, y=2)
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	ctx := hebi.NewContext()
	_, err = ctx.Run(context.Background(), prog)
	assert.Error(t, err)
}

func TestNativeModuleRoundTrip(t *testing.T) {
	mod := hebi.NewNativeModule("mathx")
	mod.Func("double", func(s hebi.Scope) (hebi.Value, error) {
		n := s.Param(0)
		return hebi.Int(n.AsInt() * 2), nil
	})
	mod.Const("answer", hebi.Int(42))

	var out bytes.Buffer
	ctx := hebi.NewContext(hebi.WithStdout(&out))
	require.NoError(t, ctx.Register(mod))

	src := `
import mathx
print mathx.double(21)
print mathx.answer
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	_, err = ctx.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "42\n42\n", out.String())
}

func TestNativeClassRoundTrip(t *testing.T) {
	nc := hebi.NewNativeClass("Counter").
		Field("n", hebi.Int(0)).
		Method("bump", func(s hebi.Scope) (hebi.Value, error) {
			self := s.Self().AsObject().Class
			cur, _ := self.Get("n")
			next := hebi.Int(cur.AsInt() + 1)
			self.Set("n", next)
			return next, nil
		}).
		Build()

	mod := hebi.NewNativeModule("counters")
	mod.Class(nc)

	var out bytes.Buffer
	ctx := hebi.NewContext(hebi.WithStdout(&out))
	require.NoError(t, ctx.Register(mod))

	src := `
from counters import Counter
c = Counter()
print c.bump()
print c.bump()
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)
	_, err = ctx.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out.String())
}

func TestCompatibleWith(t *testing.T) {
	assert.True(t, hebi.CompatibleWith("v0.1.0"))
	assert.False(t, hebi.CompatibleWith("v9.0.0"))
	assert.False(t, hebi.CompatibleWith("not-a-version"))
}

func TestEvalAsync(t *testing.T) {
	ctx := hebi.NewContext()
	res := ctx.EvalAsync(context.Background(), "1 + 1")
	v, err := res.Wait()
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), v)
}

func TestMarshalChunkRoundTripPreservesModuleVars(t *testing.T) {
	src := `
var total = 0
for i in 0..5:
    total += i
print total
`
	prog, err := hebi.Compile("<test>", src)
	require.NoError(t, err)

	data, err := prog.MarshalChunk()
	require.NoError(t, err)

	loaded, err := hebi.LoadChunk("<test>", data)
	require.NoError(t, err)

	var out bytes.Buffer
	ctx := hebi.NewContext(hebi.WithStdout(&out))
	_, err = ctx.Run(context.Background(), loaded)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out.String())
}

func TestCompileErrorAccumulatesMultiple(t *testing.T) {
	src := `
fn broken(:
    pass

class Also(:
    pass
`
	_, err := hebi.Compile("<test>", src)
	require.Error(t, err)
	var list *diag.ErrorList
	require.ErrorAs(t, err, &list)
	assert.GreaterOrEqual(t, len(list.Errors), 2)
}
