package vm

import (
	"fmt"
	"runtime"

	"github.com/hebi-lang/hebi/internal/bytecode"
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// callNative invokes a host-registered function. A sync NativeFunc runs to
// completion and returns directly; an async one hands back a value.Future,
// which this call blocks on until it resolves or the thread's context is
// cancelled — the blocking happens on this goroutine only, so a host
// driving many Hebi contexts concurrently keeps them independent by running
// each context's RunAsync on its own goroutine (see hebi.go).
func (t *Thread) callNative(n *value.NativeFunc, args []value.Value, kw *value.Dict) (value.Value, error) {
	return t.callNativeAs(n, value.None(), args, kw)
}

func (t *Thread) callNativeAs(n *value.NativeFunc, self value.Value, args []value.Value, kw *value.Dict) (value.Value, error) {
	s := &scope{t: t, args: args, kw: kw, self: self}
	switch {
	case n.Sync != nil:
		return n.Sync(s)
	case n.Async != nil:
		fut, err := n.Async(s)
		if err != nil {
			return value.Value{}, err
		}
		return t.awaitFuture(fut)
	default:
		return value.Value{}, diag.NewType(diag.Span{}, fmt.Sprintf("native function %s has no implementation", n.Name))
	}
}

// awaitFuture polls fut to completion, observing cancellation. Futures that
// additionally implement an optional Waiter (a Done() <-chan struct{}
// readiness signal) let this block efficiently instead of busy-polling.
func (t *Thread) awaitFuture(fut value.Future) (value.Value, error) {
	type waiter interface {
		Done() <-chan struct{}
	}
	for {
		v, err, done := fut.Poll()
		if done {
			return v, err
		}
		if w, ok := fut.(waiter); ok {
			select {
			case <-w.Done():
			case <-t.ctx.Done():
				return value.Value{}, diag.NewCancellation()
			}
			continue
		}
		select {
		case <-t.ctx.Done():
			return value.Value{}, diag.NewCancellation()
		default:
			runtime.Gosched()
		}
	}
}

// instantiateNative constructs a host-defined class instance: run Init (if
// any) against a scope bound to the freshly field-defaulted instance, then
// freeze it like a script-defined class.
func (t *Thread) instantiateNative(nc *value.NativeClass, args []value.Value, kw *value.Dict) (value.Value, error) {
	inst := value.NewInstance(nativeClassDesc(nc))
	for i, name := range nc.FieldNames {
		inst.Fields[name] = nc.FieldValues[i]
	}
	selfVal := value.Obj(value.ClassObj(inst))
	if nc.Init != nil {
		s := &scope{t: t, args: args, kw: kw, self: selfVal}
		if err := nc.Init(s); err != nil {
			return value.Value{}, err
		}
	}
	inst.Freeze()
	return selfVal, nil
}

// nativeClassDesc builds a throwaway ClassDesc so a native class instance
// can reuse the same Get/Set/Method machinery as script classes; methods
// and static methods are stored as value.Value wrapping ObjNativeFunc, which
// loadField and Call both know how to bind/invoke.
func nativeClassDesc(nc *value.NativeClass) *value.ClassDesc {
	methods := make(map[string]value.Value, len(nc.Methods))
	for name, fn := range nc.Methods {
		methods[name] = value.Obj(value.NativeFuncObj(fn))
	}
	return &value.ClassDesc{
		Template: &bytecode.ClassDesc{
			Name:        nc.Name,
			FieldNames:  nc.FieldNames,
			MethodNames: methodNames(nc.Methods),
		},
		Methods: methods,
	}
}

func methodNames(m map[string]*value.NativeFunc) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	return names
}
