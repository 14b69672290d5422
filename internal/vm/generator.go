package vm

import (
	"github.com/hebi-lang/hebi/internal/diag"
	"github.com/hebi-lang/hebi/internal/value"
)

// genCoroutine backs a generator function's value with Go's own
// concurrency primitives rather than a hand-rolled continuation: the
// function body runs on a dedicated goroutine that blocks on an unbuffered
// channel handoff at every yield, so at most one of {the generator body,
// its caller} ever runs at a time — a coroutine, not true parallelism.
type genCoroutine struct {
	t       *Thread
	fr      *frame
	resume  chan value.Value
	yielded chan genResult
	started bool
	done    bool
}

type genResult struct {
	v    value.Value
	done bool
	err  error
}

func newGenerator(t *Thread, fr *frame) *genCoroutine {
	g := &genCoroutine{
		t:       t,
		fr:      fr,
		resume:  make(chan value.Value),
		yielded: make(chan genResult),
	}
	fr.gen = g
	return g
}

// Next implements value.Iterator: the first call starts the body goroutine,
// subsequent calls resume it past its blocked Suspend.
func (g *genCoroutine) Next() (value.Value, bool, error) {
	if g.done {
		return value.Value{}, false, nil
	}
	if !g.started {
		g.started = true
		go g.run()
	} else {
		select {
		case g.resume <- value.None():
		case <-g.t.ctx.Done():
			g.done = true
			return value.Value{}, false, diag.NewCancellation()
		}
	}

	select {
	case res := <-g.yielded:
		if res.done {
			g.done = true
			if res.err != nil {
				return value.Value{}, false, res.err
			}
			return value.Value{}, false, nil
		}
		return res.v, true, nil
	case <-g.t.ctx.Done():
		g.done = true
		return value.Value{}, false, diag.NewCancellation()
	}
}

func (g *genCoroutine) run() {
	v, err := g.t.runFrame(g.fr)
	g.yielded <- genResult{v: v, done: true, err: err}
}

// suspend implements the Suspend opcode: hand the yielded accumulator value
// to whoever is driving this generator's Next, then block until resumed.
// Outside a generator body (fr.gen == nil — the emitter never produces this
// since emitYield rejects yield outside a generator, but a defensive check
// costs nothing) it is a runtime error instead of a panic.
func (t *Thread) suspend(fr *frame) (value.Value, error) {
	if fr.gen == nil {
		return value.Value{}, fr.runtimeErr("yield outside a generator")
	}
	select {
	case fr.gen.yielded <- genResult{v: fr.acc}:
	case <-t.ctx.Done():
		return value.Value{}, diag.NewCancellation()
	}
	select {
	case v := <-fr.gen.resume:
		return v, nil
	case <-t.ctx.Done():
		return value.Value{}, diag.NewCancellation()
	}
}
