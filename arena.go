package gcarena

import (
	"errors"
	"sync/atomic"
)

// Arena is a concurrent, generational, mark-and-sweep garbage-collected
// heap with a single root value of type R. All access to arena memory
// happens inside mutation scopes opened with Mutate; tracing runs on
// background workers concurrently with mutation, and unreachable objects
// are reclaimed between scopes.
//
// See the package documentation for a usage walkthrough.
type Arena[R any] struct {
	col    *collector
	mon    *monitor
	root   Ref[R]
	closed atomic.Bool
}

// New builds an arena. init runs inside the first mutation scope and must
// allocate and return the root; no collection can trigger until it returns.
// A zero Config field falls back to its default (see Config); pass
// DefaultConfig() for the stock setup with the monitor enabled.
func New[R any](cfg Config, init func(mu *Mutator) (Ref[R], error)) (*Arena[R], error) {
	cfg = cfg.withDefaults()
	col := newCollector(cfg)

	var root Ref[R]
	err := col.mutate(func(mu *Mutator) error {
		r, err := init(mu)
		if err != nil {
			return err
		}
		root = r
		return nil
	})
	if err != nil {
		col.close()
		return nil, err
	}
	if root.ptr == nil {
		col.close()
		return nil, errors.New("gcarena: init returned no root")
	}

	job, _ := root.job()
	col.setRoot(job)

	a := &Arena[R]{col: col, root: root}
	if cfg.Monitor {
		a.mon = newMonitor(col)
		a.mon.start()
	}
	return a, nil
}

// Mutate opens a mutation scope: body gets a Mutator and the root, both
// valid until body returns. Scopes run concurrently with tracing; body must
// poll Mutator.YieldRequested in long loops and return promptly when it
// turns true, since reclamation waits for every scope to exit.
//
// Entry blocks while the collector is between final marking and the end of
// the sweep (in synchronous sweep mode). Returns ErrArenaClosed after Close;
// otherwise returns whatever body returns.
func (a *Arena[R]) Mutate(body func(mu *Mutator, root Ref[R]) error) error {
	if a.closed.Load() {
		return ErrArenaClosed
	}
	return a.col.mutate(func(mu *Mutator) error {
		return body(mu, a.root)
	})
}

// View opens a read-only scope: body gets the root but no allocator. Like a
// mutation scope it delays reclamation until it returns, so keep views
// short.
func (a *Arena[R]) View(body func(root Ref[R])) {
	if a.closed.Load() {
		return
	}
	a.col.view(func() {
		body(a.root)
	})
}

// MajorCollect synchronously runs a full cycle: every object reachable from
// the root is traced and everything else is reclaimed. Blocks while scopes
// are active once marking drains — they are asked to yield — and returns
// when the sweep completes. Must not be called from inside a scope.
func (a *Arena[R]) MajorCollect() {
	a.col.collect(true)
}

// MinorCollect synchronously runs a young-generation cycle: only objects
// allocated since the last cycle (plus barrier-recorded old objects) are
// traced. With Generational disabled this is a major cycle.
func (a *Arena[R]) MinorCollect() {
	a.col.collect(false)
}

// Metrics returns a snapshot of collector statistics.
func (a *Arena[R]) Metrics() Metrics {
	return a.col.snapshotMetrics()
}

// Close stops the monitor, runs a final major collection, waits for every
// scope to exit and releases all blocks. The arena is unusable afterwards:
// Mutate returns ErrArenaClosed and collection requests are ignored. Close
// is idempotent.
func (a *Arena[R]) Close() {
	if a.closed.Swap(true) {
		return
	}
	if a.mon != nil {
		a.mon.stop()
	}
	a.col.collect(true)
	a.col.close()
}
