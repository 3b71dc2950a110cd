package gcarena

import (
	"sync"
	"time"
	"unsafe"
)

// traceJob is an object waiting to be scanned: a thin pointer plus its
// dispatch token. Running the job enumerates the object's outgoing
// references; it does not touch the object's own mark.
type traceJob struct {
	ptr  unsafe.Pointer
	info *typeInfo
}

func (j traceJob) run(t *Tracer) {
	if j.info.trace != nil {
		j.info.trace(j.ptr, t)
	}
}

// workList is the shared grey queue: batches of trace jobs exchanged between
// tracers, mutators and the collector. Pushes never block; waiters are woken
// through a single-slot signal channel.
//
// Jobs left in the list between cycles are the remembered set: barrier
// retraces queued while no collection runs are consumed by the next cycle.
type workList struct {
	mu      sync.Mutex
	batches [][]traceJob
	signal  chan struct{}
}

func newWorkList() *workList {
	return &workList{signal: make(chan struct{}, 1)}
}

// push appends a batch and wakes one waiter. Empty batches are dropped but
// still wake, so exiting mutators can nudge idle tracers to re-check state.
func (w *workList) push(batch []traceJob) {
	if len(batch) > 0 {
		w.mu.Lock()
		w.batches = append(w.batches, batch)
		w.mu.Unlock()
	}
	w.notify()
}

func (w *workList) tryPop() ([]traceJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.batches)
	if n == 0 {
		return nil, false
	}
	batch := w.batches[n-1]
	w.batches[n-1] = nil
	w.batches = w.batches[:n-1]
	return batch, true
}

func (w *workList) empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches) == 0
}

func (w *workList) notify() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// wait blocks until a notification or the timeout, whichever comes first.
func (w *workList) wait(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.signal:
	case <-timer.C:
	}
}
