package gcarena

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pavanmanishd/gcarena/internal/alloc"
)

// collector owns the mark state machine and drives cycles:
//
//	Idle -> Marking -> FinalMarking -> Sweeping -> Idle
//
// Marking runs concurrently with mutation. When the grey queue drains while
// mutators are still active, the tracers raise the yield flag; mutators are
// obliged to exit their scopes promptly. Once the last one is out the
// collector takes the mutation gate, drains residual grey work
// deterministically, and sweeps.
type collector struct {
	store *alloc.BlockStore
	work  *workList
	cfg   Config

	mark      atomic.Uint32
	yieldFlag atomic.Bool

	// urgent is set when an allocation hits the hard cap, asking mutators
	// to yield so a cycle can run. Cleared at the end of the next cycle.
	urgent atomic.Bool

	// collectionMu serializes cycles; holding it is what "a collection is
	// in progress" means.
	collectionMu sync.Mutex

	// mutGate is held read-side by every active mutation scope. The
	// collector takes it write-side between final marking and (in
	// synchronous mode) the end of the sweep.
	mutGate        sync.RWMutex
	activeMutators atomic.Int64

	state  atomic.Uint32
	closed atomic.Bool

	// root is the arena's root object: always marked and re-enumerated at
	// the start of every cycle. Written only by the arena, and only while
	// no mutation or collection runs.
	root traceJob

	metrics metricsState
}

func newCollector(cfg Config) *collector {
	c := &collector{
		store: alloc.NewBlockStore(cfg.HeapHardCap),
		work:  newWorkList(),
		cfg:   cfg,
	}
	c.mark.Store(markRed)
	return c
}

func (c *collector) currentMark() uint32 {
	return c.mark.Load()
}

func (c *collector) rotateMark() uint32 {
	next := rotateMark(c.mark.Load())
	c.mark.Store(next)
	return next
}

func (c *collector) currentState() State {
	return State(c.state.Load())
}

func (c *collector) setState(s State) {
	c.state.Store(uint32(s))
}

func (c *collector) setRoot(j traceJob) {
	c.root = j
}

// mutate runs body inside a mutation scope. The scope holds the gate
// read-side for its whole duration, so the collector can tell when all
// mutators are out, and entry blocks while the gate is write-held
// (final marking, plus the sweep in synchronous mode).
func (c *collector) mutate(body func(*Mutator) error) error {
	if c.closed.Load() {
		return ErrArenaClosed
	}

	c.mutGate.RLock()
	defer c.mutGate.RUnlock()

	if c.closed.Load() {
		return ErrArenaClosed
	}

	c.activeMutators.Add(1)
	mu := newMutator(c)
	defer func() {
		mu.finish()
		c.activeMutators.Add(-1)
		// Wake idle tracers so they re-check for completion.
		c.work.notify()
	}()

	return body(mu)
}

// view runs body under the gate without an allocator: read-only access.
func (c *collector) view(body func()) {
	c.mutGate.RLock()
	defer c.mutGate.RUnlock()

	c.activeMutators.Add(1)
	defer func() {
		c.activeMutators.Add(-1)
		c.work.notify()
	}()

	body()
}

// collect drives one full cycle. Major cycles rotate the mark, so the whole
// heap turns white and everything reachable is re-traced; minor cycles keep
// it, so objects already carrying the color — the old generation — are
// skipped by the marker and only new objects and remembered-set entries get
// scanned.
func (c *collector) collect(major bool) {
	c.collectionMu.Lock()
	defer c.collectionMu.Unlock()

	if c.closed.Load() || c.root.ptr == nil {
		return
	}

	if !c.cfg.Generational {
		major = true
	}

	kind := "minor"
	if major {
		kind = "major"
	}
	debugf("%s collection triggered", kind)

	start := time.Now()
	if major {
		c.metrics.oldObjects.Store(0)
		c.rotateMark()
	}

	marked := c.traceAndSweep()

	c.metrics.recordCycle(major, marked, time.Since(start))
	c.metrics.prevHeapSize.Store(c.store.HeapSize())
	if major {
		old := c.metrics.oldObjects.Load()
		c.metrics.maxOldObjects.Store(int64(float64(old) * c.cfg.OldGrowthRate))
	}
	c.urgent.Store(false)

	debugf("%s collection done in %s: marked=%d heap=%dKiB",
		kind, time.Since(start).Round(time.Microsecond), marked, c.store.HeapSize()/1024)
}

func (c *collector) traceAndSweep() int64 {
	color := c.currentMark()
	c.setState(StateMarking)

	// The root is grey at the start of every cycle: mark it so its lines
	// survive the sweep, and queue its enumeration unconditionally.
	rootMarked := int64(0)
	if headerOf(c.root.ptr).setMark(color) {
		rootMarked = 1
	}
	c.work.push([]traceJob{c.root})

	var wg sync.WaitGroup
	var marked atomic.Int64
	for i := 0; i < c.cfg.TracerThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := &Tracer{c: c}
			c.runTracer(t)
			marked.Add(t.marked)
		}()
	}
	wg.Wait()

	// All tracers went idle with no active mutators. Gate new ones out,
	// wait for stragglers that slipped in since, and catch their residue.
	c.setState(StateFinalMarking)
	c.mutGate.Lock()
	marked.Add(c.drainResidual())

	c.setState(StateSweeping)
	if c.cfg.SweepMode == SweepConcurrent {
		c.mutGate.Unlock()
		c.store.Sweep(uint8(color), c.cfg.FreeRatio)
	} else {
		c.store.Sweep(uint8(color), c.cfg.FreeRatio)
		c.mutGate.Unlock()
	}

	c.yieldFlag.Store(false)
	c.setState(StateIdle)
	return marked.Load() + rootMarked
}

// drainResidual clears the grey queue single-threaded. No mutator is active,
// so no new work can appear and the drain terminates.
func (c *collector) drainResidual() int64 {
	t := &Tracer{c: c}
	for {
		batch, ok := c.work.tryPop()
		if !ok {
			return t.marked
		}
		for len(batch) > 0 || len(t.local) > 0 {
			var job traceJob
			if n := len(t.local); n > 0 {
				job = t.local[n-1]
				t.local = t.local[:n-1]
			} else {
				job = batch[len(batch)-1]
				batch = batch[:len(batch)-1]
			}
			job.run(t)
		}
	}
}

// yieldRequested is the signal mutators poll: collection wants them out, or
// the heap is under pressure.
func (c *collector) yieldRequested() bool {
	if c.yieldFlag.Load() || c.urgent.Load() {
		return true
	}
	return c.cfg.HeapSoftCap > 0 && c.store.HeapSize() > c.cfg.HeapSoftCap
}

func (c *collector) snapshotMetrics() Metrics {
	return Metrics{
		State:            c.currentState(),
		HeapSize:         c.store.HeapSize(),
		Blocks:           c.store.BlockCount(),
		LargeBytes:       c.store.LargeBytes(),
		MajorCollections: c.metrics.majorCollections.Load(),
		MinorCollections: c.metrics.minorCollections.Load(),
		MajorAvgTime:     avgTime(c.metrics.majorTotalTime.Load(), c.metrics.majorCollections.Load()),
		MinorAvgTime:     avgTime(c.metrics.minorTotalTime.Load(), c.metrics.minorCollections.Load()),
		OldObjects:       c.metrics.oldObjects.Load(),
		LastCycleMarked:  c.metrics.lastCycleMarked.Load(),
		PrevHeapSize:     c.metrics.prevHeapSize.Load(),
		MaxOldObjects:    c.metrics.maxOldObjects.Load(),
	}
}

// close waits out any running collection and poisons the collector.
func (c *collector) close() {
	c.collectionMu.Lock()
	defer c.collectionMu.Unlock()

	c.mutGate.Lock()
	defer c.mutGate.Unlock()

	c.closed.Store(true)
	c.store.Release()
}
