package gcarena

// runTracer is one worker of the tracer pool. Workers pop jobs from their
// local stack, run them in chunks, and push half their backlog to the shared
// list when it runs dry so idle peers can pick it up. A worker with nothing
// to do checks for completion: the trace is done once the shared list is
// empty and no mutation scope is active. If mutators are still running, the
// worker raises the yield flag and parks until more work or a scope exit
// wakes it.
func (c *collector) runTracer(t *Tracer) {
	for {
		if len(t.local) == 0 {
			batch, ok := c.work.tryPop()
			if !ok {
				if c.traceDone() {
					return
				}
				c.work.wait(c.cfg.TraceWaitTime)
				continue
			}
			t.local = batch
		}

		for n := c.cfg.TraceChunkSize; n > 0 && len(t.local) > 0; n-- {
			job := t.local[len(t.local)-1]
			t.local = t.local[:len(t.local)-1]
			job.run(t)
		}

		c.shareWork(t)
	}
}

// shareWork donates part of the local backlog to the shared list when peers
// might be starving.
func (c *collector) shareWork(t *Tracer) {
	if len(t.local) < c.cfg.TraceShareMin || !c.work.empty() {
		return
	}

	keep := len(t.local) - int(float64(len(t.local))*c.cfg.TraceShareRatio)
	donated := make([]traceJob, len(t.local)-keep)
	copy(donated, t.local[keep:])
	t.local = t.local[:keep]

	c.work.push(donated)
}

// traceDone reports whether the trace can end: no shared work and no active
// mutators. With mutators still running it raises the yield flag instead —
// the transition to final marking — and reports false.
func (c *collector) traceDone() bool {
	if !c.work.empty() {
		return false
	}
	if c.activeMutators.Load() == 0 {
		return true
	}

	if !c.yieldFlag.Swap(true) {
		debugf("grey queue drained, requesting mutator yield")
	}
	return false
}
