package gcarena

import (
	"runtime"
	"time"
)

// SweepMode selects how the sweep phase relates to mutation entry.
type SweepMode uint8

const (
	// SweepSynchronous holds the mutation gate through the sweep: entering
	// a mutation mid-sweep blocks until the sweep finishes.
	SweepSynchronous SweepMode = iota

	// SweepConcurrent releases the gate before sweeping. Mutation may
	// resume immediately; allocation contends with the sweep on the block
	// pool's locks.
	SweepConcurrent
)

// Config tunes the collector. The zero value of any numeric or duration field
// falls back to its default; the boolean fields are used as given (see
// Generational and Monitor). The collector snapshots the configuration when the arena is built;
// it cannot be edited afterwards.
type Config struct {
	// TracerThreads is the tracer worker count. Default: NumCPU - 1, at
	// least 1.
	TracerThreads int

	// TraceChunkSize is how many jobs a tracer runs between attempts to
	// share its backlog. Default 10000.
	TraceChunkSize int

	// TraceShareMin is the minimum local backlog a tracer must hold before
	// sharing work. Default 1000.
	TraceShareMin int

	// TraceShareRatio is the share of the backlog given away. Default 0.5.
	TraceShareRatio float64

	// TraceWaitTime is how long an idle tracer sleeps before re-checking
	// for work or completion. Default 1ms.
	TraceWaitTime time.Duration

	// MutatorShareMin is how many retrace jobs a mutator buffers before
	// flushing them to the tracers mid-scope. Default 10000.
	MutatorShareMin int

	// HeapSoftCap, in bytes, makes the yield signal and the monitor request
	// a cycle once the heap grows past it. 0 disables.
	HeapSoftCap int64

	// HeapHardCap, in bytes, fails allocations that would grow the heap
	// past it. 0 disables.
	HeapHardCap int64

	// CycleMinInterval is the lower bound between monitor-triggered
	// cycles. Default 10ms.
	CycleMinInterval time.Duration

	// YoungTriggerRatio promotes a minor cycle's follow-up to major when
	// the young survivors of the minor exceed this fraction of the old
	// generation. Default 0.5.
	YoungTriggerRatio float64

	// GrowthRatioTrigger requests a minor cycle when the heap grows past
	// this multiple of its size after the previous cycle. Default 2.0.
	GrowthRatioTrigger float64

	// OldGrowthRate sets the old-generation population that triggers the
	// next major cycle, as a multiple of the population left by the last
	// one. Default 10.0.
	OldGrowthRate float64

	// FreeRatio is the share of swept-clean blocks released to the OS at
	// the end of each sweep; the rest pool for reuse. Default 0.5.
	FreeRatio float64

	// SweepMode selects synchronous or concurrent sweeping.
	SweepMode SweepMode

	// Generational enables minor cycles. When false every requested or
	// triggered cycle is major. Default true (set by DefaultConfig; the
	// zero Config is non-generational).
	Generational bool

	// Monitor starts the background trigger loop. Default true under
	// DefaultConfig; the zero Config runs no monitor.
	Monitor bool

	// MonitorInterval is the trigger loop's polling period. Default 10ms.
	MonitorInterval time.Duration
}

// DefaultConfig returns the stock configuration. New fills the zero numeric
// and duration fields of its Config from it; a zero Config still runs
// non-generational and without a monitor.
func DefaultConfig() Config {
	return Config{
		TracerThreads:      max(1, runtime.NumCPU()-1),
		TraceChunkSize:     10000,
		TraceShareMin:      1000,
		TraceShareRatio:    0.5,
		TraceWaitTime:      time.Millisecond,
		MutatorShareMin:    10000,
		CycleMinInterval:   10 * time.Millisecond,
		YoungTriggerRatio:  0.5,
		GrowthRatioTrigger: 2.0,
		OldGrowthRate:      10.0,
		FreeRatio:          0.5,
		SweepMode:          SweepSynchronous,
		Generational:       true,
		Monitor:            true,
		MonitorInterval:    10 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TracerThreads <= 0 {
		c.TracerThreads = d.TracerThreads
	}
	if c.TraceChunkSize <= 0 {
		c.TraceChunkSize = d.TraceChunkSize
	}
	if c.TraceShareMin <= 0 {
		c.TraceShareMin = d.TraceShareMin
	}
	if c.TraceShareRatio <= 0 || c.TraceShareRatio > 1 {
		c.TraceShareRatio = d.TraceShareRatio
	}
	if c.TraceWaitTime <= 0 {
		c.TraceWaitTime = d.TraceWaitTime
	}
	if c.MutatorShareMin <= 0 {
		c.MutatorShareMin = d.MutatorShareMin
	}
	if c.CycleMinInterval <= 0 {
		c.CycleMinInterval = d.CycleMinInterval
	}
	if c.YoungTriggerRatio <= 0 {
		c.YoungTriggerRatio = d.YoungTriggerRatio
	}
	if c.GrowthRatioTrigger <= 0 {
		c.GrowthRatioTrigger = d.GrowthRatioTrigger
	}
	if c.OldGrowthRate <= 0 {
		c.OldGrowthRate = d.OldGrowthRate
	}
	if c.FreeRatio <= 0 || c.FreeRatio > 1 {
		c.FreeRatio = d.FreeRatio
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = d.MonitorInterval
	}
	return c
}
