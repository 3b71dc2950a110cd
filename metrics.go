package gcarena

import (
	"sync/atomic"
	"time"
)

// State is the collector's position in the cycle state machine.
type State uint32

const (
	StateIdle State = iota
	StateMarking
	StateFinalMarking
	StateSweeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMarking:
		return "marking"
	case StateFinalMarking:
		return "final-marking"
	case StateSweeping:
		return "sweeping"
	default:
		return "!err"
	}
}

// Metrics is a point-in-time snapshot of collector statistics.
type Metrics struct {
	// State is the collector's current phase.
	State State

	// HeapSize is the total bytes held in blocks, large objects included.
	HeapSize int64

	// Blocks is the number of bump blocks in existence.
	Blocks int

	// LargeBytes is the bytes held by dedicated large-object blocks.
	LargeBytes int64

	// MajorCollections and MinorCollections count completed cycles.
	MajorCollections uint64
	MinorCollections uint64

	// MajorAvgTime and MinorAvgTime are running average cycle durations.
	MajorAvgTime time.Duration
	MinorAvgTime time.Duration

	// OldObjects is the number of objects marked since the last major
	// cycle began — the old generation's population.
	OldObjects int64

	// LastCycleMarked is the number of objects marked by the most recent
	// cycle. After a minor cycle this is the count of promoted survivors.
	LastCycleMarked int64

	// PrevHeapSize is the heap size recorded at the end of the last cycle;
	// the monitor's growth triggers compare against it.
	PrevHeapSize int64

	// MaxOldObjects is the old-generation population at which the monitor
	// requests the next major cycle.
	MaxOldObjects int64
}

// metricsState holds the live counters behind Metrics.
type metricsState struct {
	majorCollections atomic.Uint64
	minorCollections atomic.Uint64
	majorTotalTime   atomic.Int64 // nanoseconds
	minorTotalTime   atomic.Int64
	oldObjects       atomic.Int64
	lastCycleMarked  atomic.Int64
	prevHeapSize     atomic.Int64
	maxOldObjects    atomic.Int64
	lastCycleEnd     atomic.Int64 // unix nanoseconds
}

func (m *metricsState) recordCycle(major bool, marked int64, elapsed time.Duration) {
	m.oldObjects.Add(marked)
	m.lastCycleMarked.Store(marked)
	m.lastCycleEnd.Store(time.Now().UnixNano())
	if major {
		m.majorCollections.Add(1)
		m.majorTotalTime.Add(int64(elapsed))
	} else {
		m.minorCollections.Add(1)
		m.minorTotalTime.Add(int64(elapsed))
	}
}

func avgTime(total int64, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / int64(count))
}
