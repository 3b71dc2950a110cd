package gcarena

import (
	"sync/atomic"
	"unsafe"

	"github.com/pavanmanishd/gcarena/internal/alloc"
)

// Mark colors. Objects are born with markNew; the live color rotates through
// red, green and blue on every major cycle, so everything holding the
// previous color turns white without touching a single header. markNew is
// shared with the allocator's free-line state and is never a live color.
const (
	markNew   uint32 = 0
	markRed   uint32 = 1
	markGreen uint32 = 2
	markBlue  uint32 = 3
)

func rotateMark(m uint32) uint32 {
	switch m {
	case markRed:
		return markGreen
	case markGreen:
		return markBlue
	default:
		return markRed
	}
}

// header precedes every object in the arena.
//
//	[ header ][ object bytes ... ]
//
// Once the object is published only the mark is mutated, and only through
// atomic compare-and-swap by the marker.
type header struct {
	mark   atomic.Uint32
	typeID uint32

	// size is the full allocation size in bytes, header included.
	size uint32

	// length is the element count for array allocations, zero otherwise.
	length uint32

	// span locates the allocation inside its block so the marker can set
	// line marks without address arithmetic.
	span alloc.Span
}

// headerSize is the padded space reserved before every object. The header
// ends 8-aligned, so an 8-aligned allocation yields an 8-aligned object.
const headerSize = int(unsafe.Sizeof(header{}))

// objectAlign is the alignment of every arena allocation. It covers every
// type the registry admits (Go's largest scalar alignment).
const objectAlign = 8

func headerOf(obj unsafe.Pointer) *header {
	return (*header)(unsafe.Add(obj, -headerSize))
}

// setMark transitions the header to the current live color, marking the
// allocation's lines as a side effect. Returns false if the object already
// carries the color; the winner of the race is the only caller that sees
// true, so each object is scanned exactly once per cycle.
func (h *header) setMark(color uint32) bool {
	for {
		old := h.mark.Load()
		if old == color {
			return false
		}
		if h.mark.CompareAndSwap(old, color) {
			h.span.Mark(int(h.size), uint8(color))
			return true
		}
	}
}

func (h *header) marked(color uint32) bool {
	return h.mark.Load() == color
}
