// Package alloc implements the block-based allocator underneath the arena:
// fixed-size blocks subdivided into lines, bump allocation into holes,
// a shared block pool, and an overflow list for large objects.
//
// The package deals in raw bytes and marks. It knows nothing about object
// headers or tracing; the arena layers those on top.
package alloc

// Span records where an allocation landed, so the object can later be marked
// without address arithmetic. Small and medium spans point at their block's
// line metadata; large spans point at their dedicated block.
type Span struct {
	Meta   *BlockMeta
	Large  *Block
	Offset uint32
	Class  SizeClass
}

// Mark records the live mark for the allocation: its lines for small and
// medium objects, the block mark for large ones.
func (s Span) Mark(size int, mark uint8) {
	if s.Large != nil {
		s.Large.SetMark(mark)
		return
	}
	s.Meta.MarkRegion(int(s.Offset), size, mark)
}

// Marked reports whether the allocation carries the live mark.
func (s Span) Marked(mark uint8) bool {
	if s.Large != nil {
		return s.Large.Mark() == mark
	}
	return s.Meta.Line(int(s.Offset)/LineSize) == mark
}

func alignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}
