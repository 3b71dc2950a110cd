package alloc

import "sync/atomic"

// BlockMeta holds the per-line mark vector for a bump block, plus a whole-block
// mark that is set whenever any object in the block is marked. Line marks are
// written by tracer threads concurrently with mutator allocation, so every
// slot is atomic.
//
// The metadata lives outside the slab: Go slabs cannot be address-aligned to
// BlockSize, so the pointer-to-metadata arithmetic used by address-aligned
// allocators is replaced by a placement handle (Span) carried in each object
// header.
type BlockMeta struct {
	lines [LineCount]atomic.Uint32
	block atomic.Uint32
}

// NewBlockMeta returns a fresh, fully free metadata vector.
func NewBlockMeta() *BlockMeta {
	return &BlockMeta{}
}

// Line reports the mark of line index.
func (m *BlockMeta) Line(index int) uint8 {
	return uint8(m.lines[index].Load())
}

// SetLine sets the mark of line index.
func (m *BlockMeta) SetLine(index int, mark uint8) {
	m.lines[index].Store(uint32(mark))
}

// Block reports the whole-block mark.
func (m *BlockMeta) Block() uint8 {
	return uint8(m.block.Load())
}

// SetBlock sets the whole-block mark.
func (m *BlockMeta) SetBlock(mark uint8) {
	m.block.Store(uint32(mark))
}

// MarkRegion marks every line touched by an object of the given size placed
// at offset, and marks the block.
func (m *BlockMeta) MarkRegion(offset, size int, mark uint8) {
	start := offset / LineSize
	end := (offset + size - 1) / LineSize
	if end >= LineCount {
		end = LineCount - 1
	}
	for i := start; i <= end; i++ {
		m.SetLine(i, mark)
	}
	m.SetBlock(mark)
}

// FreeUnmarked resets every line not carrying the live mark back to free.
// Run during sweep to recompute the free map from the surviving objects.
func (m *BlockMeta) FreeUnmarked(mark uint8) {
	for i := 0; i < LineCount; i++ {
		if m.Line(i) != mark {
			m.SetLine(i, FreeMark)
		}
	}
}

// Reset frees every line and clears the block mark.
func (m *BlockMeta) Reset() {
	for i := 0; i < LineCount; i++ {
		m.SetLine(i, FreeMark)
	}
	m.SetBlock(FreeMark)
}

// FindNextAvailableHole scans downward (toward offset 0) from startingAt for
// a run of free lines big enough for allocSize. It returns the cursor and
// limit of the hole.
//
// The free line directly above a marked line (the next higher offset) is
// treated as conservatively marked: a small object allocated at the end of a
// line may spill into the next one, so a hole that rests on a marked line
// surrenders its lowest line. A hole that reaches line 0 keeps every line.
func (m *BlockMeta) FindNextAvailableHole(startingAt, allocSize int) (cursor, limit int, ok bool) {
	count := 0
	startingLine := startingAt / LineSize
	linesRequired := (allocSize + LineSize - 1) / LineSize
	end := startingLine

	for index := startingLine - 1; index >= 0; index-- {
		if m.Line(index) == FreeMark {
			count++

			if index == 0 && count >= linesRequired {
				return end * LineSize, 0, true
			}
			continue
		}

		if count > linesRequired {
			return end * LineSize, (index + 2) * LineSize, true
		}

		count = 0
		end = index
	}

	return 0, 0, false
}
