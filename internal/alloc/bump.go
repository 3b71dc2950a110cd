package alloc

import "unsafe"

// BumpBlock is a block plus its allocation state: a downward bump cursor, a
// limit, and the line metadata. A bump block is owned by exactly one mutator
// (as a head or overflow block) or by the store; it is never allocated into
// concurrently.
type BumpBlock struct {
	cursor int
	limit  int
	block  *Block
	meta   *BlockMeta
}

// NewBumpBlock allocates a fresh, fully free bump block.
func NewBumpBlock() *BumpBlock {
	return &BumpBlock{
		cursor: BlockCapacity,
		limit:  0,
		block:  NewBlock(BlockSize),
		meta:   NewBlockMeta(),
	}
}

// Alloc carves size bytes out of the current hole, bumping downward. The
// returned offset is aligned so that the absolute address is a multiple of
// align (a power of two). When the current hole is exhausted it consults the
// line map for the next one. Returns false when the block cannot satisfy the
// request.
func (b *BumpBlock) Alloc(size, align int) (unsafe.Pointer, int, bool) {
	for {
		if size > b.cursor {
			return nil, 0, false
		}

		next := b.cursor - size
		next -= int(b.block.Addr(next) & uintptr(align-1))

		if next >= b.limit {
			b.cursor = next
			return b.block.Ptr(next), next, true
		}

		cursor, limit, ok := b.meta.FindNextAvailableHole(b.limit, size)
		if !ok {
			return nil, 0, false
		}
		b.cursor = cursor
		b.limit = limit
	}
}

// ResetHole recomputes the free map from the live mark and points the cursor
// at the topmost usable hole; lower holes are found as allocation proceeds.
// An entirely unmarked block comes back fully free.
func (b *BumpBlock) ResetHole(mark uint8) {
	b.meta.FreeUnmarked(mark)

	if b.meta.Block() != mark {
		b.meta.SetBlock(FreeMark)
		b.cursor = BlockCapacity
		b.limit = 0
		return
	}

	if cursor, limit, ok := b.meta.FindNextAvailableHole(BlockCapacity, 1); ok {
		b.cursor = cursor
		b.limit = limit
	} else {
		b.cursor = 0
		b.limit = 0
	}
}

// CurrentHoleSize reports the bytes remaining in the current hole.
func (b *BumpBlock) CurrentHoleSize() int {
	return b.cursor - b.limit
}

// IsMarked reports whether any object in the block carries the live mark.
func (b *BumpBlock) IsMarked(mark uint8) bool {
	return b.meta.Block() == mark
}

// Meta exposes the line metadata for placement handles and tests.
func (b *BumpBlock) Meta() *BlockMeta {
	return b.meta
}
