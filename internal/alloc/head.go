package alloc

import "unsafe"

// AllocHead is a mutator's private allocation frontier: a head block for
// small objects and an overflow block for medium ones. It is not safe for
// concurrent use; every mutation scope gets its own.
type AllocHead struct {
	head     *BumpBlock
	overflow *BumpBlock
	store    *BlockStore
}

// NewAllocHead creates an allocation head drawing from store.
func NewAllocHead(store *BlockStore) *AllocHead {
	return &AllocHead{store: store}
}

// Alloc returns size bytes aligned to align, together with the placement
// handle needed to mark the allocation later. Size is classed small, medium,
// or large; align must be a power of two.
func (h *AllocHead) Alloc(size, align int) (unsafe.Pointer, Span, error) {
	class, err := ClassForSize(size)
	if err != nil {
		return nil, Span{}, err
	}

	// Fast path: whatever the class, the head block may have room.
	if class != SizeLarge && h.head != nil {
		if ptr, offset, ok := h.head.Alloc(size, align); ok {
			return ptr, h.span(h.head, offset, class), nil
		}
	}

	switch class {
	case SizeSmall:
		return h.smallAlloc(size, align)
	case SizeMedium:
		return h.mediumAlloc(size, align)
	default:
		ptr, block, err := h.store.CreateLarge(size, align)
		if err != nil {
			return nil, Span{}, err
		}
		return ptr, Span{Large: block, Class: SizeLarge}, nil
	}
}

func (h *AllocHead) smallAlloc(size, align int) (unsafe.Pointer, Span, error) {
	// Any block handed out by the store has room for at least one small
	// object, but a recycled block's first hole may be narrower than this
	// request, so keep switching heads until one fits.
	for {
		if err := h.newHead(); err != nil {
			return nil, Span{}, err
		}
		if ptr, offset, ok := h.head.Alloc(size, align); ok {
			return ptr, h.span(h.head, offset, SizeSmall), nil
		}
	}
}

func (h *AllocHead) mediumAlloc(size, align int) (unsafe.Pointer, Span, error) {
	for {
		if h.overflow != nil {
			if ptr, offset, ok := h.overflow.Alloc(size, align); ok {
				return ptr, h.span(h.overflow, offset, SizeMedium), nil
			}
		}
		if err := h.newOverflow(); err != nil {
			return nil, Span{}, err
		}
	}
}

// newHead replaces the head block, preferring the current overflow block so
// its remaining hole is not wasted. The old head parks in the rest list.
func (h *AllocHead) newHead() error {
	var next *BumpBlock
	if h.overflow != nil {
		next = h.overflow
		h.overflow = nil
	} else {
		b, err := h.store.GetHead()
		if err != nil {
			return err
		}
		next = b
	}

	if h.head != nil {
		h.store.PushRest(h.head)
	}
	h.head = next
	return nil
}

func (h *AllocHead) newOverflow() error {
	b, err := h.store.GetOverflow()
	if err != nil {
		return err
	}
	if h.overflow != nil {
		h.store.PushRecycle(h.overflow)
	}
	h.overflow = b
	return nil
}

func (h *AllocHead) span(b *BumpBlock, offset int, class SizeClass) Span {
	return Span{Meta: b.Meta(), Offset: uint32(offset), Class: class}
}

// Release returns the privately held blocks to the pool. Called on mutation
// scope exit; the head is unusable afterwards.
func (h *AllocHead) Release() {
	if h.head != nil {
		h.store.PushRecycle(h.head)
		h.head = nil
	}
	if h.overflow != nil {
		h.store.PushRecycle(h.overflow)
		h.overflow = nil
	}
}
