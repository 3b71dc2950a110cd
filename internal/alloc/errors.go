package alloc

import "errors"

var (
	// ErrHeapLimit is returned when an allocation would push the heap past
	// the configured hard cap. The caller may let a collection run and retry.
	ErrHeapLimit = errors.New("alloc: heap hard cap reached")

	// ErrAllocOverflow is returned for allocation sizes the allocator cannot
	// represent (non-positive after promotion, or above MaxAllocSize).
	ErrAllocOverflow = errors.New("alloc: allocation size out of range")
)
