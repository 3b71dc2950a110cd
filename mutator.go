package gcarena

import (
	"errors"
	"unsafe"

	"github.com/pavanmanishd/gcarena/internal/alloc"
)

// Mutator is the capability for allocating and mutating inside a mutation
// scope. One is handed to the body of Arena.Mutate and is valid only until
// the body returns; using it afterwards panics. A Mutator is bound to its
// scope's goroutine and is not safe for concurrent use, but any number of
// scopes may run concurrently on distinct goroutines.
type Mutator struct {
	c      *collector
	head   *alloc.AllocHead
	rescan []traceJob
	done   bool
}

func newMutator(c *collector) *Mutator {
	return &Mutator{
		c:    c,
		head: alloc.NewAllocHead(c.store),
	}
}

// finish flushes the retrace buffer, returns the private blocks to the pool
// and invalidates the handle. Runs on scope exit.
func (m *Mutator) finish() {
	m.c.work.push(m.rescan)
	m.rescan = nil
	m.head.Release()
	m.done = true
}

func (m *Mutator) assertActive() {
	if m == nil || m.done {
		panic("gcarena: mutator used outside its mutation scope")
	}
}

// YieldRequested reports that the collector wants this scope to end:
// tracing has drained and reclamation is waiting on mutator exit, or the
// heap is under pressure. A long-running mutation must poll this and return
// promptly when it turns true; a scope that never yields stalls reclamation
// (memory grows, but no freed object is ever observable).
func (m *Mutator) YieldRequested() bool {
	m.assertActive()
	return m.c.yieldRequested()
}

// Retrace queues the referenced object to be scanned (again) this cycle.
// The scoped barrier API retraces automatically; Retrace exists for
// hand-written Trace implementations of container types that update
// references through their own synchronization.
func (m *Mutator) Retrace(ref Retraceable) {
	m.assertActive()
	job, ok := ref.job()
	if !ok {
		return
	}
	m.rescan = append(m.rescan, job)

	if len(m.rescan) >= m.c.cfg.MutatorShareMin {
		m.c.work.push(m.rescan)
		m.rescan = nil
	}
}

// IsMarked reports whether the referenced object is already marked in the
// current cycle.
func IsMarked[T any](m *Mutator, r Ref[T]) bool {
	m.assertActive()
	return headerOf(r.ptr).marked(m.c.currentMark())
}

// Alloc stores value in the arena and returns a reference to it.
//
// The value's type is registered on first use: it may contain only
// reference kinds (Ref, RefMut, RefOpt, Array) and plain data; types with
// reference fields must implement Traceable. Zero-size values are promoted
// to one byte so every object has a distinct address.
//
// Returns ErrHeapLimit when the allocation would exceed the heap hard cap;
// the scope may yield, let a collection run, and retry.
func Alloc[T any](m *Mutator, value T) (Ref[T], error) {
	m.assertActive()
	info := typeInfoFor[T]()

	objPtr, err := m.rawAlloc(info, int(info.size), 0)
	if err != nil {
		return Ref[T]{}, err
	}

	*(*T)(objPtr) = value
	return Ref[T]{ptr: objPtr}, nil
}

// AllocArray stores an n-element array in the arena with every element set
// to value.
func AllocArray[T any](m *Mutator, value T, n int) (Array[T], error) {
	return allocArray[T](m, n, func(elems unsafe.Pointer, stride uintptr) {
		for i := 0; i < n; i++ {
			*(*T)(unsafe.Add(elems, uintptr(i)*stride)) = value
		}
	})
}

// AllocArrayFromSlice stores a copy of src in the arena.
func AllocArrayFromSlice[T any](m *Mutator, src []T) (Array[T], error) {
	return allocArray[T](m, len(src), func(elems unsafe.Pointer, stride uintptr) {
		copy(unsafe.Slice((*T)(elems), len(src)), src)
	})
}

// AllocArrayFromFunc stores an n-element array with element i set to fn(i).
func AllocArrayFromFunc[T any](m *Mutator, n int, fn func(int) T) (Array[T], error) {
	return allocArray[T](m, n, func(elems unsafe.Pointer, stride uintptr) {
		for i := 0; i < n; i++ {
			*(*T)(unsafe.Add(elems, uintptr(i)*stride)) = fn(i)
		}
	})
}

func allocArray[T any](m *Mutator, n int, fill func(unsafe.Pointer, uintptr)) (Array[T], error) {
	m.assertActive()
	if n < 0 {
		return Array[T]{}, ErrAllocOverflow
	}
	info := arrayInfoFor[T]()

	objPtr, err := m.rawAlloc(info, n*int(info.size), uint32(n))
	if err != nil {
		return Array[T]{}, err
	}

	fill(objPtr, info.size)
	return Array[T]{ptr: objPtr}, nil
}

// rawAlloc carves header+object space, installs the header, and returns the
// object pointer. Objects are born white (unmarked); reachability is what
// keeps them alive through the next cycle.
func (m *Mutator) rawAlloc(info *typeInfo, objSize int, length uint32) (unsafe.Pointer, error) {
	if objSize <= 0 {
		objSize = 1
	}
	total := headerSize + objSize

	ptr, span, err := m.head.Alloc(total, objectAlign)
	if err != nil {
		if errors.Is(err, alloc.ErrHeapLimit) {
			// Ask every scope to yield so a collection can run.
			m.c.urgent.Store(true)
		}
		return nil, err
	}

	hdr := (*header)(ptr)
	hdr.mark.Store(markNew)
	hdr.typeID = info.id
	hdr.size = uint32(total)
	hdr.length = length
	hdr.span = span

	return unsafe.Add(ptr, headerSize), nil
}
