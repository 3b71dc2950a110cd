package gcarena

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// Traceable is implemented by types that may contain arena references. Trace
// must call Trace on every Ref, RefMut, RefOpt and Array the value holds, and
// nothing else: it must not allocate, must not block, and must not touch
// non-reference fields of concurrently mutated objects.
type Traceable interface {
	Trace(*Tracer)
}

// Leaf marks a type as transitively reference-free. Embed it to allocate
// plain data in the arena:
//
//	type Point struct {
//		gcarena.Leaf
//		X, Y float64
//	}
//
// Leaves are skipped by the tracer and may be mutated without barriers.
// Types with no reference fields are treated as leaves automatically, with
// or without a Trace method; the embedded marker exists for documentation and to assert
// the property at registration.
type Leaf struct{}

// Trace is a no-op: a leaf has nothing to enumerate.
func (Leaf) Trace(*Tracer) {}

func (Leaf) leafMark() {}

type leafMarker interface{ leafMark() }

// refMarker is implemented (unexported) by the reference kinds so the
// registry can recognize reference fields structurally.
type refMarker interface{ gcRef() }

// Tracer walks the object graph during a cycle. User Trace implementations
// receive one and forward it to their reference fields; they never construct
// one themselves.
type Tracer struct {
	c      *collector
	local  []traceJob
	marked int64
}

// visit marks the object at obj and, if its type needs tracing, queues it for
// scanning. Losing the mark race means another tracer owns the scan.
func (t *Tracer) visit(obj unsafe.Pointer) {
	hdr := headerOf(obj)
	color := t.c.currentMark()
	if !hdr.setMark(color) {
		return
	}
	t.marked++

	info := typeInfoByID(hdr.typeID)
	if info.leaf {
		return
	}
	t.local = append(t.local, traceJob{ptr: obj, info: info})
}

// typeInfo is the dispatch token stored (by id) in every object header: the
// per-type trace function plus the layout facts the arena needs.
type typeInfo struct {
	id    uint32
	size  uintptr
	align uintptr
	leaf  bool

	// trace enumerates the outgoing references of an object of this type.
	// nil for leaves.
	trace func(unsafe.Pointer, *Tracer)
}

// The registry is the jump table behind header type ids. Registration is
// rare and locked; dispatch is a lock-free map read.
var registry struct {
	mu     sync.Mutex
	byType sync.Map // reflect.Type -> *typeInfo
	arrays sync.Map // element reflect.Type -> *typeInfo
	byID   sync.Map // uint32 -> *typeInfo
	nextID uint32
}

func typeInfoByID(id uint32) *typeInfo {
	v, ok := registry.byID.Load(id)
	if !ok {
		panic(fmt.Sprintf("gcarena: unregistered type id %d in header", id))
	}
	return v.(*typeInfo)
}

// takeID must be called with registry.mu held.
func takeID() uint32 {
	id := registry.nextID
	registry.nextID++
	return id
}

// typeInfoFor resolves (registering on first use) the dispatch token for T.
func typeInfoFor[T any]() *typeInfo {
	rt := reflect.TypeFor[T]()
	if v, ok := registry.byType.Load(rt); ok {
		return v.(*typeInfo)
	}
	return registerType[T](rt)
}

func registerType[T any](rt reflect.Type) *typeInfo {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if v, ok := registry.byType.Load(rt); ok {
		return v.(*typeInfo)
	}

	_, traceable := any((*T)(nil)).(Traceable)
	_, leafMarked := any((*T)(nil)).(leafMarker)
	hasRefs := validateArenaType(rt)

	switch {
	case leafMarked && hasRefs:
		panic(fmt.Sprintf("gcarena: %v declares itself a leaf but contains arena references", rt))
	case hasRefs && !traceable:
		panic(fmt.Sprintf("gcarena: %v contains arena references but does not implement Traceable", rt))
	}

	info := &typeInfo{
		id:    takeID(),
		size:  rt.Size(),
		align: uintptr(rt.Align()),
		leaf:  leafMarked || !hasRefs,
	}
	if !info.leaf {
		info.trace = func(p unsafe.Pointer, t *Tracer) {
			any((*T)(p)).(Traceable).Trace(t)
		}
	}

	registry.byID.Store(info.id, info)
	registry.byType.Store(rt, info)
	return info
}

// arrayInfoFor resolves the dispatch token for in-arena arrays of T. The
// element count lives in the object header, so one token serves every length.
func arrayInfoFor[T any]() *typeInfo {
	rt := reflect.TypeFor[T]()
	if v, ok := registry.arrays.Load(rt); ok {
		return v.(*typeInfo)
	}

	elem := typeInfoFor[T]()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if v, ok := registry.arrays.Load(rt); ok {
		return v.(*typeInfo)
	}

	info := &typeInfo{
		id:    takeID(),
		size:  elem.size,
		align: elem.align,
		leaf:  elem.leaf,
	}
	if !info.leaf {
		stride := elem.size
		elemTrace := elem.trace
		info.trace = func(p unsafe.Pointer, t *Tracer) {
			n := int(headerOf(p).length)
			for i := 0; i < n; i++ {
				elemTrace(unsafe.Add(p, uintptr(i)*stride), t)
			}
		}
	}

	registry.byID.Store(info.id, info)
	registry.arrays.Store(rt, info)
	return info
}

// validateArenaType walks rt and reports whether it contains reference
// fields. Kinds that smuggle Go-heap pointers are rejected outright: the
// arena's slabs are invisible to Go's collector, so such fields would dangle.
func validateArenaType(rt reflect.Type) bool {
	if reflect.PointerTo(rt).Implements(reflect.TypeFor[refMarker]()) {
		return true
	}

	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return validateArenaType(rt.Elem())
	case reflect.Struct:
		hasRefs := false
		for i := 0; i < rt.NumField(); i++ {
			if validateArenaType(rt.Field(i).Type) {
				hasRefs = true
			}
		}
		return hasRefs
	default:
		panic(fmt.Sprintf(
			"gcarena: %v cannot live in the arena: %v fields hold Go-heap pointers the collector cannot see",
			rt, rt.Kind()))
	}
}
