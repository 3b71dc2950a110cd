package gcarena

import "unsafe"

// WriteBarrier is a scoped window onto an object during which its mutable
// reference fields may be re-bound. Obtain one with Write; when the scope
// ends the written-into object is queued for rescanning, so the collector
// observes the post-state — this is what keeps a black object from hiding a
// white one.
type WriteBarrier[T any] struct {
	obj unsafe.Pointer
}

// Inner returns the object under the barrier, read-only by convention.
func (b *WriteBarrier[T]) Inner() *T {
	return (*T)(b.obj)
}

// Write opens a write barrier over the object behind r, runs f, and retraces
// the object on exit. All re-binding of RefMut and RefOpt fields must happen
// inside such a scope:
//
//	gcarena.Write(mu, node, func(b *gcarena.WriteBarrier[Node]) {
//		gcarena.SetRefOpt(b, &b.Inner().Next, other)
//	})
func Write[T any](m *Mutator, r Ref[T], f func(*WriteBarrier[T])) {
	m.assertActive()
	b := &WriteBarrier[T]{obj: r.ptr}
	f(b)
	m.Retrace(r)
}

// SetRef re-binds a mutable reference field of the object under the barrier.
// The field must belong to b's object; pointing the barrier at one object
// and writing through another breaks the collector's bookkeeping.
func SetRef[T, U any](b *WriteBarrier[T], field *RefMut[U], to Ref[U]) {
	field.set(to)
}

// SetRefOpt re-binds an optional reference field of the object under the
// barrier.
func SetRefOpt[T, U any](b *WriteBarrier[T], field *RefOpt[U], to Ref[U]) {
	field.set(to)
}

// ClearRefOpt nulls an optional reference field of the object under the
// barrier.
func ClearRefOpt[T, U any](b *WriteBarrier[T], field *RefOpt[U]) {
	field.clear()
}
