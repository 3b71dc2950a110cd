package gcarena

import (
	"errors"

	"github.com/pavanmanishd/gcarena/internal/alloc"
)

var (
	// ErrHeapLimit is returned by allocation when the heap hard cap would
	// be exceeded. The mutation may yield, let a collection run, and retry.
	ErrHeapLimit = alloc.ErrHeapLimit

	// ErrAllocOverflow is returned for allocation sizes the arena cannot
	// represent.
	ErrAllocOverflow = alloc.ErrAllocOverflow

	// ErrArenaClosed is returned when an operation reaches an arena after
	// Close.
	ErrArenaClosed = errors.New("gcarena: arena is closed")
)
