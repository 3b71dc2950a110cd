// Package gcarena implements a concurrent, generational, mark-and-sweep
// garbage-collected arena: a managed heap for language runtimes and other
// hosts that need cheap allocation of cyclic object graphs with automatic
// reclamation.
//
// # Overview
//
// An arena owns a single root value. Everything reachable from the root
// survives collection; everything else is reclaimed. Allocation happens
// inside mutation scopes, tracing runs on background workers concurrently
// with mutation, and memory is freed between scopes — so a reference
// obtained inside a scope can never observe freed memory.
//
// # Basic Usage
//
//	type Node struct {
//		Value int64
//		Next  gcarena.RefOpt[Node]
//	}
//
//	func (n *Node) Trace(t *gcarena.Tracer) {
//		n.Next.Trace(t)
//	}
//
//	arena, err := gcarena.New(gcarena.DefaultConfig(),
//		func(mu *gcarena.Mutator) (gcarena.Ref[Node], error) {
//			return gcarena.Alloc(mu, Node{Value: 1})
//		})
//	defer arena.Close()
//
//	err = arena.Mutate(func(mu *gcarena.Mutator, root gcarena.Ref[Node]) error {
//		next, err := gcarena.Alloc(mu, Node{Value: 2})
//		if err != nil {
//			return err
//		}
//		gcarena.Write(mu, root, func(b *gcarena.WriteBarrier[Node]) {
//			gcarena.SetRefOpt(b, &b.Inner().Next, next)
//		})
//		return nil
//	})
//
// # The Trace Contract
//
// Types stored in the arena either contain references — and must implement
// Traceable, forwarding the tracer to every Ref, RefMut, RefOpt and Array
// field — or are leaves: plain data with nothing to enumerate. Leaf types
// need no Trace method; embedding Leaf asserts the property. The registry
// rejects types whose fields smuggle Go-heap pointers (slices, maps,
// strings, bare pointers): the arena's memory is invisible to Go's own
// collector, so such fields would dangle.
//
// # Yielding
//
// The collector cannot free memory while any scope is open. When tracing
// finishes, every active scope is asked to exit: long-running mutations must
// poll Mutator.YieldRequested and return when it reports true. A scope that
// never yields does not corrupt memory — it just stops reclamation, and the
// heap grows.
//
//	arena.Mutate(func(mu *gcarena.Mutator, root gcarena.Ref[Node]) error {
//		for !mu.YieldRequested() {
//			// ... allocate and mutate ...
//		}
//		return nil // re-enter later to continue
//	})
//
// # Write Barriers
//
// Re-binding a RefMut or RefOpt field must happen through a barrier scope
// (Write / SetRef / SetRefOpt). On scope exit the written-into object is
// queued for rescanning, which keeps concurrently traced objects from
// hiding new references and records old-to-young edges for minor cycles.
//
// # Collection
//
// Cycles run automatically (heap growth and generation-size triggers, see
// Config) or on demand with MajorCollect and MinorCollect. A major cycle
// traces the whole heap; a minor cycle traces only objects allocated since
// the last cycle plus barrier-recorded old objects, which is cheaper but
// frees less.
//
// # Memory Layout
//
// The heap is built from 32 KiB blocks subdivided into 128 B lines. Small
// objects bump-allocate into line-granular holes; medium objects take runs
// of free lines; objects larger than a block get dedicated blocks on an
// overflow list. Every object carries a header with its mark, size and
// trace dispatch token. Objects never move.
//
// # Errors
//
// Allocation against a full heap (Config.HeapHardCap) returns ErrHeapLimit,
// which is recoverable: yield, collect, retry. Contract violations — using a
// Mutator outside its scope, storing unsupported types — panic.
package gcarena
