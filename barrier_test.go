package gcarena

import (
	"runtime"
	"sync"
	"testing"
)

// TestWriteBarrierReplacesSubgraph overwrites the sole reference to a large
// subgraph and checks that the replacement survives a full cycle while the
// subgraph is reclaimed.
func TestWriteBarrierReplacesSubgraph(t *testing.T) {
	arena, err := New(testConfig(), func(mu *Mutator) (Ref[listNode], error) {
		return Alloc(mu, listNode{value: -1})
	})
	if err != nil {
		t.Fatal(err)
	}
	defer arena.Close()

	err = arena.Mutate(func(mu *Mutator, root Ref[listNode]) error {
		head := buildList(t, mu, 5000)
		Write(mu, root, func(b *WriteBarrier[listNode]) {
			SetRefOpt(b, &b.Inner().next, head)
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	arena.MajorCollect()
	withSubgraph := arena.Metrics().HeapSize

	// Replace the subgraph with a single fresh node.
	err = arena.Mutate(func(mu *Mutator, root Ref[listNode]) error {
		replacement, err := Alloc(mu, listNode{value: 0})
		if err != nil {
			return err
		}
		Write(mu, root, func(b *WriteBarrier[listNode]) {
			SetRefOpt(b, &b.Inner().next, replacement)
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	arena.MajorCollect()
	after := arena.Metrics()

	if after.HeapSize >= withSubgraph {
		t.Errorf("replaced subgraph not reclaimed: heap %d -> %d", withSubgraph, after.HeapSize)
	}
	arena.View(func(root Ref[listNode]) {
		head, ok := root.Value().next.Get()
		if !ok {
			t.Fatal("replacement lost")
		}
		if n, intact := countList(head.Value()); !intact || n != 1 {
			t.Errorf("replacement list = (%d, %v), want (1, true)", n, intact)
		}
	})
}

// TestWriteBarrierRescueDuringCycle races a mutation against a running
// collection: the object written behind the barrier mid-cycle must survive.
func TestWriteBarrierRescueDuringCycle(t *testing.T) {
	arena, err := New(testConfig(), func(mu *Mutator) (Ref[listNode], error) {
		return Alloc(mu, listNode{value: -1})
	})
	if err != nil {
		t.Fatal(err)
	}
	defer arena.Close()

	var wg sync.WaitGroup
	err = arena.Mutate(func(mu *Mutator, root Ref[listNode]) error {
		// Kick off a collection while this scope is live.
		wg.Add(1)
		go func() {
			defer wg.Done()
			arena.MajorCollect()
		}()

		fresh, err := Alloc(mu, listNode{value: 0})
		if err != nil {
			return err
		}
		Write(mu, root, func(b *WriteBarrier[listNode]) {
			SetRefOpt(b, &b.Inner().next, fresh)
		})

		// Hold the scope open until the collector asks for it back.
		for !mu.YieldRequested() {
			runtime.Gosched()
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	arena.View(func(root Ref[listNode]) {
		head, ok := root.Value().next.Get()
		if !ok {
			t.Fatal("barrier-written object lost")
		}
		if head.Value().value != 0 {
			t.Errorf("barrier-written object corrupted: value = %d", head.Value().value)
		}
	})
}

func TestClearRefOpt(t *testing.T) {
	arena := newSlotsArena(t)
	defer arena.Close()

	err := arena.Mutate(func(mu *Mutator, root Ref[tenSlots]) error {
		ref, err := Alloc(mu, payload{})
		if err != nil {
			return err
		}
		Write(mu, root, func(b *WriteBarrier[tenSlots]) {
			SetRefOpt(b, &b.Inner().slots[0], ref)
		})
		Write(mu, root, func(b *WriteBarrier[tenSlots]) {
			ClearRefOpt(b, &b.Inner().slots[0])
		})
		if !root.Value().slots[0].IsNull() {
			t.Error("cleared slot is not null")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	arena.MajorCollect()
	// Only the root remains.
	if got := arena.Metrics().LastCycleMarked; got != 1 {
		t.Errorf("marked = %d, want 1", got)
	}
}

func TestIsMarked(t *testing.T) {
	arena := newSlotsArena(t)
	defer arena.Close()

	arena.MajorCollect()

	err := arena.Mutate(func(mu *Mutator, root Ref[tenSlots]) error {
		if !IsMarked(mu, root) {
			t.Error("root unmarked after a major cycle")
		}
		fresh, err := Alloc(mu, payload{})
		if err != nil {
			return err
		}
		if IsMarked(mu, fresh) {
			t.Error("fresh allocation already marked")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRetraceByHand(t *testing.T) {
	arena := newSlotsArena(t)
	defer arena.Close()

	err := arena.Mutate(func(mu *Mutator, root Ref[tenSlots]) error {
		ref, err := Alloc(mu, payload{})
		if err != nil {
			return err
		}
		Write(mu, root, func(b *WriteBarrier[tenSlots]) {
			SetRefOpt(b, &b.Inner().slots[3], ref)
		})
		// A hand-written container would do this instead of Write.
		mu.Retrace(root)
		mu.Retrace(ref)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	arena.MajorCollect()
	if got := arena.Metrics().LastCycleMarked; got != 2 {
		t.Errorf("marked = %d, want 2", got)
	}
}
