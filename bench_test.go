package gcarena

import "testing"

func benchArena(b *testing.B) *Arena[tenSlots] {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Monitor = false
	arena, err := New(cfg, func(mu *Mutator) (Ref[tenSlots], error) {
		return Alloc(mu, tenSlots{})
	})
	if err != nil {
		b.Fatal(err)
	}
	return arena
}

func BenchmarkAllocSmall(b *testing.B) {
	arena := benchArena(b)
	defer arena.Close()

	b.ResetTimer()
	err := arena.Mutate(func(mu *Mutator, root Ref[tenSlots]) error {
		for i := 0; i < b.N; i++ {
			if _, err := Alloc(mu, payload{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

func BenchmarkAllocLinkedNodes(b *testing.B) {
	arena, err := New(DefaultConfig(), func(mu *Mutator) (Ref[listNode], error) {
		return Alloc(mu, listNode{})
	})
	if err != nil {
		b.Fatal(err)
	}
	defer arena.Close()

	b.ResetTimer()
	err = arena.Mutate(func(mu *Mutator, root Ref[listNode]) error {
		head, err := Alloc(mu, listNode{})
		if err != nil {
			return err
		}
		for i := 0; i < b.N; i++ {
			head, err = Alloc(mu, listNode{value: int64(i), next: NewRefOpt(head)})
			if err != nil {
				return err
			}
			if mu.YieldRequested() {
				break
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

func BenchmarkMajorCollectQuiescent(b *testing.B) {
	arena := benchArena(b)
	defer arena.Close()

	err := arena.Mutate(func(mu *Mutator, root Ref[tenSlots]) error {
		for slot := 0; slot < 10; slot++ {
			ref, err := Alloc(mu, payload{})
			if err != nil {
				return err
			}
			Write(mu, root, func(wb *WriteBarrier[tenSlots]) {
				SetRefOpt(wb, &wb.Inner().slots[slot], ref)
			})
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		arena.MajorCollect()
	}
}

func BenchmarkCollectLiveList(b *testing.B) {
	arena, err := New(DefaultConfig(), func(mu *Mutator) (Ref[listNode], error) {
		return Alloc(mu, listNode{})
	})
	if err != nil {
		b.Fatal(err)
	}
	defer arena.Close()

	err = arena.Mutate(func(mu *Mutator, root Ref[listNode]) error {
		head, err := Alloc(mu, listNode{value: 9999})
		if err != nil {
			return err
		}
		for i := 9998; i >= 0; i-- {
			head, err = Alloc(mu, listNode{value: int64(i), next: NewRefOpt(head)})
			if err != nil {
				return err
			}
		}
		Write(mu, root, func(wb *WriteBarrier[listNode]) {
			SetRefOpt(wb, &wb.Inner().next, head)
		})
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		arena.MajorCollect()
	}
}
