package gcarena_test

import (
	"fmt"

	"github.com/pavanmanishd/gcarena"
)

// Cell is a cons cell: traceable because it holds a reference.
type Cell struct {
	Value int64
	Next  gcarena.RefOpt[Cell]
}

func (c *Cell) Trace(t *gcarena.Tracer) {
	c.Next.Trace(t)
}

func Example() {
	cfg := gcarena.DefaultConfig()
	cfg.Monitor = false

	arena, err := gcarena.New(cfg, func(mu *gcarena.Mutator) (gcarena.Ref[Cell], error) {
		return gcarena.Alloc(mu, Cell{Value: 1})
	})
	if err != nil {
		panic(err)
	}
	defer arena.Close()

	// Build 1 -> 2 -> 3 and lots of garbage.
	err = arena.Mutate(func(mu *gcarena.Mutator, root gcarena.Ref[Cell]) error {
		three, err := gcarena.Alloc(mu, Cell{Value: 3})
		if err != nil {
			return err
		}
		two, err := gcarena.Alloc(mu, Cell{Value: 2, Next: gcarena.NewRefOpt(three)})
		if err != nil {
			return err
		}
		gcarena.Write(mu, root, func(b *gcarena.WriteBarrier[Cell]) {
			gcarena.SetRefOpt(b, &b.Inner().Next, two)
		})

		for i := 0; i < 100; i++ {
			if _, err := gcarena.Alloc(mu, Cell{Value: -1}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	// Reclaim the garbage; the list survives.
	arena.MajorCollect()

	arena.View(func(root gcarena.Ref[Cell]) {
		for cur := root.Value(); ; {
			fmt.Println(cur.Value)
			next, ok := cur.Next.Get()
			if !ok {
				break
			}
			cur = next.Value()
		}
	})

	// Output:
	// 1
	// 2
	// 3
}

func ExampleMutator_YieldRequested() {
	cfg := gcarena.DefaultConfig()
	cfg.Monitor = false
	cfg.HeapSoftCap = 1 << 16

	arena, err := gcarena.New(cfg, func(mu *gcarena.Mutator) (gcarena.Ref[Cell], error) {
		return gcarena.Alloc(mu, Cell{Value: 0})
	})
	if err != nil {
		panic(err)
	}
	defer arena.Close()

	err = arena.Mutate(func(mu *gcarena.Mutator, root gcarena.Ref[Cell]) error {
		for !mu.YieldRequested() {
			if _, err := gcarena.Alloc(mu, Cell{Value: -1}); err != nil {
				return err
			}
		}
		// The collector wants the scope back: return, let it reclaim,
		// re-enter to continue.
		return nil
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("yielded")
	// Output:
	// yielded
}
