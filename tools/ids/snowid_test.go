package ids

import (
	"sync"
	"testing"
)

func TestNextStrictlyIncreasing(t *testing.T) {
	g := New(1)
	prev := g.Next()
	for i := 0; i < 10000; i++ {
		id := g.Next()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNextUniqueUnderConcurrency(t *testing.T) {
	g := New(3)
	const perWorker = 2000
	var wg sync.WaitGroup
	out := make(chan int64, 4*perWorker)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				out <- g.Next()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[int64]struct{}, 4*perWorker)
	for id := range out {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNodeEmbeddedInID(t *testing.T) {
	g := New(42)
	id := g.Next()
	if node := (id >> seqBits) & MaxNode; node != 42 {
		t.Errorf("node bits = %d, want 42", node)
	}
}

func TestNodeClamped(t *testing.T) {
	for _, bad := range []int64{-1, MaxNode + 1} {
		g := New(bad)
		id := g.Next()
		if node := (id >> seqBits) & MaxNode; node != 1 {
			t.Errorf("New(%d): node bits = %d, want clamped 1", bad, node)
		}
	}
}
