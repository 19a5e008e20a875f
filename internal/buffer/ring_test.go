package buffer

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewRing(t *testing.T) {
	r := NewRing[int](100)
	if r.Cap() != 100 {
		t.Errorf("expected capacity 100, got %d", r.Cap())
	}
	if r.Len() != 0 {
		t.Errorf("expected length 0, got %d", r.Len())
	}

	// Zero and negative capacities default to 1
	for _, c := range []int{0, -5} {
		if got := NewRing[int](c).Cap(); got != 1 {
			t.Errorf("expected capacity 1 for %d, got %d", c, got)
		}
	}
}

func TestRing_Overwrite(t *testing.T) {
	r := NewRing[string](3)
	for _, s := range []string{"a", "b"} {
		r.Push(s)
	}
	if got := r.Items(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}

	for _, s := range []string{"c", "d", "e"} {
		r.Push(s)
	}
	got := r.Items()
	want := []string{"c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	// The returned slice is a copy
	got[0] = "mutated"
	if r.Items()[0] != "c" {
		t.Error("Items must not alias the ring")
	}
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Clear()

	if r.Len() != 0 || len(r.Items()) != 0 {
		t.Errorf("expected empty ring after Clear, got %v", r.Items())
	}
	r.Push(4)
	if got := r.Items(); len(got) != 1 || got[0] != 4 {
		t.Errorf("expected [4], got %v", got)
	}
}

func TestRing_ConcurrentPush(t *testing.T) {
	r := NewRing[int](50)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(base*100 + j)
				_ = r.Items()
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("expected full ring of 50, got %d", r.Len())
	}
}

// The ring always holds the last min(n, capacity) pushed items in order.
func TestRingKeepsMostRecentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("ring holds the most recent items in push order", prop.ForAll(
		func(capacity int, items []int) bool {
			r := NewRing[int](capacity)
			for _, it := range items {
				r.Push(it)
			}

			want := items
			if len(want) > capacity {
				want = want[len(want)-capacity:]
			}
			got := r.Items()
			if len(got) != len(want) || r.Len() != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.SliceOf(gen.Int()),
	))

	properties.TestingRun(t)
}
