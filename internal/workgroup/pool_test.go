package workgroup

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_Workers(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"explicit", 3, 3},
		{"zero", 0, runtime.GOMAXPROCS(0)},
		{"negative", -2, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.in)
			defer p.Close()
			if got := p.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPool_DispatchVisitsEveryGroupOnce(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	const gx, gy = 13, 7
	var mu sync.Mutex
	seen := make(map[ID]int)

	if !p.Dispatch(gx, gy, func(id ID) {
		mu.Lock()
		seen[id]++
		mu.Unlock()
	}) {
		t.Fatal("Dispatch returned false on a running pool")
	}

	if len(seen) != gx*gy {
		t.Fatalf("visited %d groups, want %d", len(seen), gx*gy)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("group %v ran %d times", id, n)
		}
		if id.X < 0 || id.X >= gx || id.Y < 0 || id.Y >= gy {
			t.Errorf("group %v outside the grid", id)
		}
	}
}

func TestPool_DispatchEmptyGrid(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var calls atomic.Int32
	if !p.Dispatch(0, 5, func(ID) { calls.Add(1) }) {
		t.Error("empty grid should still report success")
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestPool_Stealing(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	// Group (0,0) is slow; the rest must not wait behind it.
	var fast atomic.Int32
	start := time.Now()
	p.Dispatch(16, 1, func(id ID) {
		if id.X == 0 {
			time.Sleep(50 * time.Millisecond)
			return
		}
		fast.Add(1)
	})
	if fast.Load() != 15 {
		t.Errorf("fast groups = %d, want 15", fast.Load())
	}
	if time.Since(start) > 2*time.Second {
		t.Error("dispatch took far too long")
	}
}

func TestPool_Closed(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	if p.Dispatch(2, 2, func(ID) { t.Error("ran on closed pool") }) {
		t.Error("Dispatch on closed pool should return false")
	}
}

func TestPool_ConcurrentDispatch(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Dispatch(5, 5, func(ID) { total.Add(1) })
		}()
	}
	wg.Wait()
	if total.Load() != 100 {
		t.Errorf("total = %d, want 100", total.Load())
	}
}
