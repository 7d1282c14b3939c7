package handoff

import (
	"runtime"
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int](8)
	for i := 1; i <= 8; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	for want := 1; want <= 8; want++ {
		got, ok := q.TryPop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", want)
		}
		if got != want {
			t.Fatalf("pop order: want %d, got %d", want, got)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestQueueDropsNewestOnOverflow(t *testing.T) {
	q := New[uint8](4)
	for i := uint8(1); i <= 6; i++ {
		q.TryPush(i)
	}
	if q.Len() != 4 {
		t.Fatalf("len: want 4, got %d", q.Len())
	}
	if q.Dropped() != 2 {
		t.Fatalf("dropped: want 2, got %d", q.Dropped())
	}
	var got []uint8
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	want := []uint8{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained %v, want %v", got, want)
		}
	}
}

func TestQueueCapacityPlusK(t *testing.T) {
	const k = 5
	q := New[int](16)
	for i := 0; i < q.Cap()+k; i++ {
		q.TryPush(i)
	}
	if q.Len() != q.Cap() {
		t.Fatalf("retained: want %d, got %d", q.Cap(), q.Len())
	}
	if q.Dropped() != k {
		t.Fatalf("dropped: want %d, got %d", k, q.Dropped())
	}
}

func TestQueueRoundsCapacityUp(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 100: 128, 128: 128}
	for in, want := range cases {
		if got := New[byte](in).Cap(); got != want {
			t.Errorf("New(%d).Cap() = %d, want %d", in, got, want)
		}
	}
}

func TestQueueInvalidCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for zero capacity")
		}
	}()
	New[int](0)
}

func TestQueueWrapsAround(t *testing.T) {
	q := New[int](2)
	for i := 0; i < 100; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed", i)
		}
		got, ok := q.TryPop()
		if !ok || got != i {
			t.Fatalf("lap %d: got %d ok=%v", i, got, ok)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("expected empty queue after laps")
	}
}

func TestQueueConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	const (
		producers = 4
		perProd   = 2000
	)
	q := New[[2]int](64)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; {
				if !q.TryPush([2]int{p, i}) {
					runtime.Gosched()
					continue
				}
				i++
			}
		}(p)
	}

	next := make([]int, producers)
	received := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for received < producers*perProd {
		item, ok := q.TryPop()
		if !ok {
			select {
			case <-done:
				if q.IsEmpty() && received < producers*perProd {
					t.Fatalf("lost items: received %d of %d", received, producers*perProd)
				}
			default:
			}
			runtime.Gosched()
			continue
		}
		p, i := item[0], item[1]
		if i != next[p] {
			t.Fatalf("producer %d: want item %d, got %d", p, next[p], i)
		}
		next[p]++
		received++
	}
}
