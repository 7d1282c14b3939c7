package asyncrt

import (
	"reflect"
	"testing"
)

// sliceStream yields its items one per poll and, once empty, either ends or
// stays pending until fed.
type sliceStream struct {
	items  []int
	closed bool
	waiter AtomicWaker
}

func (s *sliceStream) PollNext(w *Waker) StreamPoll[int] {
	if len(s.items) > 0 {
		item := s.items[0]
		s.items = s.items[1:]
		return StreamPoll[int]{Kind: StreamItem, Item: item}
	}
	if s.closed {
		return StreamPoll[int]{Kind: StreamEnd}
	}
	s.waiter.Register(w)
	return StreamPoll[int]{Kind: StreamPending}
}

func (s *sliceStream) feed(items ...int) {
	s.items = append(s.items, items...)
	s.waiter.Wake()
}

func TestCheckpointYieldsOnce(t *testing.T) {
	exec, _ := newTestExecutor(t, Config{})
	var order []string
	exec.Spawn(Any(Then(Checkpoint(), func(struct{}) Future[struct{}] {
		order = append(order, "a")
		return Value(struct{}{})
	})))
	exec.SpawnFunc(func(*Waker) Poll[any] {
		order = append(order, "b")
		return Ready[any](nil)
	})
	exec.RunReady()
	if !reflect.DeepEqual(order, []string{"b", "a"}) {
		t.Fatalf("checkpoint did not yield: %v", order)
	}
}

func TestThenChainsOutputs(t *testing.T) {
	var got any
	exec, _ := newTestExecutor(t, Config{OnComplete: func(_ TaskID, out any) { got = out }})
	exec.Spawn(Any(Then(Value(21), func(n int) Future[int] {
		return Value(n * 2)
	})))
	exec.RunReady()
	if got != 42 {
		t.Fatalf("want 42, got %v", got)
	}
}

func TestForEachDrivesStreamAcrossWakes(t *testing.T) {
	exec, _ := newTestExecutor(t, Config{})
	stream := &sliceStream{items: []int{1, 2}}
	var got []int
	finished := false
	exec.Spawn(Any(Then(ForEach[int](stream, func(v int) { got = append(got, v) }),
		func(struct{}) Future[struct{}] {
			finished = true
			return Value(struct{}{})
		})))

	exec.RunReady()
	if !reflect.DeepEqual(got, []int{1, 2}) || finished {
		t.Fatalf("after first run: got %v finished=%v", got, finished)
	}

	stream.feed(3)
	exec.RunReady()
	stream.closed = true
	stream.feed()
	exec.RunReady()

	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("items: got %v", got)
	}
	if !finished {
		t.Fatalf("ForEach did not finish after stream end")
	}
}

func TestForEachYieldsAfterBudget(t *testing.T) {
	exec, _ := newTestExecutor(t, Config{})
	items := make([]int, forEachBudget+5)
	stream := &sliceStream{items: items, closed: true}
	seen := 0
	exec.Spawn(Any(ForEach[int](stream, func(int) { seen++ })))

	other := 0
	exec.SpawnFunc(func(*Waker) Poll[any] {
		other = seen
		return Ready[any](nil)
	})
	exec.RunReady()

	if other != forEachBudget {
		t.Fatalf("second task should run after one budget, saw %d", other)
	}
	if seen != len(items) {
		t.Fatalf("stream not fully drained: %d of %d", seen, len(items))
	}
}

func TestAtomicWakerTakeAndWake(t *testing.T) {
	exec, _ := newTestExecutor(t, Config{})
	var aw AtomicWaker
	polls := 0
	id := exec.SpawnFunc(func(w *Waker) Poll[any] {
		polls++
		aw.Register(w)
		return Pending[any]()
	})
	exec.RunReady()

	if aw.Take() == nil {
		t.Fatalf("expected a registered waker")
	}
	aw.Wake() // nothing registered any more
	exec.RunReady()
	if polls != 1 {
		t.Fatalf("taken waker must not fire, polls=%d", polls)
	}

	exec.wakers[id].Wake()
	exec.RunReady()
	if polls != 2 {
		t.Fatalf("polls: want 2, got %d", polls)
	}
	aw.Wake()
	exec.RunReady()
	if polls != 3 {
		t.Fatalf("registered waker did not fire, polls=%d", polls)
	}
}
