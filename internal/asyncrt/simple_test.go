package asyncrt

import (
	"reflect"
	"testing"
)

// yieldingTask records name after yielding n times.
func yieldingTask(n int, name string, out *[]string) Future[any] {
	var f Future[struct{}] = Value(struct{}{})
	for i := 0; i < n; i++ {
		f = Then(f, func(struct{}) Future[struct{}] { return Checkpoint() })
	}
	return Any(Then(f, func(struct{}) Future[string] {
		*out = append(*out, name)
		return Value(name)
	}))
}

func TestSimpleExecutorMatchesExecutorOrder(t *testing.T) {
	var simple, full []string

	se := NewSimpleExecutor()
	se.Spawn(yieldingTask(2, "a", &simple))
	se.Spawn(yieldingTask(0, "b", &simple))
	se.Spawn(yieldingTask(1, "c", &simple))
	se.Run()

	exec, _ := newTestExecutor(t, Config{})
	exec.Spawn(yieldingTask(2, "a", &full))
	exec.Spawn(yieldingTask(0, "b", &full))
	exec.Spawn(yieldingTask(1, "c", &full))
	exec.RunReady()

	if !reflect.DeepEqual(simple, []string{"b", "c", "a"}) {
		t.Fatalf("simple executor order: %v", simple)
	}
	if !reflect.DeepEqual(simple, full) {
		t.Fatalf("executors disagree: simple %v, executor %v", simple, full)
	}
	if se.Polls() != exec.Stats().Polls {
		t.Fatalf("polls: simple %d, executor %d", se.Polls(), exec.Stats().Polls)
	}
}

func TestSimpleExecutorRepollsWithoutWake(t *testing.T) {
	se := NewSimpleExecutor()
	left := 3
	se.Spawn(PollFunc[any](func(w *Waker) Poll[any] {
		w.Wake()
		if left > 0 {
			left--
			return Pending[any]()
		}
		return Ready[any](nil)
	}))
	se.Run()
	if left != 0 || se.Polls() != 4 {
		t.Fatalf("want 4 polls, got %d (left %d)", se.Polls(), left)
	}
}
