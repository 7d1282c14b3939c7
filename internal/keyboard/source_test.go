package keyboard

import (
	"fmt"
	"reflect"
	"testing"

	"kasync/internal/asyncrt"
)

type idleCPU struct{ halts int }

func (c *idleCPU) DisableInterrupts() {}
func (c *idleCPU) EnableInterrupts()  {}
func (c *idleCPU) EnableAndHalt()     { c.halts++ }

// resetGlobal clears the process-wide scancode queue for the test and after it.
func resetGlobal(t *testing.T) {
	t.Helper()
	scancodes.Store(nil)
	t.Cleanup(func() { scancodes.Store(nil) })
}

func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic %q", want)
		}
		if got := fmt.Sprint(r); got != want {
			t.Fatalf("panic mismatch: want %q, got %q", want, got)
		}
	}()
	fn()
}

func TestInitTwicePanics(t *testing.T) {
	resetGlobal(t)
	Init(4)
	expectPanic(t, "keyboard: scancode queue already initialized", func() { Init(4) })
}

func TestStreamBeforeInitPanics(t *testing.T) {
	resetGlobal(t)
	expectPanic(t, "keyboard: scancode queue not initialized", func() { NewScancodeStream() })
}

func TestAddScancodeBeforeInitIsCounted(t *testing.T) {
	resetGlobal(t)
	before := UninitializedDrops()
	AddScancode(0x1E)
	if got := UninitializedDrops() - before; got != 1 {
		t.Fatalf("uninitialized drops: want 1, got %d", got)
	}
	src := Init(4)
	if src.Len() != 0 {
		t.Fatalf("byte sent before Init must not reach the queue")
	}
}

func TestSecondStreamPanicsUntilClosed(t *testing.T) {
	resetGlobal(t)
	Init(4)
	s := NewScancodeStream()
	expectPanic(t, "keyboard: scancode stream already open", func() { NewScancodeStream() })
	s.Close()
	NewScancodeStream().Close()
}

func TestStreamDeliversPushedItemsInOrder(t *testing.T) {
	resetGlobal(t)
	src := Init(4)
	cpu := &idleCPU{}
	exec := asyncrt.NewExecutor(asyncrt.Config{}, cpu)

	var got []uint8
	exec.Spawn(asyncrt.Any(asyncrt.ForEach[uint8](NewScancodeStream(), func(b uint8) {
		got = append(got, b)
	})))
	exec.RunReady()
	if len(got) != 0 {
		t.Fatalf("nothing pushed yet, got %v", got)
	}

	for _, b := range []uint8{10, 20, 30} {
		AddScancode(b)
	}
	exec.RunReady()

	if !reflect.DeepEqual(got, []uint8{10, 20, 30}) {
		t.Fatalf("want [10 20 30], got %v", got)
	}
	if !exec.Idle() {
		t.Fatalf("executor should be idle after draining")
	}
	if src.Dropped() != 0 {
		t.Fatalf("unexpected drops: %d", src.Dropped())
	}
}

func TestOverflowDropsNewest(t *testing.T) {
	src := NewSource(4)
	for b := uint8(1); b <= 6; b++ {
		src.Push(b)
	}
	if src.Len() != 4 || src.Dropped() != 2 {
		t.Fatalf("want 4 retained and 2 dropped, got len=%d dropped=%d", src.Len(), src.Dropped())
	}
	s := src.Stream()
	var got []uint8
	for {
		p := s.PollNext(nil)
		if p.Kind != asyncrt.StreamItem {
			break
		}
		got = append(got, p.Item)
	}
	if !reflect.DeepEqual(got, []uint8{1, 2, 3, 4}) {
		t.Fatalf("drained %v", got)
	}
	if n := s.NewlyDropped(); n != 2 {
		t.Fatalf("newly dropped: want 2, got %d", n)
	}
	if n := s.NewlyDropped(); n != 0 {
		t.Fatalf("drops must be reported once, got %d", n)
	}
}

func TestPushAfterRegisterWakesConsumer(t *testing.T) {
	src := NewSource(4)
	s := src.Stream()
	exec := asyncrt.NewExecutor(asyncrt.Config{}, &idleCPU{})
	polls := 0
	var got []uint8
	exec.SpawnFunc(func(w *asyncrt.Waker) asyncrt.Poll[any] {
		polls++
		for {
			p := s.PollNext(w)
			switch p.Kind {
			case asyncrt.StreamItem:
				got = append(got, p.Item)
			case asyncrt.StreamEnd:
				return asyncrt.Ready[any](nil)
			default:
				return asyncrt.Pending[any]()
			}
		}
	})
	exec.RunReady()
	if polls != 1 || !exec.Idle() {
		t.Fatalf("consumer should be parked after one poll, polls=%d", polls)
	}

	// The producer runs after registration: its wake must requeue the task.
	src.Push(7)
	if exec.Idle() {
		t.Fatalf("push after register did not wake the consumer")
	}
	exec.RunReady()
	if !reflect.DeepEqual(got, []uint8{7}) || polls != 2 {
		t.Fatalf("got %v after %d polls", got, polls)
	}
}

func TestQueuedItemSkipsRegistration(t *testing.T) {
	src := NewSource(4)
	s := src.Stream()
	exec := asyncrt.NewExecutor(asyncrt.Config{}, &idleCPU{})
	var got asyncrt.StreamPoll[uint8]
	exec.SpawnFunc(func(w *asyncrt.Waker) asyncrt.Poll[any] {
		got = s.PollNext(w)
		return asyncrt.Ready[any](nil)
	})
	src.Push(9)
	exec.RunReady()
	if got.Kind != asyncrt.StreamItem || got.Item != 9 {
		t.Fatalf("want item 9, got %+v", got)
	}
	if src.waker.Take() != nil {
		t.Fatalf("a ready item must not leave a waker registered")
	}
}

func TestPushBeforeRegisterIsFoundOnRecheck(t *testing.T) {
	src := NewSource(4)
	s := src.Stream()
	// The push lands after the first empty check but before registration, so
	// its wake finds no waker. Only the second check can see the item.
	src.beforeRegister = func() {
		src.beforeRegister = nil
		src.Push(5)
	}
	exec := asyncrt.NewExecutor(asyncrt.Config{}, &idleCPU{})
	polls := 0
	var got asyncrt.StreamPoll[uint8]
	exec.SpawnFunc(func(w *asyncrt.Waker) asyncrt.Poll[any] {
		polls++
		got = s.PollNext(w)
		if got.Kind == asyncrt.StreamPending {
			return asyncrt.Pending[any]()
		}
		return asyncrt.Ready[any](nil)
	})
	exec.RunReady()

	if got.Kind != asyncrt.StreamItem || got.Item != 5 {
		t.Fatalf("the same poll must return the item, got %+v", got)
	}
	if polls != 1 || exec.Stats().Completed != 1 {
		t.Fatalf("want one poll and completion, polls=%d stats=%+v", polls, exec.Stats())
	}
	if src.waker.Take() != nil {
		t.Fatalf("waker left registered after the item was taken")
	}
	if !exec.Idle() {
		t.Fatalf("no wake should be queued")
	}
}

func TestShutdownEndsStreamAfterDrain(t *testing.T) {
	src := NewSource(4)
	s := src.Stream()
	src.Push(1)
	src.Shutdown()
	if p := s.PollNext(nil); p.Kind != asyncrt.StreamItem || p.Item != 1 {
		t.Fatalf("queued item must be delivered before end, got %+v", p)
	}
	if p := s.PollNext(nil); p.Kind != asyncrt.StreamEnd {
		t.Fatalf("want end, got %+v", p)
	}
	s.Close()
	expectPanic(t, "keyboard: poll on closed scancode stream", func() { s.PollNext(nil) })
}
