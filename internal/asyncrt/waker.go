package asyncrt

import (
	"sync/atomic"

	"kasync/internal/handoff"
)

const (
	wakerIdle uint32 = iota
	wakerQueued
	wakerRetired
)

// Waker re-enqueues one task on its executor's ready queue.
//
// Wake is safe from interrupt context: it is a compare-and-swap followed by a
// lock-free push, and it never allocates. A task occupies at most one ready
// slot no matter how often it is woken, and waking a task that has completed
// does nothing.
type Waker struct {
	id    TaskID
	ready *handoff.Queue[TaskID]
	state atomic.Uint32
}

func newWaker(id TaskID, ready *handoff.Queue[TaskID]) *Waker {
	return &Waker{id: id, ready: ready}
}

// TaskID returns the task this waker belongs to.
func (w *Waker) TaskID() TaskID {
	if w == nil {
		return 0
	}
	return w.id
}

// Wake marks the task ready.
func (w *Waker) Wake() {
	if w == nil || !w.state.CompareAndSwap(wakerIdle, wakerQueued) {
		return
	}
	if !w.ready.TryPush(w.id) {
		// Unreachable while spawn enforces the ready-queue bound; leave the
		// waker wakeable rather than wedged in the queued state.
		w.state.CompareAndSwap(wakerQueued, wakerIdle)
	}
}

// dequeued is called by the run loop after popping the ID, before polling, so
// a wake issued during the poll queues the task again.
func (w *Waker) dequeued() {
	w.state.CompareAndSwap(wakerQueued, wakerIdle)
}

// retire disables the waker for good. It reports whether an entry for the task
// is still sitting in the ready queue.
func (w *Waker) retire() bool {
	return w.state.Swap(wakerRetired) == wakerQueued
}

// AtomicWaker holds at most one registered waker and can be woken from
// interrupt context. Each operation is a single atomic pointer exchange.
type AtomicWaker struct {
	w atomic.Pointer[Waker]
}

// Register installs w, replacing any previous registration.
func (a *AtomicWaker) Register(w *Waker) {
	a.w.Store(w)
}

// Take removes and returns the registered waker.
func (a *AtomicWaker) Take() *Waker {
	return a.w.Swap(nil)
}

// Wake wakes and unregisters the registered waker, if any.
func (a *AtomicWaker) Wake() {
	if w := a.Take(); w != nil {
		w.Wake()
	}
}
