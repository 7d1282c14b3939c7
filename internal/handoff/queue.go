package handoff

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// cacheLine separates the producer and consumer cursors.
const cacheLine = 64

type slot[T any] struct {
	seq atomic.Uint64
	val T
}

// Queue is a bounded lock-free ring shared by interrupt-context producers and a
// task-context consumer.
//
// Each slot carries a sequence number that tells producers and consumers whose
// turn it is, so concurrent producers never overwrite each other and a pop never
// observes a half-written value. Push and pop are wait-free on the uncontended
// path and never allocate.
//
// When the ring is full the newest item is dropped and counted.
type Queue[T any] struct {
	_    noCopy
	tail atomic.Uint64 // next push position
	_    [cacheLine - 8]byte
	head atomic.Uint64 // next pop position
	_    [cacheLine - 8]byte

	mask    uint64
	slots   []slot[T]
	dropped atomic.Uint64
}

// New allocates a queue holding at least capacity items. The capacity is
// rounded up to the next power of two.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("handoff: invalid capacity %d", capacity))
	}
	size := uint64(1) << bits.Len64(uint64(capacity-1))
	q := &Queue[T]{
		mask:  size - 1,
		slots: make([]slot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush appends v. It reports false and drops v when the queue is full.
// Safe to call from any number of producers concurrently.
func (q *Queue[T]) TryPush(v T) bool {
	pos := q.tail.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				s.val = v
				s.seq.Store(pos + 1)
				return true
			}
			pos = q.tail.Load()
		case diff < 0:
			// slot still owned by the consumer from the previous lap
			q.dropped.Add(1)
			return false
		default:
			pos = q.tail.Load()
		}
	}
}

// TryPop removes the oldest item. It never blocks.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T
	pos := q.head.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch diff := int64(seq - (pos + 1)); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				v := s.val
				s.val = zero
				s.seq.Store(pos + q.mask + 1)
				return v, true
			}
			pos = q.head.Load()
		case diff < 0:
			return zero, false
		default:
			pos = q.head.Load()
		}
	}
}

// Len returns an approximate number of queued items.
func (q *Queue[T]) Len() int {
	for {
		tail := q.tail.Load()
		head := q.head.Load()
		if q.tail.Load() != tail {
			continue
		}
		n := tail - head
		if n > q.mask+1 {
			// head overtook a stale tail read
			return 0
		}
		return int(n) //nolint:gosec // bounded by capacity
	}
}

// IsEmpty reports whether no item is queued.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.slots)
}

// Dropped returns how many pushes were rejected because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

// noCopy is flagged by go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
