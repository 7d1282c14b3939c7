// Package keyboard turns raw keyboard scancodes delivered by interrupts into
// decoded keys consumed by a task.
//
// The interrupt handler calls AddScancode, which pushes one byte onto the
// process-wide scancode queue and wakes the task blocked on it. The task reads
// through a ScancodeStream and decodes with a Decoder.
package keyboard

import (
	"sync/atomic"

	"kasync/internal/asyncrt"
	"kasync/internal/handoff"
)

// DefaultQueueCapacity is the scancode queue size used when none is configured.
const DefaultQueueCapacity = 100

// Source is a scancode queue plus the waker of its single consumer.
type Source struct {
	queue      *handoff.Queue[uint8]
	waker      asyncrt.AtomicWaker
	closed     atomic.Bool
	streamOpen atomic.Bool

	// beforeRegister, when set, runs in PollNext after the queue was found
	// empty and before the waker is registered. Tests use it to land a push
	// in that window.
	beforeRegister func()
}

// NewSource allocates a source whose queue holds at least capacity scancodes.
func NewSource(capacity int) *Source {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Source{queue: handoff.New[uint8](capacity)}
}

// Push queues one scancode and wakes the consumer. On a full queue the code is
// dropped and counted, and Push reports false. Interrupt-safe.
func (s *Source) Push(code uint8) bool {
	if !s.queue.TryPush(code) {
		return false
	}
	// Wake only after the push, or the task could run and find nothing.
	s.waker.Wake()
	return true
}

// Shutdown ends the stream once the queued scancodes are consumed.
func (s *Source) Shutdown() {
	s.closed.Store(true)
	s.waker.Wake()
}

// Dropped returns how many scancodes were lost to a full queue.
func (s *Source) Dropped() uint64 {
	return s.queue.Dropped()
}

// Len returns the number of queued scancodes.
func (s *Source) Len() int {
	return s.queue.Len()
}

// Cap returns the queue capacity.
func (s *Source) Cap() int {
	return s.queue.Cap()
}

// Stream opens the consumer side. Only one stream may be open at a time
// because the queue has a single consumer.
func (s *Source) Stream() *ScancodeStream {
	if !s.streamOpen.CompareAndSwap(false, true) {
		panic("keyboard: scancode stream already open")
	}
	return &ScancodeStream{src: s}
}

var (
	scancodes   atomic.Pointer[Source]
	uninitDrops atomic.Uint64
)

// Init creates the process-wide scancode queue. Calling it twice is a wiring
// bug and panics.
func Init(capacity int) *Source {
	src := NewSource(capacity)
	if !scancodes.CompareAndSwap(nil, src) {
		panic("keyboard: scancode queue already initialized")
	}
	return src
}

// Installed returns the process-wide source, or nil before Init.
func Installed() *Source {
	return scancodes.Load()
}

// AddScancode is called by the keyboard interrupt handler. It must not block
// or allocate. Before Init the code is discarded and counted.
func AddScancode(code uint8) {
	src := scancodes.Load()
	if src == nil {
		uninitDrops.Add(1)
		return
	}
	src.Push(code)
}

// UninitializedDrops returns how many scancodes arrived before Init.
func UninitializedDrops() uint64 {
	return uninitDrops.Load()
}

// NewScancodeStream opens the stream over the process-wide queue. It panics if
// Init has not run.
func NewScancodeStream() *ScancodeStream {
	src := scancodes.Load()
	if src == nil {
		panic("keyboard: scancode queue not initialized")
	}
	return src.Stream()
}
