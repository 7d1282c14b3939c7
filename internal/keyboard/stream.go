package keyboard

import "kasync/internal/asyncrt"

// ScancodeStream is the consumer side of a Source.
type ScancodeStream struct {
	src         *Source
	seenDropped uint64
}

// PollNext returns the next scancode, or registers w and reports pending.
//
// The queue is checked again after registering: a push that lands between the
// first check and the registration would otherwise never wake the task.
func (s *ScancodeStream) PollNext(w *asyncrt.Waker) asyncrt.StreamPoll[uint8] {
	if s.src == nil {
		panic("keyboard: poll on closed scancode stream")
	}
	src := s.src
	if code, ok := src.queue.TryPop(); ok {
		return asyncrt.StreamPoll[uint8]{Kind: asyncrt.StreamItem, Item: code}
	}
	if src.closed.Load() {
		return asyncrt.StreamPoll[uint8]{Kind: asyncrt.StreamEnd}
	}

	if src.beforeRegister != nil {
		src.beforeRegister()
	}
	src.waker.Register(w)
	if code, ok := src.queue.TryPop(); ok {
		src.waker.Take()
		return asyncrt.StreamPoll[uint8]{Kind: asyncrt.StreamItem, Item: code}
	}
	if src.closed.Load() {
		src.waker.Take()
		return asyncrt.StreamPoll[uint8]{Kind: asyncrt.StreamEnd}
	}
	return asyncrt.StreamPoll[uint8]{Kind: asyncrt.StreamPending}
}

// NewlyDropped returns how many scancodes were dropped since the previous call.
func (s *ScancodeStream) NewlyDropped() uint64 {
	if s.src == nil {
		return 0
	}
	total := s.src.Dropped()
	n := total - s.seenDropped
	s.seenDropped = total
	return n
}

// Close releases the stream so another one may be opened.
func (s *ScancodeStream) Close() {
	if s.src == nil {
		return
	}
	s.src.waker.Take()
	s.src.streamOpen.Store(false)
	s.src = nil
}
