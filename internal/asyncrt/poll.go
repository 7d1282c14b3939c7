package asyncrt

// PollKind reports whether a future finished.
type PollKind uint8

const (
	// PollPending means the future registered its waker and must be polled again later.
	PollPending PollKind = iota
	// PollReady means the future finished; Value holds its output.
	PollReady
)

// Poll is the result of polling a future once.
type Poll[T any] struct {
	Kind  PollKind
	Value T
}

// Pending returns a pending poll result.
func Pending[T any]() Poll[T] {
	return Poll[T]{Kind: PollPending}
}

// Ready returns a finished poll result carrying v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{Kind: PollReady, Value: v}
}

// IsReady reports whether the future finished.
func (p Poll[T]) IsReady() bool {
	return p.Kind == PollReady
}

// Future is a resumable computation.
type Future[T any] interface {
	Poll(w *Waker) Poll[T]
}

// PollFunc adapts an ordinary function into a Future.
type PollFunc[T any] func(w *Waker) Poll[T]

// Poll calls f(w).
func (f PollFunc[T]) Poll(w *Waker) Poll[T] {
	return f(w)
}

// Any erases the output type of f so it can be spawned.
func Any[T any](f Future[T]) Future[any] {
	if erased, ok := f.(Future[any]); ok {
		return erased
	}
	return PollFunc[any](func(w *Waker) Poll[any] {
		res := f.Poll(w)
		if res.Kind == PollPending {
			return Pending[any]()
		}
		return Ready[any](res.Value)
	})
}

// StreamKind reports what a stream produced.
type StreamKind uint8

const (
	// StreamPending means no item is available yet; the waker is registered.
	StreamPending StreamKind = iota
	// StreamItem means Item holds the next element.
	StreamItem
	// StreamEnd means the stream is exhausted and must not be polled again.
	StreamEnd
)

// StreamPoll is the result of polling a stream once.
type StreamPoll[T any] struct {
	Kind StreamKind
	Item T
}

// Stream is an asynchronous sequence.
type Stream[T any] interface {
	PollNext(w *Waker) StreamPoll[T]
}
