package asyncrt

// forEachBudget caps how many items ForEach handles per poll before yielding
// to other ready tasks.
const forEachBudget = 32

type valueFuture[T any] struct {
	v T
}

func (f *valueFuture[T]) Poll(*Waker) Poll[T] {
	return Ready(f.v)
}

// Value returns a future that is ready on its first poll with v.
func Value[T any](v T) Future[T] {
	return &valueFuture[T]{v: v}
}

type checkpoint struct {
	polled bool
}

func (c *checkpoint) Poll(w *Waker) Poll[struct{}] {
	if c.polled {
		return Ready(struct{}{})
	}
	c.polled = true
	w.Wake()
	return Pending[struct{}]()
}

// Checkpoint returns a future that yields to the other ready tasks exactly
// once: the first poll wakes itself and returns PollPending.
func Checkpoint() Future[struct{}] {
	return &checkpoint{}
}

type thenState uint8

const (
	thenFirst thenState = iota
	thenSecond
	thenDone
)

type thenFuture[A, B any] struct {
	state  thenState
	first  Future[A]
	next   func(A) Future[B]
	second Future[B]
}

func (f *thenFuture[A, B]) Poll(w *Waker) Poll[B] {
	for {
		switch f.state {
		case thenFirst:
			res := f.first.Poll(w)
			if res.Kind == PollPending {
				return Pending[B]()
			}
			f.second = f.next(res.Value)
			f.first, f.next = nil, nil
			f.state = thenSecond
		case thenSecond:
			res := f.second.Poll(w)
			if res.Kind == PollPending {
				return Pending[B]()
			}
			f.second = nil
			f.state = thenDone
			return res
		default:
			panic("asyncrt: Then polled after completion")
		}
	}
}

// Then runs first and feeds its output to next, then runs the future next
// returns. It is the state-machine form of "v := await first; await next(v)".
func Then[A, B any](first Future[A], next func(A) Future[B]) Future[B] {
	return &thenFuture[A, B]{first: first, next: next}
}

type forEachFuture[T any] struct {
	stream Stream[T]
	fn     func(T)
	done   bool
}

func (f *forEachFuture[T]) Poll(w *Waker) Poll[struct{}] {
	if f.done {
		panic("asyncrt: ForEach polled after completion")
	}
	for n := 0; n < forEachBudget; n++ {
		next := f.stream.PollNext(w)
		switch next.Kind {
		case StreamItem:
			f.fn(next.Item)
		case StreamPending:
			return Pending[struct{}]()
		default:
			f.done = true
			return Ready(struct{}{})
		}
	}
	// Budget spent while items kept coming: let other tasks run first.
	w.Wake()
	return Pending[struct{}]()
}

// ForEach returns a future that calls fn for every item of s and finishes
// when s ends.
func ForEach[T any](s Stream[T], fn func(T)) Future[struct{}] {
	return &forEachFuture[T]{stream: s, fn: fn}
}
