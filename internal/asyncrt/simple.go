package asyncrt

// SimpleExecutor polls its tasks round-robin until all of them finish. It
// hands every task a waker that does nothing, so a pending task is simply
// polled again on the next lap. It never halts and burns the CPU while tasks
// wait; the Executor is the one to boot with. SimpleExecutor is the baseline
// its scheduling is compared against.
type SimpleExecutor struct {
	queue []*Task
	polls uint64
}

// NewSimpleExecutor returns an empty SimpleExecutor.
func NewSimpleExecutor() *SimpleExecutor {
	return &SimpleExecutor{}
}

// Spawn appends body to the back of the queue.
func (e *SimpleExecutor) Spawn(body Future[any]) TaskID {
	task := NewTask(body)
	e.queue = append(e.queue, task)
	return task.ID()
}

// Run polls the front task, requeues it at the back while pending and returns
// once the queue is empty. A task that never completes keeps Run spinning.
func (e *SimpleExecutor) Run() {
	for len(e.queue) > 0 {
		task := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.polls++
		if task.Poll(noopWaker(task.ID())).Kind == PollPending {
			e.queue = append(e.queue, task)
		}
	}
}

// Polls returns the number of polls made so far.
func (e *SimpleExecutor) Polls() uint64 {
	return e.polls
}

// noopWaker is born retired, so Wake returns before touching a queue.
func noopWaker(id TaskID) *Waker {
	w := &Waker{id: id}
	w.state.Store(wakerRetired)
	return w
}
