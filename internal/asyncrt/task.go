package asyncrt

import (
	"fmt"
	"sync/atomic"
)

// TaskID identifies a spawned task. IDs start at 1 and are never reused.
type TaskID uint64

var lastTaskID atomic.Uint64

func nextTaskID() TaskID {
	return TaskID(lastTaskID.Add(1))
}

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskWaiting
	TaskDone
)

// String returns the lowercase status name.
func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskWaiting:
		return "waiting"
	case TaskDone:
		return "done"
	default:
		return "unknown"
	}
}

// Task is a uniquely identified unit of suspendable computation.
//
// A Task must not be copied; the executor holds the only *Task and the body it
// wraps is reached exclusively through it.
type Task struct {
	_      noCopy
	id     TaskID
	body   Future[any]
	status TaskStatus
}

// NewTask wraps body and assigns it a fresh ID.
func NewTask(body Future[any]) *Task {
	if body == nil {
		panic("asyncrt: nil task body")
	}
	return &Task{
		id:     nextTaskID(),
		body:   body,
		status: TaskReady,
	}
}

// ID returns the task's identifier.
func (t *Task) ID() TaskID {
	return t.id
}

// Status returns the task's scheduling state.
func (t *Task) Status() TaskStatus {
	return t.status
}

// Poll resumes the body once. Polling a finished task is a programming error.
func (t *Task) Poll(w *Waker) Poll[any] {
	if t.status == TaskDone {
		panic(fmt.Sprintf("asyncrt: task %d polled after completion", t.id))
	}
	t.status = TaskRunning
	res := t.body.Poll(w)
	if res.Kind == PollReady {
		t.status = TaskDone
		t.body = nil
		return res
	}
	t.status = TaskWaiting
	return res
}

// noCopy is flagged by go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
