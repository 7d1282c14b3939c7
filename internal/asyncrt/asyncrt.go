package asyncrt

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"

	"kasync/internal/handoff"
	"kasync/internal/trace"
)

// DefaultReadyCapacity bounds the ready queue when Config leaves it unset.
const DefaultReadyCapacity = 128

// CPU is the interrupt-flag and halt collaborator of the run loop.
type CPU interface {
	DisableInterrupts()
	EnableInterrupts()
	// EnableAndHalt re-enables interrupts and suspends until the next one as a
	// single step. It returns with interrupts enabled.
	EnableAndHalt()
}

// Config configures the executor.
type Config struct {
	// ReadyCapacity bounds both the ready queue and the number of live tasks.
	ReadyCapacity int
	// Fuzz shuffles each batch of ready tasks with a Seed-derived rng so tests
	// can explore interleavings reproducibly.
	Fuzz bool
	Seed uint64
	// OnComplete receives the output of every finished task.
	OnComplete func(id TaskID, output any)
	Tracer     trace.Tracer
}

// Executor runs tasks on a single thread. Spawn, RunReady, SleepIfIdle and Run
// must be called from that thread; only Wakers and Stats may be used elsewhere.
type Executor struct {
	cfg    Config
	cpu    CPU
	tracer trace.Tracer

	tasks  map[TaskID]*Task
	wakers map[TaskID]*Waker
	ready  *handoff.Queue[TaskID]
	// stale counts ready entries whose task already completed.
	stale   int
	batch   []TaskID
	rng     *rand.Rand
	current TaskID

	live       atomic.Int64
	spawned    atomic.Uint64
	polls      atomic.Uint64
	completed  atomic.Uint64
	staleWakes atomic.Uint64
	halts      atomic.Uint64
}

// Stats is a point-in-time view of executor counters.
type Stats struct {
	Tasks      int
	Ready      int
	ReadyCap   int
	Spawned    uint64
	Polls      uint64
	Completed  uint64
	StaleWakes uint64
	Halts      uint64
}

// NewExecutor constructs an executor that idles through cpu.
func NewExecutor(cfg Config, cpu CPU) *Executor {
	if cpu == nil {
		panic("asyncrt: nil CPU")
	}
	if cfg.ReadyCapacity <= 0 {
		cfg.ReadyCapacity = DefaultReadyCapacity
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	exec := &Executor{
		cfg:    cfg,
		cpu:    cpu,
		tracer: tracer,
		tasks:  make(map[TaskID]*Task),
		wakers: make(map[TaskID]*Waker),
		ready:  handoff.New[TaskID](cfg.ReadyCapacity),
	}
	if cfg.Fuzz {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		exec.rng = rand.New(rand.NewSource(int64(seed))) //nolint:gosec // deterministic scheduler seed
	}
	return exec
}

// Spawn wraps body in a Task, takes ownership of it and queues its first poll.
// The returned ID is informational; it is not a join handle.
func (e *Executor) Spawn(body Future[any]) TaskID {
	if len(e.tasks)+e.stale >= e.ready.Cap() {
		panic(fmt.Sprintf("asyncrt: cannot spawn: %d live tasks would overflow ready queue of %d",
			len(e.tasks)+1, e.ready.Cap()))
	}
	task := NewTask(body)
	id := task.ID()
	e.tasks[id] = task
	e.live.Add(1)
	e.spawned.Add(1)
	e.wakerFor(id).Wake()
	return id
}

// SpawnFunc spawns a function-backed future.
func (e *Executor) SpawnFunc(fn func(w *Waker) Poll[any]) TaskID {
	return e.Spawn(PollFunc[any](fn))
}

// Current returns the ID of the task being polled, or 0 between polls.
func (e *Executor) Current() TaskID {
	return e.current
}

// Has reports whether the task is still owned by the executor.
func (e *Executor) Has(id TaskID) bool {
	_, ok := e.tasks[id]
	return ok
}

// Idle reports whether no task is waiting to be polled.
func (e *Executor) Idle() bool {
	return e.ready.IsEmpty()
}

// RunReady polls ready tasks until the ready queue is empty.
func (e *Executor) RunReady() {
	if e.rng != nil {
		e.runShuffled()
		return
	}
	for {
		id, ok := e.ready.TryPop()
		if !ok {
			return
		}
		e.pollTask(id)
	}
}

func (e *Executor) runShuffled() {
	for {
		e.batch = e.batch[:0]
		for {
			id, ok := e.ready.TryPop()
			if !ok {
				break
			}
			e.batch = append(e.batch, id)
		}
		if len(e.batch) == 0 {
			return
		}
		e.rng.Shuffle(len(e.batch), func(i, j int) {
			e.batch[i], e.batch[j] = e.batch[j], e.batch[i]
		})
		for _, id := range e.batch {
			e.pollTask(id)
		}
	}
}

func (e *Executor) pollTask(id TaskID) {
	task := e.tasks[id]
	if task == nil {
		// Woken before it completed; the entry outlived the task.
		if e.stale > 0 {
			e.stale--
		}
		e.staleWakes.Add(1)
		return
	}
	w := e.wakerFor(id)
	w.dequeued()

	span := e.beginPoll(id)
	e.current = id
	res := task.Poll(w)
	e.current = 0
	e.polls.Add(1)

	if res.Kind == PollPending {
		span.End("pending")
		return
	}
	span.End("ready")
	e.complete(id, w, res.Value)
}

func (e *Executor) beginPoll(id TaskID) *trace.Span {
	span := trace.Begin(e.tracer, trace.ScopeTask, "poll", 0)
	if span.ID() != 0 {
		span.WithExtra("task", strconv.FormatUint(uint64(id), 10))
	}
	return span
}

func (e *Executor) complete(id TaskID, w *Waker, output any) {
	delete(e.tasks, id)
	delete(e.wakers, id)
	if w.retire() {
		e.stale++
	}
	e.live.Add(-1)
	e.completed.Add(1)
	if e.cfg.OnComplete != nil {
		e.cfg.OnComplete(id, output)
	}
}

// wakerFor returns the cached waker for id, constructing it on first use.
func (e *Executor) wakerFor(id TaskID) *Waker {
	w, ok := e.wakers[id]
	if !ok {
		w = newWaker(id, e.ready)
		e.wakers[id] = w
	}
	return w
}

// SleepIfIdle halts the CPU if no task is ready. Interrupts are disabled
// around the emptiness check so a wake that arrives after it is held until the
// halt, which then returns immediately.
func (e *Executor) SleepIfIdle() {
	e.sleepIfIdle(context.Background())
}

func (e *Executor) sleepIfIdle(ctx context.Context) {
	e.cpu.DisableInterrupts()
	if e.ready.IsEmpty() && ctx.Err() == nil {
		e.cpu.EnableAndHalt()
		e.halts.Add(1)
		trace.Point(e.tracer, trace.ScopeExecutor, "halt", "woken")
		return
	}
	e.cpu.EnableInterrupts()
}

// Run alternates between polling ready tasks and halting until ctx is done.
// With a context that is never cancelled it does not return.
//
// If the CPU has a Nudge method, cancelling ctx calls it to end a halt in
// progress.
func (e *Executor) Run(ctx context.Context) {
	if n, ok := e.cpu.(interface{ Nudge() }); ok {
		stop := context.AfterFunc(ctx, n.Nudge)
		defer stop()
	}
	trace.Point(e.tracer, trace.ScopeExecutor, "run", fmt.Sprintf("tasks=%d", len(e.tasks)))
	for ctx.Err() == nil {
		e.RunReady()
		e.sleepIfIdle(ctx)
	}
	trace.Point(e.tracer, trace.ScopeExecutor, "stop", fmt.Sprintf("tasks=%d", len(e.tasks)))
}

// Stats returns current counters. Safe to call from any goroutine.
func (e *Executor) Stats() Stats {
	return Stats{
		Tasks:      int(e.live.Load()),
		Ready:      e.ready.Len(),
		ReadyCap:   e.ready.Cap(),
		Spawned:    e.spawned.Load(),
		Polls:      e.polls.Load(),
		Completed:  e.completed.Load(),
		StaleWakes: e.staleWakes.Load(),
		Halts:      e.halts.Load(),
	}
}
