// Package kernel wires the interrupt controller, the simulated devices, the
// scancode queue and the executor together and spawns the demo tasks.
package kernel

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"kasync/internal/asyncrt"
	"kasync/internal/config"
	"kasync/internal/console"
	"kasync/internal/device"
	"kasync/internal/irq"
	"kasync/internal/keyboard"
	"kasync/internal/trace"
)

// Options holds what Boot cannot take from the configuration.
type Options struct {
	// Console receives task output. A fresh console is used when nil.
	Console *console.Writer
	// Scancodes replaces the process-wide queue. When nil, Boot calls
	// keyboard.Init and the keyboard device feeds keyboard.AddScancode.
	Scancodes *keyboard.Source
	// Tracer overrides the tracer carried by the Boot context.
	Tracer trace.Tracer
}

// Feeder drives the keyboard until its input ends. Returning nil ends the
// scancode stream once the queue drains, which stops the kernel.
type Feeder func(ctx context.Context, kb *device.Keyboard) error

// Kernel is a booted system.
type Kernel struct {
	cfg    config.Config
	tracer trace.Tracer

	Ctrl      *irq.Controller
	Exec      *asyncrt.Executor
	Keyboard  *device.Keyboard
	Timer     *device.Timer
	Console   *console.Writer
	Scancodes *keyboard.Source
	Layout    keyboard.Layout

	printer asyncrt.TaskID
	stop    context.CancelFunc
}

// Stats aggregates the counters of every component.
type Stats struct {
	Executor  asyncrt.Stats
	IRQ       irq.Stats
	Queued    int
	QueueCap  int
	Dropped   uint64
	EarlyDrop uint64
	Ticks     uint64
}

// Boot builds the kernel and spawns ExampleTask and the key printer. Nothing
// runs until Run.
func Boot(ctx context.Context, cfg config.Config, opts Options) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	layout, err := keyboard.LayoutFor(cfg.Keyboard.Layout)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeKernel, "boot", 0)
	defer span.End("")

	k := &Kernel{
		cfg:     cfg,
		tracer:  tracer,
		Ctrl:    irq.New(tracer),
		Console: opts.Console,
		Layout:  layout,
	}
	if k.Console == nil {
		k.Console = console.NewWriter(nil)
	}

	var sink func(uint8)
	if opts.Scancodes != nil {
		k.Scancodes = opts.Scancodes
		sink = func(b uint8) { opts.Scancodes.Push(b) }
	} else {
		k.Scancodes = keyboard.Init(cfg.Keyboard.QueueCapacity)
	}
	k.Keyboard = device.NewKeyboard(k.Ctrl, layout, sink)
	k.Timer = device.NewTimer(k.Ctrl, tracer)
	k.Ctrl.Register(irq.LineKeyboard, k.Keyboard.HandleIRQ)
	k.Ctrl.Register(irq.LineTimer, k.Timer.HandleIRQ)

	k.Exec = asyncrt.NewExecutor(asyncrt.Config{
		ReadyCapacity: cfg.Executor.ReadyCapacity,
		Fuzz:          cfg.Executor.Fuzz,
		Seed:          cfg.Executor.Seed,
		OnComplete:    k.taskDone,
		Tracer:        tracer,
	}, k.Ctrl)

	k.Exec.Spawn(ExampleTask(k.Console))
	k.printer = k.Exec.Spawn(keyboard.PrintKeypresses(k.Scancodes.Stream(),
		keyboard.NewDecoder(layout), k.Console, tracer))

	span.WithExtra("layout", layout.Name())
	return k, nil
}

// ExampleTask awaits an async number and prints it.
func ExampleTask(out io.Writer) asyncrt.Future[any] {
	return asyncrt.Any(asyncrt.Then(asyncNumber(), func(n int) asyncrt.Future[struct{}] {
		fmt.Fprintf(out, "async number: %d\n", n)
		return asyncrt.Value(struct{}{})
	}))
}

func asyncNumber() asyncrt.Future[int] {
	return asyncrt.Value(42)
}

func (k *Kernel) taskDone(id asyncrt.TaskID, _ any) {
	if id == k.printer && k.stop != nil {
		k.stop()
	}
}

// Run starts the executor and the timer, plus feed when non-nil, and blocks
// until ctx is done, the key printer finishes or a goroutine fails.
func (k *Kernel) Run(ctx context.Context, feed Feeder) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	k.stop = cancel

	span := trace.Begin(k.tracer, trace.ScopeKernel, "run", 0)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		k.Exec.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return k.Timer.Run(gctx, k.cfg.Timer.Interval)
	})
	if feed != nil {
		g.Go(func() error {
			if err := feed(gctx, k.Keyboard); err != nil {
				return err
			}
			k.Scancodes.Shutdown()
			return nil
		})
	}
	err := g.Wait()

	st := k.Stats()
	if st.Dropped > 0 {
		trace.Warn(k.tracer, trace.ScopeKernel, "scancodes dropped", fmt.Sprintf("total=%d", st.Dropped))
	}
	span.WithExtra("polls", fmt.Sprint(st.Executor.Polls)).
		WithExtra("halts", fmt.Sprint(st.Executor.Halts)).
		End("")
	return err
}

// Stats returns a snapshot of all counters. Safe from any goroutine.
func (k *Kernel) Stats() Stats {
	return Stats{
		Executor:  k.Exec.Stats(),
		IRQ:       k.Ctrl.Stats(),
		Queued:    k.Scancodes.Len(),
		QueueCap:  k.Scancodes.Cap(),
		Dropped:   k.Scancodes.Dropped(),
		EarlyDrop: keyboard.UninitializedDrops(),
		Ticks:     k.Timer.Ticks(),
	}
}
