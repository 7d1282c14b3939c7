package device

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"kasync/internal/irq"
	"kasync/internal/trace"
)

// Timer is the programmable interval timer on IRQ0.
type Timer struct {
	ctrl   *irq.Controller
	tracer trace.Tracer
	ticks  atomic.Uint64
}

// NewTimer returns a stopped timer.
func NewTimer(ctrl *irq.Controller, tracer trace.Tracer) *Timer {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Timer{ctrl: ctrl, tracer: tracer}
}

// HandleIRQ is the IRQ0 handler.
func (t *Timer) HandleIRQ() {
	n := t.ticks.Add(1)
	if t.tracer.Level() >= trace.LevelDebug {
		trace.Point(t.tracer, trace.ScopeIRQ, "tick", strconv.FormatUint(n, 10))
	}
}

// Ticks returns the number of handled timer interrupts.
func (t *Timer) Ticks() uint64 {
	return t.ticks.Load()
}

// Run raises IRQ0 every interval until ctx is done. A non-positive interval
// disables the timer.
func (t *Timer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.ctrl.Raise(irq.LineTimer)
		}
	}
}
