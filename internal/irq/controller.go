// Package irq simulates the CPU interrupt flag, hlt and a small interrupt
// controller so the executor can be driven by goroutine "devices".
//
// The gate mutex stands for the interrupt flag: it is held exactly while
// interrupts are disabled. Delivering an interrupt takes the gate, so a
// handler never runs while the executor has interrupts disabled and handlers
// never nest. EnableAndHalt waits on a condition variable bound to the gate,
// which releases the gate and suspends in one step, the way sti;hlt does.
package irq

import (
	"fmt"
	"sync"
	"sync/atomic"

	"kasync/internal/trace"
)

// NumLines is the number of interrupt lines of one legacy PIC pair.
const NumLines = 16

// Line is an interrupt request line.
type Line uint8

const (
	LineTimer    Line = 0
	LineKeyboard Line = 1
)

// String returns the line name, e.g. "irq1".
func (l Line) String() string {
	return fmt.Sprintf("irq%d", uint8(l))
}

// Handler services one interrupt. It runs with interrupts disabled and must
// not block.
type Handler func()

// Controller is the simulated interrupt flag, halt and interrupt lines.
// It implements asyncrt.CPU.
type Controller struct {
	gate sync.Mutex
	cond *sync.Cond

	// guarded by gate
	handlers [NumLines]Handler
	events   uint64

	tracer trace.Tracer

	delivered [NumLines]atomic.Uint64
	unhandled atomic.Uint64
	halts     atomic.Uint64
	spurious  atomic.Uint64
}

// Stats is a snapshot of controller counters.
type Stats struct {
	Delivered [NumLines]uint64
	Unhandled uint64
	Halts     uint64
	Spurious  uint64
}

// New returns a controller with interrupts enabled and no handlers.
func New(tracer trace.Tracer) *Controller {
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &Controller{tracer: tracer}
	c.cond = sync.NewCond(&c.gate)
	return c
}

// Register installs h for line, replacing any previous handler.
func (c *Controller) Register(line Line, h Handler) {
	if int(line) >= NumLines {
		panic(fmt.Sprintf("irq: line %d out of range", line))
	}
	c.gate.Lock()
	c.handlers[line] = h
	c.gate.Unlock()
}

// Raise delivers an interrupt on line. It waits until interrupts are enabled,
// runs the handler and wakes a halted CPU. It must not be called with
// interrupts disabled by the same goroutine.
func (c *Controller) Raise(line Line) {
	if int(line) >= NumLines {
		panic(fmt.Sprintf("irq: line %d out of range", line))
	}
	c.gate.Lock()
	if h := c.handlers[line]; h != nil {
		h()
		c.delivered[line].Add(1)
	} else {
		c.unhandled.Add(1)
	}
	c.events++
	c.cond.Broadcast()
	c.gate.Unlock()
	trace.Point(c.tracer, trace.ScopeIRQ, "interrupt", line.String())
}

// Nudge wakes a halted CPU without running a handler.
func (c *Controller) Nudge() {
	c.gate.Lock()
	c.events++
	c.spurious.Add(1)
	c.cond.Broadcast()
	c.gate.Unlock()
}

// DisableInterrupts clears the interrupt flag. Pending Raise calls wait.
func (c *Controller) DisableInterrupts() {
	c.gate.Lock()
}

// EnableInterrupts sets the interrupt flag.
func (c *Controller) EnableInterrupts() {
	c.gate.Unlock()
}

// EnableAndHalt sets the interrupt flag and suspends until the next interrupt
// is delivered. Interrupts must be disabled on entry.
func (c *Controller) EnableAndHalt() {
	c.halts.Add(1)
	seen := c.events
	for c.events == seen {
		c.cond.Wait()
	}
	c.gate.Unlock()
}

// Stats returns current counters.
func (c *Controller) Stats() Stats {
	var st Stats
	for i := range c.delivered {
		st.Delivered[i] = c.delivered[i].Load()
	}
	st.Unhandled = c.unhandled.Load()
	st.Halts = c.halts.Load()
	st.Spurious = c.spurious.Load()
	return st
}
