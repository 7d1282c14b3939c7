// Package trace records what the kernel core is doing without slowing down the
// paths that must stay short.
//
// Events are grouped by scope:
//
//   - ScopeKernel: boot and shutdown
//   - ScopeExecutor: run-loop transitions (drain, halt, wake from halt)
//   - ScopeIRQ: interrupt delivery and device activity
//   - ScopeTask: individual polls
//
// and filtered by level:
//
//   - LevelOff: nothing
//   - LevelError: warnings only (dropped input, decode failures)
//   - LevelInfo: kernel and executor events
//   - LevelDebug: everything, including one span per poll
//
// A tracer is carried through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeTask, "poll", 0)
//	defer span.End("")
//
// Nothing in this package may be called from interrupt context: emitting
// takes a lock and formats strings. Interrupt handlers bump counters instead
// and the task that consumes their data reports on their behalf.
package trace
