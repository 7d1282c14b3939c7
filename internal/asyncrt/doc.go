// Package asyncrt is the cooperative executor of the kernel core.
//
// A Task wraps a Future: a value with a Poll method that either finishes
// (PollReady) or reports that it cannot make progress yet (PollPending). A
// pending future must have arranged for its Waker to be called when progress
// becomes possible; the executor never polls a task speculatively.
//
// The Executor owns every task. Wakers push task IDs onto a bounded lock-free
// ready queue, which makes waking safe from interrupt handlers. The run loop
// pops IDs, polls the matching tasks, and when nothing is ready halts the CPU
// with interrupts re-enabled atomically, so a wake that lands between the last
// check and the halt still ends the halt.
//
// Futures are explicit state machines. Each state carries only what is needed
// to resume, and Poll loops internally until it must return PollPending.
// Tasks are only ever reached through the *Task stored in the executor, and Go
// does not move heap objects, so a future may safely hold pointers into its own
// state once it has been polled.
package asyncrt
