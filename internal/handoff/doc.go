// Package handoff provides the bounded lock-free queue that bridges interrupt
// handlers and tasks.
//
// Producers may run in interrupt context: TryPush takes no lock, never blocks
// and never allocates. The consumer runs in task context and calls TryPop.
// Items from one producer are popped in push order.
//
// Overflow policy is drop-newest: a push onto a full queue fails, the item is
// discarded and Dropped is incremented. The caller decides whether that is
// worth reporting; it is never an error.
package handoff
