package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindWarn
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// Scope indicates which layer of the kernel produced the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeKernel Scope = iota + 1
	ScopeExecutor
	ScopeIRQ
	ScopeTask
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeKernel:
		return "kernel"
	case ScopeExecutor:
		return "executor"
	case ScopeIRQ:
		return "irq"
	case ScopeTask:
		return "task"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	Name     string // e.g. "poll", "halt", "irq1"
	Detail   string
	Extra    map[string]string
}
