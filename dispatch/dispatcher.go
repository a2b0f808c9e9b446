package dispatch

import (
	"time"
)

// Status describes where a [Dispatcher] is in its lifecycle.
// The only legal progression is StatusAlive -> StatusShuttingDown -> StatusTerminated.
type Status int32

const (
	// StatusAlive means the dispatcher accepts new work.
	StatusAlive Status = iota
	// StatusShuttingDown means new dispatch calls are rejected while already-enqueued tasks drain.
	StatusShuttingDown
	// StatusTerminated means the backing goroutines have exited.
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusShuttingDown:
		return "shutting down"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Dispatcher is the uniform contract over every dispatch strategy.
// See the package documentation for the semantics all implementations share.
type Dispatcher[T any] interface {
	// Dispatch enqueues a [Task] for later execution.
	// Returns [ErrRejected] after shutdown has begun, or [ErrCapacityExceeded] from a
	// full fail-fast dispatcher. A nil return means the task will be executed exactly once.
	Dispatch(task Task[T]) error
	// Execute enqueues a bare closure, bypassing payload and handler wrapping.
	// Same rejection semantics as Dispatch. A panic in fn is logged, never propagated.
	Execute(fn func()) error
	// Shutdown transitions to [StatusShuttingDown] and returns immediately.
	// Enqueued tasks still drain; new dispatch calls are rejected.
	Shutdown()
	// AwaitShutdown calls Shutdown and blocks until every already-enqueued task has been
	// consumed and the backing goroutines exit, or until timeout elapses.
	// It reports whether the drain completed cleanly before the timeout.
	AwaitShutdown(timeout time.Duration) bool
	// Backlog reports enqueued-but-unconsumed tasks at the instant of the call.
	// Advisory only; it races with concurrent producers and consumers.
	Backlog() int64
	// Status reports the dispatcher's lifecycle state.
	Status() Status
}
