package dispatch

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrRejected is returned by [Dispatcher.Dispatch] and [Dispatcher.Execute] once shutdown has begun.
	ErrRejected = errors.New("dispatcher is shutting down")
	// ErrCapacityExceeded is returned by fail-fast dispatchers when the queue or ring is full.
	// Blocking dispatchers never return it; they wait for space instead.
	ErrCapacityExceeded = errors.New("dispatcher capacity exceeded")
)

// ExecutionError wraps a panic raised by a task's completion handler, together with the
// goroutine stack captured at the point of the panic.
//
// It's routed to the task's own error handler when one is set, otherwise logged.
// It is never allowed to propagate out of a dispatch loop.
type ExecutionError struct {
	// Value is the original value passed to panic().
	Value any
	// Stack is the goroutine stack trace at the point of the panic.
	Stack string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task execution panic: %v\n\n%s", e.Value, e.Stack)
}

// IsExecutionError reports whether err (or any error in its chain) is a [*ExecutionError].
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecutionError
	return errors.As(err, &ee)
}

func newExecutionError(value any) *ExecutionError {
	// runtime.Stack truncates gracefully if the trace doesn't fit.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &ExecutionError{
		Value: value,
		Stack: string(buf[:n]),
	}
}
