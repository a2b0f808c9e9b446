package dispatch

import (
	"log/slog"
)

// Task is the atomic unit of work every [Dispatcher] moves from producer to consumer:
// a payload paired with a completion handler and an optional error handler.
// A Task must not be mutated after it has been dispatched.
type Task[T any] struct {
	// Payload is handed to OnComplete when the task is consumed.
	Payload T
	// OnComplete is invoked with Payload on the consuming goroutine. May be nil, in which
	// case consuming the task is a no-op.
	OnComplete func(T)
	// OnError receives any [ExecutionError] raised by OnComplete.
	// When nil, errors are logged by the dispatcher instead.
	OnError func(error)
}

// Run executes the task's completion handler under the error-isolation guard.
// A panic in OnComplete is captured as an [*ExecutionError] and routed to OnError,
// or logged when no error handler is set. Run never panics.
//
// Dispatcher implementations call this from their consumer loops; it's exported so
// that implementations outside this package can honor the same contract.
func (t Task[T]) Run(log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			t.routeError(log, newExecutionError(r))
		}
	}()
	if t.OnComplete != nil {
		t.OnComplete(t.Payload)
	}
}

func (t Task[T]) routeError(log *slog.Logger, err error) {
	if t.OnError == nil {
		logger(log).Error("task failed with no error handler registered", "error", err)
		return
	}
	// The error handler is user code too. If it panics there's nowhere left to route,
	// so the panic is logged and swallowed to keep the consumer loop alive.
	defer func() {
		if r := recover(); r != nil {
			logger(log).Error("task error handler panicked", "panic", r)
		}
	}()
	t.OnError(err)
}

// Guard runs fn, converting a panic into a logged [*ExecutionError].
// Dispatcher implementations use it to isolate closures submitted via [Dispatcher.Execute].
func Guard(log *slog.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger(log).Error("execution panic", "error", newExecutionError(r))
		}
	}()
	fn()
}

func logger(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
