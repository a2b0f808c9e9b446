package dispatch

import (
	"log/slog"
	"sync/atomic"
	"time"
)

var _ Dispatcher[any] = (*SynchronousDispatcher[any])(nil)

// SynchronousDispatcher executes every task inline on the calling goroutine.
// There is no queue and no backing goroutine, so [SynchronousDispatcher.Backlog] is
// always 0 and shutdown completes immediately.
//
// Error isolation still applies: a panicking handler is routed to the task's error
// handler or logged, exactly as with the asynchronous variants.
type SynchronousDispatcher[T any] struct {
	log   *slog.Logger
	state atomic.Int32
}

// NewSynchronous creates a [SynchronousDispatcher].
// A logger may be provided for tasks that fail without their own error handler;
// [slog.Default] is used otherwise.
func NewSynchronous[T any](log ...*slog.Logger) *SynchronousDispatcher[T] {
	d := new(SynchronousDispatcher[T])
	if len(log) > 0 {
		d.log = log[0]
	}
	return d
}

// Dispatch runs the task immediately on the calling goroutine.
// "Enqueue" and "execute" are the same step in this variant.
func (d *SynchronousDispatcher[T]) Dispatch(task Task[T]) error {
	if d.Status() != StatusAlive {
		return ErrRejected
	}
	task.Run(d.log)
	return nil
}

// Execute runs fn immediately on the calling goroutine under the isolation guard.
func (d *SynchronousDispatcher[T]) Execute(fn func()) error {
	if d.Status() != StatusAlive {
		return ErrRejected
	}
	Guard(d.log, fn)
	return nil
}

// Shutdown rejects further dispatches. With no queue and no goroutines there is
// nothing to drain, so the dispatcher terminates immediately.
func (d *SynchronousDispatcher[T]) Shutdown() {
	d.state.Store(int32(StatusTerminated))
}

// AwaitShutdown always reports a clean shutdown.
func (d *SynchronousDispatcher[T]) AwaitShutdown(time.Duration) bool {
	d.Shutdown()
	return true
}

// Backlog is always 0.
func (d *SynchronousDispatcher[T]) Backlog() int64 {
	return 0
}

func (d *SynchronousDispatcher[T]) Status() Status {
	return Status(d.state.Load())
}
