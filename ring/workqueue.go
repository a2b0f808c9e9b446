package ring

import (
	"fmt"
	"sync"
	"time"

	"github.com/saylorsolutions/dispatchx/dispatch"
)

var _ dispatch.Dispatcher[any] = (*WorkQueue[any])(nil)

// WorkQueue is the multi-consumer ring-buffer dispatcher.
//
// It shares the ring mechanics of [Dispatcher], but N consumer goroutines compete for
// positions with an atomic claim-and-advance. Each position is consumed by exactly one
// of them - nothing is skipped or double-executed - but adjacent tasks may run
// concurrently on different consumers, so there is no global execution order and no
// fairness guarantee among idle consumers.
type WorkQueue[T any] struct {
	ring      *ring[T]
	done      chan struct{}
	stop      sync.Once
	wg        sync.WaitGroup
	consumers int
}

// NewWorkQueue creates a [WorkQueue] with the given number of consumer goroutines.
// Consumers start immediately and run until [WorkQueue.Shutdown] and the ring drains.
func NewWorkQueue[T any](consumers int, opts ...Option) (*WorkQueue[T], error) {
	if consumers < 1 {
		return nil, fmt.Errorf("invalid consumer count '%d'", consumers)
	}
	conf, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	w := &WorkQueue[T]{
		ring:      newRing[T](conf),
		done:      make(chan struct{}),
		consumers: consumers,
	}
	w.wg.Add(consumers)
	for i := 0; i < consumers; i++ {
		go w.consume()
	}
	go func() {
		w.wg.Wait()
		w.ring.state.Store(int32(dispatch.StatusTerminated))
		close(w.done)
	}()
	return w, nil
}

func (w *WorkQueue[T]) consume() {
	defer w.wg.Done()
	for {
		e, ok := w.ring.take()
		if !ok {
			return
		}
		e.run(w.ring.log)
	}
}

// Dispatch publishes the task onto the shared ring.
// Blocks while the ring is full unless [FailFast] was set. Returns
// [dispatch.ErrRejected] once shutdown has begun.
func (w *WorkQueue[T]) Dispatch(task dispatch.Task[T]) error {
	return w.ring.publish(element[T]{task: task})
}

// Execute publishes fn as a fire-and-forget closure.
func (w *WorkQueue[T]) Execute(fn func()) error {
	if fn == nil {
		return errNilClosure
	}
	return w.ring.publish(element[T]{fn: fn})
}

// Shutdown stops accepting new dispatches and returns without waiting.
func (w *WorkQueue[T]) Shutdown() {
	w.stop.Do(w.ring.beginShutdown)
}

// AwaitShutdown calls Shutdown, then waits for all consumer goroutines to drain the
// ring and exit. It reports whether that happened before the timeout.
func (w *WorkQueue[T]) AwaitShutdown(timeout time.Duration) bool {
	w.Shutdown()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

// Backlog reports published-but-unconsumed positions. Advisory only.
func (w *WorkQueue[T]) Backlog() int64 {
	return w.ring.backlog()
}

func (w *WorkQueue[T]) Status() dispatch.Status {
	return w.ring.status()
}

// Consumers reports the fixed consumer count set at creation.
func (w *WorkQueue[T]) Consumers() int {
	return w.consumers
}
