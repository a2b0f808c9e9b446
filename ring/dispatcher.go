package ring

import (
	"sync"
	"time"

	"github.com/saylorsolutions/dispatchx/dispatch"
)

var _ dispatch.Dispatcher[any] = (*Dispatcher[any])(nil)

// Dispatcher is the single-consumer ring-buffer dispatcher.
//
// One dedicated consumer goroutine owns the consumer cursor, so tasks execute in the
// exact order their ring positions were claimed - strict FIFO, regardless of how many
// producers there are. This ordering is what distinguishes it from the thread-pool
// and work-queue variants.
//
// Dispatching from inside a consumer callback is safe: the re-entrant call is just
// another producer claim on independent cursors and doesn't wait on the consumer
// loop, provided the ring has room.
type Dispatcher[T any] struct {
	ring *ring[T]
	done chan struct{}
	stop sync.Once
}

// New creates a [Dispatcher] and starts its consumer goroutine.
// The goroutine runs until [Dispatcher.Shutdown] and the ring has drained.
func New[T any](opts ...Option) (*Dispatcher[T], error) {
	conf, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher[T]{
		ring: newRing[T](conf),
		done: make(chan struct{}),
	}
	go d.consume()
	return d, nil
}

func (d *Dispatcher[T]) consume() {
	defer close(d.done)
	defer d.ring.state.Store(int32(dispatch.StatusTerminated))
	for {
		e, ok := d.ring.next()
		if !ok {
			return
		}
		e.run(d.ring.log)
	}
}

// Dispatch publishes the task onto the ring.
// Blocks while the ring is full unless [FailFast] was set, in which case it returns
// [dispatch.ErrCapacityExceeded]. Returns [dispatch.ErrRejected] once shutdown has begun.
func (d *Dispatcher[T]) Dispatch(task dispatch.Task[T]) error {
	return d.ring.publish(element[T]{task: task})
}

// Execute publishes fn as a fire-and-forget closure with the same backpressure and
// rejection semantics as Dispatch.
func (d *Dispatcher[T]) Execute(fn func()) error {
	if fn == nil {
		return errNilClosure
	}
	return d.ring.publish(element[T]{fn: fn})
}

// Shutdown stops accepting new dispatches and returns without waiting.
// The consumer goroutine exits once it has consumed everything published before the
// shutdown took effect.
func (d *Dispatcher[T]) Shutdown() {
	d.stop.Do(d.ring.beginShutdown)
}

// AwaitShutdown calls Shutdown, then joins the consumer goroutine.
// It reports whether the ring drained and the consumer exited before the timeout.
func (d *Dispatcher[T]) AwaitShutdown(timeout time.Duration) bool {
	d.Shutdown()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-d.done:
		return true
	case <-timer.C:
		return false
	}
}

// Backlog reports published-but-unconsumed positions. Advisory only.
func (d *Dispatcher[T]) Backlog() int64 {
	return d.ring.backlog()
}

func (d *Dispatcher[T]) Status() dispatch.Status {
	return d.ring.status()
}

// Capacity reports the fixed slot count of the ring.
func (d *Dispatcher[T]) Capacity() int64 {
	return d.ring.capacity
}
