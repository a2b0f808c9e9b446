package dispatch

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity is the task queue capacity used by [NewThreadPool] when
// [PoolQueueCapacity] isn't given. Producers block once this many tasks are waiting.
var DefaultQueueCapacity = 64

var _ Dispatcher[any] = (*ThreadPoolDispatcher[any])(nil)

// ThreadPoolDispatcher spreads tasks over a fixed-size pool of worker goroutines
// fed from a bounded queue.
//
// Ordering across tasks is NOT guaranteed: tasks enter the queue in per-producer
// submission order, but execution order depends on worker availability.
// Backpressure is blocking: a dispatch against a full queue waits for space rather
// than failing.
type ThreadPoolDispatcher[T any] struct {
	tasks   chan Task[T]
	closing chan struct{}
	done    chan struct{}
	log     *slog.Logger
	state   atomic.Int32
	stop    sync.Once
	wg      sync.WaitGroup
	workers int
}

// PoolOption configures a [ThreadPoolDispatcher].
type PoolOption func(conf *poolConf) error

type poolConf struct {
	queueCapacity int
	log           *slog.Logger
}

// PoolQueueCapacity sets the bounded task queue capacity.
// Dispatch blocks while this many tasks are already waiting.
func PoolQueueCapacity(capacity int) PoolOption {
	return func(conf *poolConf) error {
		if capacity < 1 {
			return fmt.Errorf("invalid queue capacity '%d'", capacity)
		}
		conf.queueCapacity = capacity
		return nil
	}
}

// PoolLogger sets the logger used for tasks that fail without their own error handler.
func PoolLogger(log *slog.Logger) PoolOption {
	return func(conf *poolConf) error {
		if log == nil {
			return fmt.Errorf("nil logger")
		}
		conf.log = log
		return nil
	}
}

// NewThreadPool creates a [ThreadPoolDispatcher] with the given number of worker
// goroutines. Workers start immediately and run until [ThreadPoolDispatcher.Shutdown].
func NewThreadPool[T any](workers int, opts ...PoolOption) (*ThreadPoolDispatcher[T], error) {
	if workers < 1 {
		return nil, fmt.Errorf("invalid worker count '%d'", workers)
	}
	conf := &poolConf{queueCapacity: DefaultQueueCapacity}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	d := &ThreadPoolDispatcher[T]{
		tasks:   make(chan Task[T], conf.queueCapacity),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		log:     conf.log,
		workers: workers,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d, nil
}

func (d *ThreadPoolDispatcher[T]) worker() {
	defer d.wg.Done()
	for task := range d.tasks {
		task.Run(d.log)
	}
}

// Dispatch enqueues the task, blocking while the queue is full.
// Returns [ErrRejected] once shutdown has begun, including when the producer was
// already blocked waiting for space.
func (d *ThreadPoolDispatcher[T]) Dispatch(task Task[T]) (err error) {
	if d.Status() != StatusAlive {
		return ErrRejected
	}
	// The tasks channel may be closed after the status check but before the send
	// lands. Treat the resulting panic as a rejection.
	defer func() {
		if r := recover(); r != nil {
			err = ErrRejected
		}
	}()
	select {
	case d.tasks <- task:
		return nil
	case <-d.closing:
		return ErrRejected
	}
}

// Execute enqueues fn as a fire-and-forget closure with the same blocking and
// rejection semantics as Dispatch.
func (d *ThreadPoolDispatcher[T]) Execute(fn func()) error {
	if fn == nil {
		return fmt.Errorf("nil closure")
	}
	log := d.log
	return d.Dispatch(Task[T]{OnComplete: func(T) {
		Guard(log, fn)
	}})
}

// Shutdown stops accepting new tasks and returns without waiting.
// Tasks already in the queue still run to completion.
func (d *ThreadPoolDispatcher[T]) Shutdown() {
	d.stop.Do(func() {
		d.state.Store(int32(StatusShuttingDown))
		close(d.closing)
		close(d.tasks)
		go func() {
			d.wg.Wait()
			d.state.Store(int32(StatusTerminated))
			close(d.done)
		}()
	})
}

// AwaitShutdown stops intake and waits for the queue to drain and all workers to exit.
// It reports whether the drain finished before the timeout. A false return doesn't
// interrupt anything; remaining tasks still complete on their own time.
func (d *ThreadPoolDispatcher[T]) AwaitShutdown(timeout time.Duration) bool {
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

// Backlog reports the number of tasks waiting in the queue, excluding tasks
// currently executing on workers.
func (d *ThreadPoolDispatcher[T]) Backlog() int64 {
	return int64(len(d.tasks))
}

func (d *ThreadPoolDispatcher[T]) Status() Status {
	return Status(d.state.Load())
}

// Workers reports the fixed worker count set at creation.
func (d *ThreadPoolDispatcher[T]) Workers() int {
	return d.workers
}
