package ring

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/saylorsolutions/dispatchx/dispatch"
)

// DefaultCapacity is the ring capacity used when [Capacity] isn't given.
var DefaultCapacity = 1024

var errNilClosure = errors.New("nil closure")

// Option configures a [Dispatcher] or [WorkQueue] at construction.
type Option func(conf *config) error

type config struct {
	capacity       int64
	strategy       WaitStrategy
	singleProducer bool
	failFast       bool
	log            *slog.Logger
}

func newConfig(opts []Option) (*config, error) {
	conf := &config{
		capacity: int64(DefaultCapacity),
		strategy: Yielding(),
	}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

// Capacity sets the number of slots in the ring. Must be a power of two, at least 2,
// so positions can wrap with a bitmask.
func Capacity(capacity int) Option {
	return func(conf *config) error {
		if capacity < 2 || capacity&(capacity-1) != 0 {
			return fmt.Errorf("ring capacity must be a power of two >= 2, got '%d'", capacity)
		}
		conf.capacity = int64(capacity)
		return nil
	}
}

// WithWaitStrategy sets how producers and consumers idle. Defaults to [Yielding].
func WithWaitStrategy(strategy WaitStrategy) Option {
	return func(conf *config) error {
		if strategy == nil {
			return fmt.Errorf("nil wait strategy")
		}
		conf.strategy = strategy
		return nil
	}
}

// SingleProducer declares that exactly one goroutine will ever dispatch to this ring,
// letting the claim path skip its compare-and-swap. Dispatching from more than one
// goroutine with this option set corrupts the ring.
func SingleProducer() Option {
	return func(conf *config) error {
		conf.singleProducer = true
		return nil
	}
}

// FailFast makes dispatch against a full ring return [dispatch.ErrCapacityExceeded]
// immediately instead of blocking for space.
func FailFast() Option {
	return func(conf *config) error {
		conf.failFast = true
		return nil
	}
}

// WithLogger sets the logger used for tasks that fail without their own error handler.
func WithLogger(log *slog.Logger) Option {
	return func(conf *config) error {
		if log == nil {
			return fmt.Errorf("nil logger")
		}
		conf.log = log
		return nil
	}
}

// element is what actually occupies a slot: either a task or a bare closure.
type element[T any] struct {
	task dispatch.Task[T]
	fn   func()
}

func (e element[T]) run(log *slog.Logger) {
	if e.fn != nil {
		dispatch.Guard(log, e.fn)
		return
	}
	e.task.Run(log)
}

// slot is a single ring cell. seq encodes ownership:
//
//	seq == pos            free, claimable by the producer for position pos
//	seq == pos+1          published, readable by the consumer for position pos
//	seq == pos+capacity   consumed, free again for position pos+capacity
type slot[T any] struct {
	seq  atomic.Int64
	elem element[T]
}

// ring is the bounded MPMC core shared by [Dispatcher] and [WorkQueue].
// producer and consumer are the next positions to claim on each side; the gap
// between them is the backlog and can never exceed capacity.
type ring[T any] struct {
	slots    []slot[T]
	mask     int64
	capacity int64
	producer atomic.Int64
	consumer atomic.Int64
	// inflight counts producers between their status check and publish. The consumer
	// exit check reads it to close the race where a dispatch is accepted just as
	// shutdown begins; see drained.
	inflight atomic.Int64
	state    atomic.Int32
	strategy WaitStrategy
	single   bool
	failFast bool
	log      *slog.Logger
}

func newRing[T any](conf *config) *ring[T] {
	r := &ring[T]{
		slots:    make([]slot[T], conf.capacity),
		mask:     conf.capacity - 1,
		capacity: conf.capacity,
		strategy: conf.strategy,
		single:   conf.singleProducer,
		failFast: conf.failFast,
		log:      conf.log,
	}
	for i := range r.slots {
		r.slots[i].seq.Store(int64(i))
	}
	return r
}

func (r *ring[T]) status() dispatch.Status {
	return dispatch.Status(r.state.Load())
}

// publish claims the next position, writes e into its slot, and makes it visible to
// consumers. The slot write happens strictly before the marker store, so a consumer
// never sees a partially written element.
func (r *ring[T]) publish(e element[T]) error {
	r.inflight.Add(1)
	defer r.inflight.Add(-1)
	if r.status() != dispatch.StatusAlive {
		return dispatch.ErrRejected
	}
	pos, err := r.claim()
	if err != nil {
		return err
	}
	s := &r.slots[pos&r.mask]
	s.elem = e
	s.seq.Store(pos + 1)
	r.strategy.Signal()
	return nil
}

// claim atomically reserves the next producer position, waiting (or failing fast)
// while the slot is still held by an unconsumed element from one lap ago.
func (r *ring[T]) claim() (int64, error) {
	var attempt int
	for {
		pos := r.producer.Load()
		s := &r.slots[pos&r.mask]
		switch diff := s.seq.Load() - pos; {
		case diff == 0:
			if r.single {
				r.producer.Store(pos + 1)
				return pos, nil
			}
			if r.producer.CompareAndSwap(pos, pos+1) {
				return pos, nil
			}
		case diff < 0:
			// Ring is full: the slot hasn't been consumed since last lap.
			if r.failFast {
				return 0, dispatch.ErrCapacityExceeded
			}
			if r.status() != dispatch.StatusAlive {
				return 0, dispatch.ErrRejected
			}
			attempt++
			r.strategy.Wait(attempt)
		default:
			// Another producer claimed this position first; reload and retry.
		}
	}
}

// next blocks until the next position is published, consumes it, and returns its
// element. A false return means the ring has drained after shutdown and the consumer
// should exit. Single-consumer side of the ring: [Dispatcher] only.
func (r *ring[T]) next() (element[T], bool) {
	var attempt int
	for {
		pos := r.consumer.Load()
		s := &r.slots[pos&r.mask]
		if s.seq.Load() == pos+1 {
			e := s.elem
			s.elem = element[T]{}
			// Advance the cursor before freeing the slot so the producer-consumer gap
			// never reads above capacity, matching the order in take.
			r.consumer.Store(pos + 1)
			s.seq.Store(pos + r.capacity)
			r.strategy.Signal()
			return e, true
		}
		if r.drained() {
			return element[T]{}, false
		}
		attempt++
		r.strategy.Wait(attempt)
	}
}

// take competes for the next position against other consumers. Exactly one consumer
// wins each position; losers retry on the following one. Multi-consumer side of the
// ring: [WorkQueue] only.
func (r *ring[T]) take() (element[T], bool) {
	var attempt int
	for {
		pos := r.consumer.Load()
		s := &r.slots[pos&r.mask]
		switch diff := s.seq.Load() - (pos + 1); {
		case diff == 0:
			if r.consumer.CompareAndSwap(pos, pos+1) {
				e := s.elem
				s.elem = element[T]{}
				s.seq.Store(pos + r.capacity)
				r.strategy.Signal()
				return e, true
			}
		case diff < 0:
			// Nothing published at this position yet.
			if r.drained() {
				return element[T]{}, false
			}
			attempt++
			r.strategy.Wait(attempt)
		default:
			// Another consumer already took this position; reload and retry.
		}
	}
}

// drained reports whether a consumer may exit: shutdown has begun, no producer is
// mid-publish, and everything published has been consumed. Producers increment
// inflight before checking status, so any dispatch that passed its status check
// before shutdown is still visible here and will be drained, never abandoned.
func (r *ring[T]) drained() bool {
	if r.status() == dispatch.StatusAlive {
		return false
	}
	return r.inflight.Load() == 0 && r.producer.Load() == r.consumer.Load()
}

func (r *ring[T]) backlog() int64 {
	return r.producer.Load() - r.consumer.Load()
}

// beginShutdown flips the ring out of the alive state and wakes waiters so blocked
// producers can observe the rejection and consumers can re-check the exit condition.
func (r *ring[T]) beginShutdown() {
	r.state.CompareAndSwap(int32(dispatch.StatusAlive), int32(dispatch.StatusShuttingDown))
	r.strategy.Signal()
}
