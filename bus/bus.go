package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/saylorsolutions/dispatchx/dispatch"
	"github.com/saylorsolutions/dispatchx/ring"
)

// Consumer receives events routed to it by a [Bus].
// It's invoked on whatever goroutine the bus's dispatcher executes tasks on.
type Consumer[T any] func(event T)

// Option configures a [Bus].
type Option func(conf *busConf) error

type busConf struct {
	errHandler func(error)
	log        *slog.Logger
}

// WithErrorHandler sets a handler for errors raised by consumers during event handling.
// Without one, consumer errors are logged.
func WithErrorHandler(handler func(error)) Option {
	return func(conf *busConf) error {
		if handler == nil {
			return fmt.Errorf("nil error handler")
		}
		conf.errHandler = handler
		return nil
	}
}

// WithLogger sets the logger used when no error handler is registered.
func WithLogger(log *slog.Logger) Option {
	return func(conf *busConf) error {
		if log == nil {
			return fmt.Errorf("nil logger")
		}
		conf.log = log
		return nil
	}
}

// Bus routes events to registered consumers by [Selector] match and delegates
// execution to the dispatcher it was created with.
type Bus[K comparable, T any] struct {
	disp       dispatch.Dispatcher[T]
	errHandler func(error)
	log        *slog.Logger

	mux  sync.RWMutex
	regs []*Registration[K, T]
}

// New creates a [Bus] that executes matched consumers on d.
func New[K comparable, T any](d dispatch.Dispatcher[T], opts ...Option) (*Bus[K, T], error) {
	if d == nil {
		return nil, fmt.Errorf("nil dispatcher")
	}
	conf := new(busConf)
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	return &Bus[K, T]{
		disp:       d,
		errHandler: conf.errHandler,
		log:        conf.log,
	}, nil
}

// Registration is the durable mapping created by [Bus.On].
// It lives until [Registration.Cancel] is called; there is no automatic expiry.
type Registration[K comparable, T any] struct {
	id        string
	sel       Selector[K]
	consumer  Consumer[T]
	bus       *Bus[K, T]
	cancelled atomic.Bool
}

// ID returns the unique identifier assigned at registration.
func (r *Registration[K, T]) ID() string {
	return r.id
}

// Cancel removes the registration from the bus. Safe to call more than once.
// Events already dispatched to the consumer may still execute after Cancel returns.
func (r *Registration[K, T]) Cancel() {
	if r.cancelled.CompareAndSwap(false, true) {
		r.bus.remove(r.id)
	}
}

// On registers a consumer for every routing key the selector matches.
// Registrations inserted earlier are dispatched earlier when one key matches several.
func (b *Bus[K, T]) On(sel Selector[K], consumer Consumer[T]) *Registration[K, T] {
	reg := &Registration[K, T]{
		id:       uuid.NewString(),
		sel:      sel,
		consumer: consumer,
		bus:      b,
	}
	b.mux.Lock()
	defer b.mux.Unlock()
	b.regs = append(b.regs, reg)
	return reg
}

// OnKey registers a consumer for exactly one routing key.
func (b *Bus[K, T]) OnKey(key K, consumer Consumer[T]) *Registration[K, T] {
	return b.On(Key(key), consumer)
}

func (b *Bus[K, T]) remove(id string) {
	b.mux.Lock()
	defer b.mux.Unlock()
	for i, reg := range b.regs {
		if reg.id == id {
			b.regs = append(b.regs[:i:i], b.regs[i+1:]...)
			return
		}
	}
}

// Notify routes event to every consumer whose selector matches key, dispatching one
// task per match in registration order. Execution order beyond that depends on the
// dispatcher variant.
//
// Dispatch failures (a shutting-down or full fail-fast dispatcher) are joined and
// returned; consumers whose dispatch succeeded are unaffected.
func (b *Bus[K, T]) Notify(key K, event T) error {
	b.mux.RLock()
	var matched []Consumer[T]
	for _, reg := range b.regs {
		if reg.sel.Matches(key) {
			matched = append(matched, reg.consumer)
		}
	}
	b.mux.RUnlock()

	var errs []error
	for _, consumer := range matched {
		task := dispatch.Task[T]{
			Payload:    event,
			OnComplete: consumer,
			OnError:    b.routeError,
		}
		if err := b.disp.Dispatch(task); err != nil {
			errs = append(errs, fmt.Errorf("notify '%v': %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bus[K, T]) routeError(err error) {
	if b.errHandler != nil {
		b.errHandler(err)
		return
	}
	log := b.log
	if log == nil {
		log = slog.Default()
	}
	log.Error("event consumer failed", "error", err)
}

// Registrations reports the current number of live registrations.
func (b *Bus[K, T]) Registrations() int {
	b.mux.RLock()
	defer b.mux.RUnlock()
	return len(b.regs)
}

var (
	defaultBus *Bus[string, any]
	initOnce   sync.Once
)

// DefaultCapacity dictates the ring capacity behind the [Default] bus.
// Must be changed before the first call to Default to take effect.
var DefaultCapacity = 1024

// Default returns a process-wide shared bus with string keys and untyped payloads,
// backed by a single-consumer ring dispatcher. Useful as a convenience at the
// composition root; prefer [New] when configuration or isolation matters.
func Default() *Bus[string, any] {
	initOnce.Do(func() {
		d, err := ring.New[any](ring.Capacity(DefaultCapacity), ring.WithWaitStrategy(ring.Blocking()))
		if err != nil {
			panic(fmt.Sprintf("invalid default bus capacity '%d': %v", DefaultCapacity, err))
		}
		defaultBus, _ = New[string, any](d)
	})
	return defaultBus
}
