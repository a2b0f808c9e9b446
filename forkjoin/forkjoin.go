package forkjoin

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Executor schedules closures for asynchronous execution and may apply its own
// backpressure. Every dispatcher in this module satisfies it.
type Executor interface {
	Execute(fn func()) error
}

// Sink receives the results of forked tasks.
type Sink[T any] interface {
	// Next pushes a successful result.
	Next(val T)
	// Error pushes a task failure.
	Error(err error)
	// IsComplete reports whether the sink can no longer accept values.
	// A [ForkJoin] logs and swallows errors once this returns true.
	IsComplete() bool
}

// ForkJoin is an ordered collection of independent functions sharing one [Sink].
// Add functions with [ForkJoin.Add], then fan them out with [ForkJoin.Submit].
// The ForkJoin itself has no lifecycle beyond Submit; completion of the sink is
// decoupled from completion of the underlying asynchronous work.
type ForkJoin[V, T any] struct {
	exec Executor
	sink Sink[T]
	log  *slog.Logger

	mux sync.RWMutex
	fns []func(V) (T, error)
}

// New creates a [ForkJoin] that runs its functions on exec and pushes outcomes to sink.
// A logger may be provided for errors that arrive after the sink completed;
// [slog.Default] is used otherwise.
func New[V, T any](exec Executor, sink Sink[T], log ...*slog.Logger) (*ForkJoin[V, T], error) {
	if exec == nil {
		return nil, fmt.Errorf("nil executor")
	}
	if sink == nil {
		return nil, fmt.Errorf("nil sink")
	}
	f := &ForkJoin[V, T]{
		exec: exec,
		sink: sink,
	}
	if len(log) > 0 {
		f.log = log[0]
	}
	return f, nil
}

// Add appends a function to the collection and returns the [ForkJoin] for chaining.
func (f *ForkJoin[V, T]) Add(fn func(V) (T, error)) *ForkJoin[V, T] {
	if fn == nil {
		return f
	}
	f.mux.Lock()
	defer f.mux.Unlock()
	f.fns = append(f.fns, fn)
	return f
}

// Len reports the number of functions added so far.
func (f *ForkJoin[V, T]) Len() int {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return len(f.fns)
}

// Submit schedules every added function with input, possibly in parallel depending on
// the executor, and returns once all of them have been handed off. Results arrive on
// the sink asynchronously after Submit returns.
//
// Executor rejections are joined and returned; functions accepted before a rejection
// still run.
func (f *ForkJoin[V, T]) Submit(input V) error {
	f.mux.RLock()
	fns := make([]func(V) (T, error), len(f.fns))
	copy(fns, f.fns)
	f.mux.RUnlock()

	var errs []error
	for _, fn := range fns {
		fn := fn
		err := f.exec.Execute(func() {
			f.fork(fn, input)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("submit fork: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SubmitNil is equivalent to Submit with the zero value of V, for collections whose
// functions take no meaningful input.
func (f *ForkJoin[V, T]) SubmitNil() error {
	var zero V
	return f.Submit(zero)
}

func (f *ForkJoin[V, T]) fork(fn func(V) (T, error), input V) {
	val, err := f.run(fn, input)
	if err != nil {
		if f.sink.IsComplete() {
			f.logger().Error("fork error discarded, sink already complete", "error", err)
			return
		}
		f.sink.Error(err)
		return
	}
	f.sink.Next(val)
}

func (f *ForkJoin[V, T]) run(fn func(V) (T, error), input V) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("fork panic: %v\n\n%s", r, string(buf[:n]))
		}
	}()
	return fn(input)
}

func (f *ForkJoin[V, T]) logger() *slog.Logger {
	if f.log == nil {
		return slog.Default()
	}
	return f.log
}
