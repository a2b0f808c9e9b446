package forkjoin

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var _ Sink[any] = (*Promise[any])(nil)

// Promise is a single-value [Sink] resolved at most once.
// The first Next or Error settles it; everything after that is ignored by the promise
// itself and discarded by any [ForkJoin] feeding it, since [Promise.IsComplete] flips
// as soon as it settles.
//
// Once Await returns, the result is cached for subsequent calls.
type Promise[T any] struct {
	ch       chan promiseResult[T]
	resolve  sync.Once
	complete atomic.Bool
	cacheVal T
	cacheErr error
	cacheSet sync.WaitGroup
}

type promiseResult[T any] struct {
	val T
	err error
}

// NewPromise creates an unresolved [Promise].
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{
		ch: make(chan promiseResult[T], 1),
	}
	p.cacheSet.Add(1)
	return p
}

// Next resolves the promise with val. Only the first settlement wins.
func (p *Promise[T]) Next(val T) {
	p.settle(promiseResult[T]{val: val})
}

// Error resolves the promise with err. Only the first settlement wins.
func (p *Promise[T]) Error(err error) {
	p.settle(promiseResult[T]{err: err})
}

// IsComplete reports whether the promise has settled.
func (p *Promise[T]) IsComplete() bool {
	return p.complete.Load()
}

func (p *Promise[T]) settle(res promiseResult[T]) {
	p.resolve.Do(func() {
		p.complete.Store(true)
		p.ch <- res
		close(p.ch)
		p.cacheVal = res.val
		p.cacheErr = res.err
		p.cacheSet.Done()
	})
}

// Await blocks until the promise settles, or until the timeout elapses if specified.
// If the timeout limit is reached, then the zero value is returned along with the
// error from the expired context. If no timeout is given, Await waits indefinitely.
func (p *Promise[T]) Await(timeout ...time.Duration) (T, error) {
	var (
		ctx    = context.Background()
		cancel = func() {}
	)
	if len(timeout) > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout[0])
	}
	defer cancel()
	select {
	case res, more := <-p.ch:
		if !more {
			p.cacheSet.Wait()
			return p.cacheVal, p.cacheErr
		}
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
