package forkjoin

import (
	"sync"
)

var _ Sink[any] = (*Stream[any])(nil)

// Result pairs a value with an error for transport over a [Stream].
// Exactly one of the two is meaningful.
type Result[T any] struct {
	Val T
	Err error
}

// Stream is a channel-backed [Sink] that stays open for any number of results until
// [Stream.Close] is called. Unlike a [Promise], its IsComplete stays false while open,
// so a [ForkJoin] keeps pushing errors to it.
type Stream[T any] struct {
	ch   chan Result[T]
	done chan struct{}
	stop sync.Once

	// mux excludes Close from in-flight pushes: results are only ever sent while
	// holding the read side, and the channel is only closed while holding the write
	// side. closed is read and written under the same lock.
	mux    sync.RWMutex
	closed bool
}

// NewStream creates an open [Stream].
// A buffer size may be given; with the default of 0, pushes block until a reader
// receives from [Stream.C], which also blocks the executor goroutine running the fork.
func NewStream[T any](buffer ...int) *Stream[T] {
	size := 0
	if len(buffer) > 0 && buffer[0] > 0 {
		size = buffer[0]
	}
	return &Stream[T]{
		ch:   make(chan Result[T], size),
		done: make(chan struct{}),
	}
}

// C is the channel results are delivered on. It's closed by [Stream.Close].
func (s *Stream[T]) C() <-chan Result[T] {
	return s.ch
}

// Next pushes a successful result. Dropped silently if the stream is closed.
func (s *Stream[T]) Next(val T) {
	s.push(Result[T]{Val: val})
}

// Error pushes a failure.
func (s *Stream[T]) Error(err error) {
	s.push(Result[T]{Err: err})
}

func (s *Stream[T]) push(res Result[T]) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- res:
	case <-s.done:
		// Close started while this push was blocked; the result is discarded.
	}
}

// IsComplete reports whether the stream has been closed.
func (s *Stream[T]) IsComplete() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.closed
}

// Close closes the stream and its channel. Safe to call more than once.
// Results pushed after Close are discarded; a push blocked on a full or unbuffered
// channel is released without delivering.
func (s *Stream[T]) Close() {
	s.stop.Do(func() {
		close(s.done)
		s.mux.Lock()
		defer s.mux.Unlock()
		s.closed = true
		close(s.ch)
	})
}
