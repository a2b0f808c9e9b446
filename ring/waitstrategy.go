package ring

import (
	"runtime"
	"time"
)

// WaitStrategy controls how a goroutine idles while the sequence it needs isn't
// available yet: a producer waiting for a free slot, or a consumer waiting for the
// next published position.
//
// The strategy only trades latency against CPU; it never affects ordering or
// delivery guarantees.
type WaitStrategy interface {
	// Wait is invoked once per failed attempt to make progress.
	// attempt counts consecutive failures and resets after progress is made.
	Wait(attempt int)
	// Signal wakes blocked waiters after a cursor advances.
	// Must be cheap and non-blocking; strategies that never block may no-op.
	Signal()
}

// BusySpin returns a [WaitStrategy] that spins without yielding the processor.
// Lowest latency, burns a core per waiter. Only appropriate when dedicated cores
// are available and wait times are expected to be very short.
func BusySpin() WaitStrategy {
	return busySpin{}
}

type busySpin struct{}

func (busySpin) Wait(int) {}
func (busySpin) Signal()  {}

// Yielding returns a [WaitStrategy] that yields the processor between attempts.
// A good default when latency matters but cores are shared.
func Yielding() WaitStrategy {
	return yielding{}
}

type yielding struct{}

func (yielding) Wait(int) {
	runtime.Gosched()
}

func (yielding) Signal() {}

// Blocking returns a [WaitStrategy] that spins briefly, then parks on a
// notification channel until signaled. Cheapest on CPU, highest wakeup latency.
func Blocking() WaitStrategy {
	return &blocking{notify: make(chan struct{}, 1)}
}

type blocking struct {
	notify chan struct{}
}

const blockingSpinLimit = 64

func (b *blocking) Wait(attempt int) {
	if attempt < blockingSpinLimit {
		runtime.Gosched()
		return
	}
	// Park with a short deadline. The deadline covers the window where a Signal fires
	// between the caller's availability check and this receive; callers re-check and
	// wait again, so a missed signal costs latency, never progress.
	timer := time.NewTimer(time.Millisecond)
	defer timer.Stop()
	select {
	case <-b.notify:
	case <-timer.C:
	}
}

func (b *blocking) Signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
