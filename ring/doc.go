/*
Package ring implements the lock-free ring-buffer dispatchers.

Both dispatchers share one mechanism: a fixed, power-of-two array of slots, a monotonic
producer cursor, and a monotonic consumer cursor. Each slot carries its own atomic
sequence marker, so a producer claims a position, writes the task, and publishes it by
bumping the marker - the consumer side can never observe a partially written slot, and a
slot is never overwritten before it has been consumed. The consumer cursor never passes
the producer cursor, and the gap between them never exceeds capacity.

[Dispatcher] commits a single consumer goroutine to the ring and guarantees strict FIFO
ordering: tasks execute in the exact order their positions were claimed, no matter how
many producers there are. Because the producer claim path and the consumer loop use
independent cursors, a consumer callback may dispatch new tasks onto the same ring
without deadlocking (as long as the ring isn't completely full of pending work).

[WorkQueue] runs N consumer goroutines that compete for positions with an atomic
claim-and-advance step. Exactly one consumer wins each position - nothing is skipped or
double-executed - but two adjacent tasks may run concurrently on different consumers, so
there is no global ordering. Use it when throughput matters more than order.

How a goroutine idles while waiting for a cursor is controlled by a [WaitStrategy]:
busy-spinning, yielding, or parking. The choice trades latency against CPU and never
affects correctness.

The claim/publish scheme follows Dmitry Vyukov's bounded MPMC queue design.
*/
package ring
