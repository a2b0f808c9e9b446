/*
Package dispatch defines the core task-dispatch contract and its two simplest implementations.

# The Dispatcher Contract

A [Dispatcher] moves a [Task] from the goroutine that produced it to the goroutine that consumes it.
Every implementation - here and in the ring package - honors the same contract:

  - [Dispatcher.Dispatch] enqueues a [Task] for later execution and never runs it on the calling
    goroutine, except for [SynchronousDispatcher] where enqueue and execute are the same step.
    It returns [ErrRejected] once shutdown has begun, or [ErrCapacityExceeded] if the implementation
    was configured for fail-fast backpressure and is full.
  - [Dispatcher.Execute] is the lower-level variant for fire-and-forget closures.
  - [Dispatcher.Shutdown] stops accepting new work without waiting. Already-enqueued tasks still drain.
  - [Dispatcher.AwaitShutdown] blocks until the drain completes and the backing goroutines exit,
    or the timeout elapses. A timeout is reported as a false return, not an error, and does not
    interrupt a task already mid-execution.
  - [Dispatcher.Backlog] reports enqueued-but-not-yet-consumed work. It races with concurrent
    producers and consumers, so treat it as advisory only.

# Error Isolation

A panic inside a task's completion handler is always caught at the consumption boundary.
It's wrapped in an [ExecutionError] and routed to the task's own error handler if one was supplied,
otherwise logged. A failing task never stops a consumer goroutine or corrupts queue state.

# Choosing an Implementation

[SynchronousDispatcher] is for tests and trivially cheap handlers. [ThreadPoolDispatcher] is the
general-purpose choice when ordering across tasks doesn't matter. When strict FIFO ordering or
lock-free throughput matters, use the ring package.
*/
package dispatch
