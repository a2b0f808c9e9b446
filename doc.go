/*
Package dispatchx provides a pluggable task-dispatch layer: one uniform [Dispatcher] contract over several
concurrency strategies, a routing layer on top of it, and a fan-out/fan-in runner for composing asynchronous results.

The strategies share identical ordering, backpressure, and shutdown-draining semantics so that code built
on top of them doesn't need to know which one is in use. Pick the strategy that matches the workload:

  - dispatch.SynchronousDispatcher executes on the calling goroutine with no queueing.
  - dispatch.ThreadPoolDispatcher spreads tasks over a bounded worker pool.
  - ring.Dispatcher is a lock-free ring buffer with one committed consumer and strict FIFO ordering.
  - ring.WorkQueue uses the same ring with competing consumers for maximum throughput.

The bus package routes events to registered consumers by selector match and delegates execution to any of
the above. The forkjoin package submits a collection of independent functions to an executor and funnels
their results into a single downstream sink.

[Dispatcher]: github.com/saylorsolutions/dispatchx/dispatch
*/
package dispatchx
