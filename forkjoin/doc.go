/*
Package forkjoin submits a collection of independent functions to an executor and funnels
their results and errors into one downstream sink.

A [ForkJoin] holds an ordered list of functions sharing a single [Sink]. Calling
[ForkJoin.Submit] schedules every function on the [Executor] - every dispatcher in this
module satisfies Executor - and returns once dispatching is done, not once results
arrive. Successful results are pushed to the sink; errors are pushed only while the sink
is still open for values, and logged otherwise, because pushing an error into an
already-resolved single-value sink is meaningless.

Two sinks are provided: [Promise] resolves exactly once with the first result or error,
and [Stream] carries any number of results over a channel until closed. Anything else
can participate by implementing the three-method [Sink] interface.
*/
package forkjoin
