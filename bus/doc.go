/*
Package bus provides an event bus that routes events to registered consumers by selector
match, delegating all execution to a configured dispatcher.

# Design Priorities

  - The bus adds routing, nothing else: ordering, backpressure, and shutdown semantics
    come entirely from the [dispatch.Dispatcher] behind it. Swapping a synchronous
    dispatcher for a ring or work-queue dispatcher changes execution, not routing.
  - Registrations are durable and ordered. When a key matches several registrations,
    their tasks are dispatched in registration order. Whether they also execute in that
    order depends on the dispatcher variant.
  - Notifying from inside a consumer callback is safe under every dispatcher variant;
    a recursive notify is just another dispatch.

# Usage

Register consumers against a [Selector] with [Bus.On], or against an exact key with
[Bus.OnKey]. Both return a [Registration] whose Cancel method removes the mapping.
[Bus.Notify] walks registrations in insertion order and dispatches one task per match.

Consumer panics are routed to the bus error handler configured with [WithErrorHandler],
or logged when none is set; a failing consumer never affects other consumers or the
dispatcher.

A process-wide shared bus is available from [Default] for cases where wiring a bus
through the composition root isn't worth the trouble.
*/
package bus
