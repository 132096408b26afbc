// Package engine contains the conversation session manager and the run
// poller: the component that owns thread lifecycle, submits user messages
// as asynchronous runs against the upstream agent, and polls each run to a
// terminal state under deadline and cancellation rules.
//
// Polling is always scoped to the request that initiated it. There are no
// background polling tasks: the poll loop lives on the request's goroutine,
// sleeps cooperatively between status reads, and exits when the run turns
// terminal, the deadline elapses, or the request context is cancelled,
// whichever comes first.
//
// The only mutable shared state in this package is the per-thread
// run-in-flight marker (locks.go), which guarantees at most one active run
// per thread within this process.
package engine
