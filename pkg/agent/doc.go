// Package agent is the thin HTTP client for the upstream agent service.
//
// The client wraps a single authenticated connection handle and exposes the
// five thread/run operations the engine needs (create-thread, post-message,
// create-run, get-run, list-messages-since) plus the agent metadata fetch
// used by the health prober. All operations are synchronous calls with no
// internal retry and no local cache: retry policy belongs to the run poller
// and the session manager, never here.
//
// Upstream failures are mapped to the typed errors of pkg/api in errors.go;
// raw upstream payloads never leave this package.
package agent
