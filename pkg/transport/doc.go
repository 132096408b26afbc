// Package transport defines the handler interfaces and middleware chain
// for the frage HTTP transport layer.
//
// The transport layer bridges browser clients and the conversation
// engine. It deserializes incoming chat requests into the core types
// defined in pkg/api, dispatches them for processing, and serializes the
// assistant reply (or a structured error) back to the client as JSON.
//
// # Handler Interfaces
//
// Two handler interfaces define the contract between the transport layer
// and the rest of the service:
//
//   - ChatHandler performs a full conversation turn.
//   - HealthProber produces the report behind the health endpoint.
//
// # Middleware
//
// The middleware chain wraps ChatHandler with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. HTTP-level
// concerns (CORS, metrics) are applied as http.Handler wrappers by the
// HTTP adapter.
package transport
