// Package api defines the core domain types for the frage conversation proxy.
//
// This package provides the types shared between the engine, the upstream
// agent client, and the HTTP boundary: threads, messages, runs and their
// status machine, the browser-facing chat contract, health reports, error
// taxonomy, and request validation.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [Message]: role-tagged, immutable unit of conversation content
//   - [Run]: snapshot of one asynchronous agent execution against a thread
//   - [ChatRequest]/[ChatResponse]: the browser-facing turn contract
//   - [HealthReport]: transient result of one connectivity probe
//   - [Error]: structured error with kind, code, param, and message
//
// Error kinds map one-to-one to HTTP status codes at the transport layer;
// the mapping itself lives in pkg/transport.
package api
