package transport

import (
	"context"

	"github.com/frage-dev/frage/pkg/api"
)

// ChatHandler performs a complete conversation turn: resolve the thread,
// deliver the user message, drive the agent run to completion, and return
// the assistant reply. Errors are expected to be *api.Error values so the
// HTTP adapter can map them to status codes.
type ChatHandler interface {
	Converse(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
}

// ChatHandlerFunc is an adapter that allows using an ordinary function
// as a ChatHandler.
type ChatHandlerFunc func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)

// Converse calls f(ctx, req).
func (f ChatHandlerFunc) Converse(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return f(ctx, req)
}

// HealthProber produces the aggregated readiness report served by the
// health endpoint. Implementations never return an error; failure modes
// are carried inside the report.
type HealthProber interface {
	Probe(ctx context.Context) api.HealthReport
}
