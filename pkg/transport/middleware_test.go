package transport

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/frage-dev/frage/pkg/api"
)

func okHandler(response string) ChatHandler {
	return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		return &api.ChatResponse{ThreadID: req.ThreadID, Response: response}, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next ChatHandler) ChatHandler {
			return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
				order = append(order, name+"-in")
				resp, err := next.Converse(ctx, req)
				order = append(order, name+"-out")
				return resp, err
			})
		}
	}

	handler := Chain(mw("a"), mw("b"))(okHandler("hi"))
	if _, err := handler.Converse(context.Background(), &api.ChatRequest{Message: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a-in", "b-in", "b-out", "a-out"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID()(ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		seen = RequestIDFromContext(ctx)
		return &api.ChatResponse{Response: "ok"}, nil
	}))

	if _, err := handler.Converse(context.Background(), &api.ChatRequest{Message: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" {
		t.Error("expected a generated request ID in context")
	}
}

func TestRequestIDPreservesExisting(t *testing.T) {
	var seen string
	handler := RequestID()(ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		seen = RequestIDFromContext(ctx)
		return &api.ChatResponse{Response: "ok"}, nil
	}))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	if _, err := handler.Converse(ctx, &api.ChatRequest{Message: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-123" {
		t.Errorf("request ID = %q, want req-123", seen)
	}
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty request ID, got %q", id)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	handler := Recovery()(ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		panic("boom")
	}))

	resp, err := handler.Converse(context.Background(), &api.ChatRequest{Message: "x"})
	if resp != nil {
		t.Errorf("expected nil response after panic, got %+v", resp)
	}
	apiErr, ok := err.(*api.Error)
	if !ok {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Kind != api.ErrorKindServer {
		t.Errorf("kind = %q, want %q", apiErr.Kind, api.ErrorKindServer)
	}
	if !strings.Contains(apiErr.Message, "boom") {
		t.Errorf("message %q should mention the panic value", apiErr.Message)
	}
}

func TestRecoveryPassesThroughSuccess(t *testing.T) {
	handler := Recovery()(okHandler("hello"))
	resp, err := handler.Converse(context.Background(), &api.ChatRequest{Message: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "hello" {
		t.Errorf("response = %q, want hello", resp.Response)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Logging(logger)(okHandler("hello"))

	resp, err := handler.Converse(context.Background(), &api.ChatRequest{ThreadID: "thread_1", Message: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "hello" {
		t.Errorf("response = %q, want hello", resp.Response)
	}

	errHandler := Logging(logger)(ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		return nil, api.NewTimeoutError("deadline exceeded")
	}))
	if _, err := errHandler.Converse(context.Background(), &api.ChatRequest{Message: "x"}); err == nil {
		t.Error("expected error to propagate through logging middleware")
	}
}
