package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/frage-dev/frage/pkg/api"
)

// Logging returns middleware that emits structured log entries for each
// conversation turn. The log entry includes the request ID (from
// context), the thread ID, the turn duration, and whether the turn
// succeeded or failed. User message text is never logged.
//
// For full HTTP-level logging (status codes, client addresses), use
// HTTP-level middleware in the adapter.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			resp, err := next.Converse(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("thread_id", req.ThreadID),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "chat turn failed", attrs...)
			} else {
				attrs = append(attrs, slog.String("resolved_thread_id", resp.ThreadID))
				logger.LogAttrs(ctx, slog.LevelInfo, "chat turn completed", attrs...)
			}

			return resp, err
		})
	}
}
