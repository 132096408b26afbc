package transport

import (
	"context"
	"fmt"

	"github.com/frage-dev/frage/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (resp *api.ChatResponse, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Converse(ctx, req)
		})
	}
}
