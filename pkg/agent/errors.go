package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/frage-dev/frage/pkg/api"
)

// MapHTTPError converts an upstream response with a non-2xx status code
// into a typed error. It attempts to parse the response body as an
// upstream error envelope to extract a descriptive message; the raw body
// is never surfaced.
func MapHTTPError(resp *http.Response) *api.Error {
	code, message := extractErrorDetail(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "upstream resource not found"
		}
		return api.NewNotFoundError(message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err := api.NewConnectionError("agent access denied")
		err.Code = api.CodeUnauthorized
		return err

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "agent rate limit exceeded"
		}
		return api.NewConnectionError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected agent error (HTTP %d)", resp.StatusCode)
		}
		if code != "" {
			message = code + ": " + message
		}
		return api.NewConnectionError(message)
	}
}

// MapNetworkError converts a transport-level failure (connection refused,
// DNS failure, timeout) into a connection error. Context cancellation is
// passed through unchanged so callers can distinguish a disconnecting
// client from an unreachable upstream.
func MapNetworkError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return api.NewConnectionError("agent connection error: " + err.Error())
}

// extractErrorDetail tries to parse the response body as an upstream error
// envelope and returns its code and message if found.
func extractErrorDetail(body io.Reader) (code, message string) {
	if body == nil {
		return "", ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "", ""
	}

	var errResp upstreamErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Code, errResp.Error.Message
	}

	return "", ""
}
