package transport

import (
	"encoding/json"
	"net/http"

	"github.com/frage-dev/frage/pkg/api"
)

// HTTPStatusFromError maps an error kind to the corresponding HTTP status
// code. Transport-level errors (body too large, unsupported content type,
// method not allowed) are handled separately by the HTTP adapter.
func HTTPStatusFromError(err *api.Error) int {
	switch err.Kind {
	case api.ErrorKindInvalidInput:
		return http.StatusBadRequest
	case api.ErrorKindNotFound:
		return http.StatusNotFound
	case api.ErrorKindConflict:
		return http.StatusConflict
	case api.ErrorKindConnection, api.ErrorKindRunFailed:
		return http.StatusBadGateway
	case api.ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case api.ErrorKindServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.Error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an error response, deriving the HTTP status code
// from the error kind.
func WriteAPIError(w http.ResponseWriter, apiErr *api.Error) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
