package transport

import "net/http"

// CORS returns HTTP-level middleware that answers cross-origin requests
// from browser clients. Preflight OPTIONS requests are answered directly
// with 204; all other requests pass through with the CORS headers set.
//
// allowOrigin is emitted verbatim as Access-Control-Allow-Origin. An
// empty value defaults to "*".
func CORS(allowOrigin string) func(http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
