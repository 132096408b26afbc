package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/observability"
	"github.com/frage-dev/frage/pkg/transport"
)

// Adapter serves the chat API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	handler transport.ChatHandler
	prober  transport.HealthProber
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr             string
	MaxBodySize      int64
	MaxMessageLength int
	AllowOrigin      string
	ExposeMetrics    bool
	ShutdownTimeout  int // seconds
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8080",
		MaxBodySize:      1 << 20, // 1 MB, chat messages are small
		MaxMessageLength: api.DefaultMaxMessageLength,
		AllowOrigin:      "*",
		ExposeMetrics:    true,
		ShutdownTimeout:  30,
	}
}

// NewAdapter creates an HTTP adapter with the given ChatHandler and options.
// The HealthProber is optional; when nil, the health endpoint reports
// unhealthy with an explanatory detail.
// Middleware is applied to the ChatHandler in the given order.
func NewAdapter(handler transport.ChatHandler, prober transport.HealthProber, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		handler = transport.Chain(middlewares...)(handler)
	}

	a := &Adapter{
		handler: handler,
		prober:  prober,
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.mux.HandleFunc("POST /api/chat", a.handleChat)
	a.mux.HandleFunc("GET /api/health", a.handleHealth)
	if cfg.ExposeMetrics {
		a.mux.Handle("GET /metrics", promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for CORS, metrics, and request ID propagation.
func (a *Adapter) Handler() http.Handler {
	h := httpRequestIDMiddleware(a.mux)
	h = transport.CORS(a.config.AllowOrigin)(h)
	return observability.MetricsMiddleware(h)
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleChat handles POST /api/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidInputError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidInputError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidInputError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if err := api.ValidateChatRequest(&req, a.config.MaxMessageLength); err != nil {
		a.writeHandlerError(w, err)
		return
	}

	resp, err := a.handler.Converse(r.Context(), &req)
	if err != nil {
		// The client is gone; nothing useful can be written.
		if errors.Is(err, context.Canceled) {
			return
		}
		a.writeHandlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleHealth handles GET /api/health. The probe itself never fails;
// an unhealthy report maps to 503 so load balancers can act on it.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	var report api.HealthReport
	if a.prober != nil {
		report = a.prober.Probe(r.Context())
	} else {
		report = api.HealthReport{Status: api.HealthStatusUnhealthy}
		report.Details.Identity = api.IdentityInactive
		report.Details.AgentAccess = api.AgentAccessError
		report.Details.Error = "health prober not configured"
	}

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

// writeHandlerError writes an error produced by validation or the handler.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			apiErr = api.NewTimeoutError("request timed out")
		} else {
			apiErr = api.NewServerError(err.Error())
		}
	}
	transport.WriteAPIError(w, apiErr)
}
