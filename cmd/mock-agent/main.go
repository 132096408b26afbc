// Command mock-agent runs a deterministic agent service for local
// development and end-to-end testing. It implements the thread, message,
// run, and agent metadata endpoints with fully in-memory state.
//
// Runs advance one state per status read: queued on the first read,
// in_progress on the second, completed on the third. Specific phrases in
// the user message alter the outcome:
//
//	"fail this run"  - the run ends failed with a rate limit error
//	"never finish"   - the run stays in_progress forever
//
// Configuration:
//
//	MOCK_PORT  - listen port (default: 9090)
//	MOCK_TOKEN - when set, requests must carry this bearer token
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	store := newStore(os.Getenv("MOCK_TOKEN"))

	srv := &http.Server{Addr: ":" + port, Handler: store.handler()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock agent starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock agent failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock agent shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Wire types ---

type messageObject struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

type runObject struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	CreatedAt int64     `json:"created_at"`
	LastError *runError `json:"last_error,omitempty"`
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- State ---

type thread struct {
	id       string
	messages []messageObject
	runs     map[string]*run
}

type run struct {
	obj   runObject
	reads int
	mode  string // "ok", "fail", "stall"
}

type store struct {
	mu      sync.Mutex
	token   string
	threads map[string]*thread
	seq     int
}

func newStore(token string) *store {
	return &store{token: token, threads: make(map[string]*thread)}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%06d", prefix, s.seq)
}

// --- Routing ---

func (s *store) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/threads", s.handleCreateThread)
	mux.HandleFunc("POST /v1/threads/{tid}/messages", s.handleCreateMessage)
	mux.HandleFunc("GET /v1/threads/{tid}/messages", s.handleListMessages)
	mux.HandleFunc("POST /v1/threads/{tid}/runs", s.handleCreateRun)
	mux.HandleFunc("GET /v1/threads/{tid}/runs/{rid}", s.handleGetRun)
	mux.HandleFunc("GET /v1/agents/{aid}", s.handleGetAgent)
	return s.authGate(mux)
}

func (s *store) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

func (s *store) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	id := s.nextID("thread")
	s.threads[id] = &thread{id: id, runs: make(map[string]*run)}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         id,
		"created_at": time.Now().Unix(),
	})
}

func (s *store) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	msg := messageObject{
		ID:        s.nextID("msg"),
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	}
	th.messages = append(th.messages, msg)
	writeJSON(w, http.StatusOK, msg)
}

func (s *store) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}

	msgs := th.messages
	if after := r.URL.Query().Get("after"); after != "" {
		for i, m := range msgs {
			if m.ID == after {
				msgs = msgs[i+1:]
				break
			}
		}
	}

	lastID := ""
	if len(msgs) > 0 {
		lastID = msgs[len(msgs)-1].ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":     msgs,
		"has_more": false,
		"last_id":  lastID,
	})
}

func (s *store) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}

	mode := "ok"
	if len(th.messages) > 0 {
		last := strings.ToLower(th.messages[len(th.messages)-1].Content)
		switch {
		case strings.Contains(last, "fail this run"):
			mode = "fail"
		case strings.Contains(last, "never finish"):
			mode = "stall"
		}
	}

	rn := &run{
		obj: runObject{
			ID:        s.nextID("run"),
			ThreadID:  th.id,
			Status:    "queued",
			CreatedAt: time.Now().Unix(),
		},
		mode: mode,
	}
	th.runs[rn.obj.ID] = rn
	writeJSON(w, http.StatusOK, rn.obj)
}

func (s *store) handleGetRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	rn, ok := th.runs[r.PathValue("rid")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "run not found")
		return
	}

	rn.reads++
	switch rn.mode {
	case "stall":
		if rn.reads > 1 {
			rn.obj.Status = "in_progress"
		}
	case "fail":
		switch rn.reads {
		case 1:
			rn.obj.Status = "queued"
		case 2:
			rn.obj.Status = "in_progress"
		default:
			rn.obj.Status = "failed"
			rn.obj.LastError = &runError{
				Code:    "rate_limit_exceeded",
				Message: "simulated rate limit",
			}
		}
	default:
		switch rn.reads {
		case 1:
			rn.obj.Status = "queued"
		case 2:
			rn.obj.Status = "in_progress"
		default:
			if rn.obj.Status != "completed" {
				rn.obj.Status = "completed"
				th.messages = append(th.messages, messageObject{
					ID:        s.nextID("msg"),
					Role:      "assistant",
					Content:   s.replyFor(th),
					CreatedAt: time.Now().Unix(),
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, rn.obj)
}

// replyFor builds a deterministic assistant reply echoing the latest
// user message so callers can assert on it.
func (s *store) replyFor(th *thread) string {
	for i := len(th.messages) - 1; i >= 0; i-- {
		if th.messages[i].Role == "user" {
			return "You said: " + th.messages[i].Content
		}
	}
	return "Hello from the mock agent."
}

func (s *store) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    r.PathValue("aid"),
		"name":  "mock agent",
		"model": "mock-1",
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
