package agent

import (
	"time"

	"github.com/frage-dev/frage/pkg/api"
)

// AgentInfo is the metadata returned by the upstream agent service for a
// configured agent. The health prober uses it as a lightweight
// reachability check; nothing else reads it.
type AgentInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// --- Wire types (upstream JSON) ---

type threadObject struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

type messageObject struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

type runObject struct {
	ID        string        `json:"id"`
	ThreadID  string        `json:"thread_id"`
	Status    string        `json:"status"`
	CreatedAt int64         `json:"created_at"`
	LastError *runLastError `json:"last_error,omitempty"`
}

type runLastError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AgentID string `json:"agent_id"`
}

type listMessagesResponse struct {
	Data    []messageObject `json:"data"`
	HasMore bool            `json:"has_more"`
	LastID  string          `json:"last_id"`
}

type upstreamErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Wire translation ---

func (m messageObject) toAPI() api.Message {
	return api.Message{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Role:      api.Role(m.Role),
		Content:   m.Content,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
	}
}

func (r runObject) toAPI() *api.Run {
	run := &api.Run{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Status:    api.RunStatus(r.Status),
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.LastError != nil {
		run.LastError = &api.RunError{
			Code:    r.LastError.Code,
			Message: r.LastError.Message,
		}
	}
	return run
}
