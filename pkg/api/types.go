package api

import "time"

// Role tags a message as authored by the user or the agent.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged unit of conversation content. Messages are
// immutable once created; the upstream agent service is the system of
// record, this proxy only reads and writes them through its API.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStatus is the upstream-reported execution state of a run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
	RunStatusExpired    RunStatus = "expired"
)

// IsTerminal reports whether the status permits no further transitions.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// RunError carries upstream-supplied detail for a failed run.
type RunError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Run is a snapshot of one asynchronous agent execution against a thread.
// A run becomes immutable once it reaches a terminal status.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	LastError *RunError `json:"last_error,omitempty"`
}

// ChatRequest is the browser-facing request body for one conversational
// turn. An empty ThreadID starts a new conversation.
type ChatRequest struct {
	ThreadID string `json:"threadId,omitempty"`
	Message  string `json:"message"`
}

// ChatResponse is the browser-facing result of one conversational turn.
// ThreadID is echoed (or newly minted) so the client can continue the
// conversation; Response is the assistant reply, never empty on success.
type ChatResponse struct {
	ThreadID string `json:"threadId"`
	Response string `json:"response"`
}

// IdentityStatus describes whether credentials for the upstream agent
// service are present in the ambient execution environment.
type IdentityStatus string

const (
	IdentityActive           IdentityStatus = "Active"
	IdentityLocalDevelopment IdentityStatus = "LocalDevelopment"
	IdentityInactive         IdentityStatus = "Inactive"
)

// AgentAccess classifies the outcome of the health prober's reachability
// call to the upstream agent.
type AgentAccess string

const (
	AgentAccessAuthorized   AgentAccess = "Authorized"
	AgentAccessUnauthorized AgentAccess = "Unauthorized"
	AgentAccessError        AgentAccess = "Error"
)

// HealthStatus is the overall verdict of a health probe.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "Healthy"
	HealthStatusUnhealthy HealthStatus = "Unhealthy"
)

// HealthDetails breaks the probe verdict into its ingredients. Error holds
// a short summary when the reachability check failed; it never contains
// raw upstream payloads.
type HealthDetails struct {
	Identity    IdentityStatus `json:"identity"`
	AgentAccess AgentAccess    `json:"agentAccess"`
	Error       string         `json:"error,omitempty"`
}

// HealthReport is the transient, request-scoped result of one probe.
// It is recomputed on every request and never persisted.
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Details   HealthDetails `json:"details"`
}

// Healthy reports whether the overall status is Healthy.
func (r HealthReport) Healthy() bool {
	return r.Status == HealthStatusHealthy
}
