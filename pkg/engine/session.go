package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/debug"
	"github.com/frage-dev/frage/pkg/observability"
)

// Adapter is the narrow upstream surface the engine needs. It is satisfied
// by *agent.Client; tests substitute a scripted fake.
type Adapter interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, text string) (string, error)
	CreateRun(ctx context.Context, threadID, agentID string) (*api.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*api.Run, error)
	ListMessagesSince(ctx context.Context, threadID, afterMessageID string) ([]api.Message, error)
}

// Manager orchestrates conversational turns: thread resolution, message
// submission, run creation, polling, and reply retrieval. It guarantees at
// most one in-flight run per thread within this process.
type Manager struct {
	adapter Adapter
	poller  *Poller
	locks   *threadLocks
	cfg     Config
	logger  *slog.Logger
}

// New creates a Manager. The adapter must not be nil.
func New(adapter Adapter, cfg Config, logger *slog.Logger) (*Manager, error) {
	if adapter == nil {
		return nil, fmt.Errorf("engine: adapter must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Manager{
		adapter: adapter,
		poller:  NewPoller(adapter, cfg, logger),
		locks:   newThreadLocks(),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Converse runs one full conversational turn: validate the input, resolve
// the thread (minting one when threadID is empty), post the user message,
// create a run, poll it to a terminal status, and collect the assistant
// reply. On success the reply is never empty.
//
// A second concurrent call for the same thread is rejected with a conflict
// error; the caller may retry once the first turn finishes. The in-flight
// marker is released on every exit path, including cancellation.
func (m *Manager) Converse(ctx context.Context, threadID, userText string) (*api.ChatResponse, error) {
	if apiErr := api.ValidateUserMessage(userText, m.cfg.MaxMessageLength); apiErr != nil {
		return nil, apiErr
	}

	// Thread resolution: trust a caller-supplied identifier as given. The
	// upstream service is the authority and rejects unknown IDs itself.
	created := false
	if threadID == "" {
		id, err := m.adapter.CreateThread(ctx)
		if err != nil {
			return nil, err
		}
		threadID = id
		created = true
	}

	sem := m.locks.get(threadID)
	if !sem.TryAcquire(1) {
		observability.ConflictsTotal.Inc()
		return nil, api.NewConflictError("a run is already in flight for this thread")
	}
	defer sem.Release(1)

	start := time.Now()
	debug.Log("engine", "turn started",
		"thread_id", threadID, "new_thread", created,
		"message_chars", len(userText))

	userMessageID, err := m.adapter.PostMessage(ctx, threadID, userText)
	if err != nil {
		return nil, err
	}

	run, err := m.adapter.CreateRun(ctx, threadID, m.cfg.AgentID)
	if err != nil {
		return nil, err
	}

	final, err := m.poller.Poll(ctx, run)
	if err != nil {
		return nil, err
	}

	// The poller only signals completion; fetching the produced messages
	// is this manager's job.
	reply, err := m.collectReply(ctx, threadID, userMessageID)
	if err != nil {
		return nil, err
	}

	m.logger.Info("turn completed",
		slog.String("thread_id", threadID),
		slog.String("run_id", final.ID),
		slog.Duration("duration", time.Since(start)))
	observability.TurnDuration.Observe(time.Since(start).Seconds())

	return &api.ChatResponse{ThreadID: threadID, Response: reply}, nil
}

// collectReply fetches the messages produced after the user's message and
// concatenates the assistant ones in arrival order, separated by a single
// blank line. A completed run that produced no assistant message is an
// upstream failure, never an empty success.
func (m *Manager) collectReply(ctx context.Context, threadID, afterMessageID string) (string, error) {
	messages, err := m.adapter.ListMessagesSince(ctx, threadID, afterMessageID)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, msg := range messages {
		if msg.Role == api.RoleAssistant && msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}

	if len(parts) == 0 {
		return "", api.NewRunFailedError("", "run completed without an assistant reply")
	}
	return strings.Join(parts, "\n\n"), nil
}
