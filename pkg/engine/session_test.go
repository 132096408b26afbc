package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frage-dev/frage/pkg/api"
)

// fakeAdapter is a scripted in-memory Adapter. Every knob is optional;
// the zero value behaves like a healthy upstream that completes runs on
// the first status read and replies with a single assistant message.
type fakeAdapter struct {
	mu sync.Mutex

	createThreadCalls atomic.Int64
	postMessageCalls  atomic.Int64
	createRunCalls    atomic.Int64
	getRunCalls       atomic.Int64
	listCalls         atomic.Int64

	// createRunStatus is the status reported by the CreateRun snapshot.
	createRunStatus api.RunStatus
	// getRunStatuses is consumed one per GetRun call; when exhausted the
	// last entry repeats.
	getRunStatuses []api.RunStatus
	// getRunErrs is consumed one per GetRun call before getRunStatuses;
	// nil entries mean no error.
	getRunErrs []error
	// runError is attached to failed run snapshots.
	runError *api.RunError
	// replies are the assistant messages returned by ListMessagesSince.
	replies []string

	createThreadErr error
	postMessageErr  error
	createRunErr    error

	// blockGetRun, when non-nil, is received from inside GetRun so tests
	// can hold a turn mid-poll.
	blockGetRun chan struct{}
	// enteredGetRun is signalled once when GetRun is first entered.
	enteredGetRun chan struct{}
	enteredOnce   sync.Once
}

func (f *fakeAdapter) CreateThread(ctx context.Context) (string, error) {
	f.createThreadCalls.Add(1)
	if f.createThreadErr != nil {
		return "", f.createThreadErr
	}
	return fmt.Sprintf("thread_%d", f.createThreadCalls.Load()), nil
}

func (f *fakeAdapter) PostMessage(ctx context.Context, threadID, text string) (string, error) {
	f.postMessageCalls.Add(1)
	if f.postMessageErr != nil {
		return "", f.postMessageErr
	}
	return fmt.Sprintf("msg_%d", f.postMessageCalls.Load()), nil
}

func (f *fakeAdapter) CreateRun(ctx context.Context, threadID, agentID string) (*api.Run, error) {
	f.createRunCalls.Add(1)
	if f.createRunErr != nil {
		return nil, f.createRunErr
	}
	status := f.createRunStatus
	if status == "" {
		status = api.RunStatusQueued
	}
	run := &api.Run{ID: "run_1", ThreadID: threadID, Status: status, CreatedAt: time.Now()}
	if status == api.RunStatusFailed {
		run.LastError = f.runError
	}
	return run, nil
}

func (f *fakeAdapter) GetRun(ctx context.Context, threadID, runID string) (*api.Run, error) {
	if f.enteredGetRun != nil {
		f.enteredOnce.Do(func() { close(f.enteredGetRun) })
	}
	if f.blockGetRun != nil {
		select {
		case <-f.blockGetRun:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	n := int(f.getRunCalls.Add(1)) - 1

	f.mu.Lock()
	defer f.mu.Unlock()

	if n < len(f.getRunErrs) && f.getRunErrs[n] != nil {
		return nil, f.getRunErrs[n]
	}

	status := api.RunStatusCompleted
	if len(f.getRunStatuses) > 0 {
		idx := n
		if idx >= len(f.getRunStatuses) {
			idx = len(f.getRunStatuses) - 1
		}
		status = f.getRunStatuses[idx]
	}

	run := &api.Run{ID: runID, ThreadID: threadID, Status: status, CreatedAt: time.Now()}
	if status == api.RunStatusFailed {
		run.LastError = f.runError
	}
	return run, nil
}

func (f *fakeAdapter) ListMessagesSince(ctx context.Context, threadID, afterMessageID string) ([]api.Message, error) {
	f.listCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()

	replies := f.replies
	if replies == nil {
		replies = []string{"Hello from the agent."}
	}
	var msgs []api.Message
	for i, content := range replies {
		msgs = append(msgs, api.Message{
			ID:        fmt.Sprintf("msg_reply_%d", i),
			ThreadID:  threadID,
			Role:      api.RoleAssistant,
			Content:   content,
			CreatedAt: time.Now(),
		})
	}
	return msgs, nil
}

// fastConfig keeps poll intervals tiny so tests run quickly.
func fastConfig() Config {
	return Config{
		AgentID:             "agent_test",
		InitialPollInterval: 5 * time.Millisecond,
		MaxPollInterval:     20 * time.Millisecond,
		RunDeadline:         2 * time.Second,
		MaxMessageLength:    100,
	}
}

func newTestManager(t *testing.T, fake *fakeAdapter, cfg Config) *Manager {
	t.Helper()
	m, err := New(fake, cfg, nil)
	require.NoError(t, err)
	return m
}

func TestNewRequiresAdapter(t *testing.T) {
	_, err := New(nil, Config{}, nil)
	require.Error(t, err)
}

func TestConverseNewThread(t *testing.T) {
	fake := &fakeAdapter{}
	m := newTestManager(t, fake, fastConfig())

	resp, err := m.Converse(context.Background(), "", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "thread_1", resp.ThreadID)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, int64(1), fake.createThreadCalls.Load())
	assert.Equal(t, int64(1), fake.createRunCalls.Load())
}

func TestConverseReusesThread(t *testing.T) {
	fake := &fakeAdapter{}
	m := newTestManager(t, fake, fastConfig())

	resp, err := m.Converse(context.Background(), "thread_existing", "Hello again")
	require.NoError(t, err)
	assert.Equal(t, "thread_existing", resp.ThreadID)
	assert.Equal(t, int64(0), fake.createThreadCalls.Load(),
		"a caller-supplied thread ID must not create a new upstream thread")
}

func TestConverseInvalidInputMakesNoUpstreamCalls(t *testing.T) {
	fake := &fakeAdapter{}
	m := newTestManager(t, fake, fastConfig())

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t "},
		{"too long", string(make([]byte, 101))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Converse(context.Background(), "", tt.text)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, api.ErrorKindInvalidInput, apiErr.Kind)
		})
	}
	assert.Equal(t, int64(0), fake.createThreadCalls.Load())
	assert.Equal(t, int64(0), fake.postMessageCalls.Load())
}

func TestConverseRunFailureSurfacesDetail(t *testing.T) {
	fake := &fakeAdapter{
		getRunStatuses: []api.RunStatus{api.RunStatusFailed},
		runError:       &api.RunError{Code: "rate_limit_exceeded", Message: "rate limited"},
	}
	m := newTestManager(t, fake, fastConfig())

	_, err := m.Converse(context.Background(), "thread_1", "Hello")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrorKindRunFailed, apiErr.Kind)
	assert.Equal(t, "rate limited", apiErr.Message)
	assert.Equal(t, "rate_limit_exceeded", apiErr.Code)
	assert.Equal(t, int64(0), fake.listCalls.Load(),
		"no message retrieval after a failed run")
}

func TestConverseJoinsMultipleAssistantMessages(t *testing.T) {
	fake := &fakeAdapter{replies: []string{"First part.", "Second part."}}
	m := newTestManager(t, fake, fastConfig())

	resp, err := m.Converse(context.Background(), "thread_1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "First part.\n\nSecond part.", resp.Response)
}

func TestConverseNeverReturnsEmptySuccess(t *testing.T) {
	fake := &fakeAdapter{replies: []string{}}
	m := newTestManager(t, fake, fastConfig())

	_, err := m.Converse(context.Background(), "thread_1", "Hello")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrorKindRunFailed, apiErr.Kind)
}

func TestConverseMutualExclusionSameThread(t *testing.T) {
	fake := &fakeAdapter{
		blockGetRun:   make(chan struct{}),
		enteredGetRun: make(chan struct{}),
	}
	m := newTestManager(t, fake, fastConfig())

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Converse(context.Background(), "thread_1", "first")
		firstDone <- err
	}()

	// Wait until the first turn is mid-poll, then race a second turn on
	// the same thread.
	<-fake.enteredGetRun
	_, err := m.Converse(context.Background(), "thread_1", "second")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrorKindConflict, apiErr.Kind)
	assert.Equal(t, int64(1), fake.createRunCalls.Load(),
		"only one CreateRun may happen on the same thread")

	close(fake.blockGetRun)
	require.NoError(t, <-firstDone)
}

func TestConverseDifferentThreadsRunConcurrently(t *testing.T) {
	fake := &fakeAdapter{}
	m := newTestManager(t, fake, fastConfig())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"thread_a", "thread_b"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = m.Converse(context.Background(), id, "Hello")
		}(i, id)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int64(2), fake.createRunCalls.Load())
}

func TestConverseTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.RunDeadline = 150 * time.Millisecond

	fake := &fakeAdapter{
		getRunStatuses: []api.RunStatus{api.RunStatusInProgress},
	}
	m := newTestManager(t, fake, cfg)

	start := time.Now()
	_, err := m.Converse(context.Background(), "thread_1", "Hello")
	elapsed := time.Since(start)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrorKindTimeout, apiErr.Kind)
	assert.Less(t, elapsed, time.Second,
		"timeout must fire no later than deadline plus one poll interval")

	// No adapter calls may happen after the deadline fired.
	after := fake.getRunCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, fake.getRunCalls.Load())
}

func TestConverseCancellationReleasesThreadLock(t *testing.T) {
	fake := &fakeAdapter{
		blockGetRun:   make(chan struct{}),
		enteredGetRun: make(chan struct{}),
	}
	defer close(fake.blockGetRun)
	m := newTestManager(t, fake, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Converse(ctx, "thread_1", "Hello")
		done <- err
	}()

	<-fake.enteredGetRun
	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	// No adapter calls after cancellation.
	after := fake.getRunCalls.Load() + fake.listCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fake.getRunCalls.Load()+fake.listCalls.Load())

	// The thread lock must be free again for the next turn.
	fake.blockGetRun = nil
	resp, err := m.Converse(context.Background(), "thread_1", "retry")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
}

func TestConverseUpstreamErrorsPropagate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fakeAdapter)
		wantKind api.ErrorKind
	}{
		{
			"thread creation fails",
			func(f *fakeAdapter) { f.createThreadErr = api.NewConnectionError("agent unreachable") },
			api.ErrorKindConnection,
		},
		{
			"message post on unknown thread",
			func(f *fakeAdapter) { f.postMessageErr = api.NewNotFoundError("thread not found") },
			api.ErrorKindNotFound,
		},
		{
			"run creation fails",
			func(f *fakeAdapter) { f.createRunErr = api.NewConnectionError("agent unreachable") },
			api.ErrorKindConnection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAdapter{}
			tt.mutate(fake)
			m := newTestManager(t, fake, fastConfig())

			_, err := m.Converse(context.Background(), "", "Hello")
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
		})
	}
}

func TestConverseFailedRunReleasesThreadLock(t *testing.T) {
	fake := &fakeAdapter{
		getRunStatuses: []api.RunStatus{api.RunStatusFailed},
		runError:       &api.RunError{Message: "boom"},
	}
	m := newTestManager(t, fake, fastConfig())

	_, err := m.Converse(context.Background(), "thread_1", "Hello")
	require.Error(t, err)

	// The failed turn must not leave the thread permanently locked.
	fake.mu.Lock()
	fake.getRunStatuses = []api.RunStatus{api.RunStatusCompleted}
	fake.mu.Unlock()
	_, err = m.Converse(context.Background(), "thread_1", "retry")
	require.NoError(t, err)
}

func TestCollectReplySkipsUserMessages(t *testing.T) {
	fake := &fakeAdapter{}
	m := newTestManager(t, fake, fastConfig())

	// Inject a ListMessagesSince result mixing roles via a wrapper fake.
	mixed := &mixedRoleAdapter{fakeAdapter: fake}
	m.adapter = mixed

	reply, err := m.collectReply(context.Background(), "thread_1", "msg_1")
	require.NoError(t, err)
	assert.Equal(t, "assistant reply", reply)
}

// mixedRoleAdapter returns a user echo alongside the assistant reply.
type mixedRoleAdapter struct {
	*fakeAdapter
}

func (m *mixedRoleAdapter) ListMessagesSince(ctx context.Context, threadID, afterMessageID string) ([]api.Message, error) {
	return []api.Message{
		{ID: "msg_u", ThreadID: threadID, Role: api.RoleUser, Content: "user echo"},
		{ID: "msg_a", ThreadID: threadID, Role: api.RoleAssistant, Content: "assistant reply"},
	}, nil
}

func TestConverseConflictError(t *testing.T) {
	// Direct check that the conflict error is the documented kind and not
	// wrapped opaquely.
	err := api.NewConflictError("a run is already in flight for this thread")
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, api.ErrorKindConflict, apiErr.Kind)
}
