package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/debug"
)

// Client performs HTTP requests against an assistants-style agent backend.
// It holds the authenticated connection handle and nothing else: no cache,
// no retry state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a Client for the agent backend at baseURL. The token
// is sent as a bearer credential on every call; pass an empty token for
// unauthenticated backends (local development).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// CreateThread creates a new conversation thread upstream and returns its
// identifier.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread threadObject
	if err := c.do(ctx, http.MethodPost, "/v1/threads", struct{}{}, &thread); err != nil {
		return "", err
	}
	debug.Log("agent", "thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// PostMessage appends a user message to the thread and returns the
// message identifier assigned upstream.
func (c *Client) PostMessage(ctx context.Context, threadID, text string) (string, error) {
	path := fmt.Sprintf("/v1/threads/%s/messages", url.PathEscape(threadID))
	body := createMessageRequest{Role: string(api.RoleUser), Content: text}

	var msg messageObject
	if err := c.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return "", err
	}
	debug.Log("agent", "message posted", "thread_id", threadID, "message_id", msg.ID)
	return msg.ID, nil
}

// CreateRun starts an asynchronous run of the given agent against the
// thread's pending user messages.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (*api.Run, error) {
	path := fmt.Sprintf("/v1/threads/%s/runs", url.PathEscape(threadID))
	body := createRunRequest{AgentID: agentID}

	var run runObject
	if err := c.do(ctx, http.MethodPost, path, body, &run); err != nil {
		return nil, err
	}
	debug.Log("agent", "run created", "thread_id", threadID, "run_id", run.ID, "status", run.Status)
	return run.toAPI(), nil
}

// GetRun fetches the current status snapshot of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*api.Run, error) {
	path := fmt.Sprintf("/v1/threads/%s/runs/%s", url.PathEscape(threadID), url.PathEscape(runID))

	var run runObject
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return run.toAPI(), nil
}

// ListMessagesSince returns all messages created after afterMessageID on
// the thread, oldest first. It follows upstream pagination until the
// sequence is exhausted.
func (c *Client) ListMessagesSince(ctx context.Context, threadID, afterMessageID string) ([]api.Message, error) {
	var messages []api.Message
	after := afterMessageID

	for {
		path := fmt.Sprintf("/v1/threads/%s/messages?order=asc&limit=100", url.PathEscape(threadID))
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}

		var page listMessagesResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		for _, m := range page.Data {
			messages = append(messages, m.toAPI())
		}

		if !page.HasMore || page.LastID == "" {
			return messages, nil
		}
		after = page.LastID
	}
}

// GetAgent fetches metadata for the configured agent. The health prober
// uses this as its reachability check.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*AgentInfo, error) {
	path := fmt.Sprintf("/v1/agents/%s", url.PathEscape(agentID))

	var info AgentInfo
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do sends one JSON request and decodes the response into out. Non-2xx
// statuses and network failures are mapped to typed errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return api.NewServerError("failed to marshal agent request: " + err.Error())
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return api.NewServerError("failed to create agent request: " + err.Error())
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	debug.Log("agent", "request", "method", method, "path", path)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return MapHTTPError(httpResp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return api.NewConnectionError("failed to parse agent response: " + err.Error())
	}
	return nil
}
