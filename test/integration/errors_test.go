package integration

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/frage-dev/frage/pkg/api"
)

func TestInvalidJSON(t *testing.T) {
	resp, err := http.Post(
		testEnv.BaseURL()+"/api/chat",
		"application/json",
		bytes.NewReader([]byte(`{invalid json`)),
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil {
		t.Fatal("error object is nil")
	}
	if errResp.Error.Kind != api.ErrorKindInvalidInput {
		t.Errorf("error.kind = %q, want %q", errResp.Error.Kind, api.ErrorKindInvalidInput)
	}
}

func TestEmptyMessage(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/chat", map[string]any{"message": "   "})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil || errResp.Error.Param != "message" {
		t.Errorf("error = %+v, want param message", errResp.Error)
	}
}

func TestOversizedMessage(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/chat", map[string]any{
		"message": strings.Repeat("x", api.DefaultMaxMessageLength+1),
	})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
}

func TestMalformedThreadID(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/chat", map[string]any{
		"threadId": "thread with spaces",
		"message":  "hi",
	})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil || errResp.Error.Param != "threadId" {
		t.Errorf("error = %+v, want param threadId", errResp.Error)
	}
}

func TestWrongContentType(t *testing.T) {
	resp, err := http.Post(
		testEnv.BaseURL()+"/api/chat",
		"text/plain",
		strings.NewReader(`{"message":"hi"}`),
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.StatusCode)
	}
}

func TestWrongMethod(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/chat")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
