package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frage-dev/frage/pkg/agent"
	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/health"
	transporthttp "github.com/frage-dev/frage/pkg/transport/http"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/health")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var report api.HealthReport
	decodeJSON(t, resp, &report)
	if report.Status != api.HealthStatusHealthy {
		t.Errorf("status = %q, want %q", report.Status, api.HealthStatusHealthy)
	}
	if report.Details.Identity != api.IdentityActive {
		t.Errorf("identity = %q", report.Details.Identity)
	}
	if report.Details.AgentAccess != api.AgentAccessAuthorized {
		t.Errorf("agent_access = %q", report.Details.AgentAccess)
	}
}

func TestHealthEndpointUnreachableAgent(t *testing.T) {
	// A separate server whose agent endpoint is already closed.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	client := agent.NewClient(dead.URL, "", 2*time.Second)
	defer client.Close()
	prober := health.NewProber(
		health.IdentityProbeFunc(func() api.IdentityStatus { return api.IdentityActive }),
		client,
		testAgentID,
		health.WithProbeTimeout(2*time.Second),
	)

	cfg := transporthttp.DefaultConfig()
	cfg.ExposeMetrics = false
	adapter := transporthttp.NewAdapter(chatHandler{}, prober, cfg)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp := getURL(t, srv.URL+"/api/health")

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var report api.HealthReport
	decodeJSON(t, resp, &report)
	if report.Status != api.HealthStatusUnhealthy {
		t.Errorf("status = %q, want %q", report.Status, api.HealthStatusUnhealthy)
	}
	if report.Details.AgentAccess != api.AgentAccessError {
		t.Errorf("agent_access = %q, want %q", report.Details.AgentAccess, api.AgentAccessError)
	}
}
