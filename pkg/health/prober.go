package health

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frage-dev/frage/pkg/agent"
	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/debug"
	"github.com/frage-dev/frage/pkg/observability"
)

// DefaultProbeTimeout caps how long a single probe may spend talking to
// the agent service.
const DefaultProbeTimeout = 10 * time.Second

// MetadataClient is the slice of the agent client the prober needs to
// check reachability.
type MetadataClient interface {
	GetAgent(ctx context.Context, agentID string) (*agent.AgentInfo, error)
}

// Prober combines an identity check with an agent reachability check into
// a single health report. Probe never returns an error: every failure
// mode is expressed through the report fields.
type Prober struct {
	identity IdentityProbe
	client   MetadataClient
	agentID  string
	timeout  time.Duration
	logger   *slog.Logger
}

// ProberOption customizes a Prober.
type ProberOption func(*Prober)

// WithProbeTimeout overrides the per-probe time budget.
func WithProbeTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithProbeLogger sets the logger used for probe failures.
func WithProbeLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a Prober for the given agent.
func NewProber(identity IdentityProbe, client MetadataClient, agentID string, opts ...ProberOption) *Prober {
	p := &Prober{
		identity: identity,
		client:   client,
		agentID:  agentID,
		timeout:  DefaultProbeTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs both checks and aggregates them. The overall status is
// Healthy only when the identity is usable (Active or LocalDevelopment)
// and the agent is reachable with authorization; otherwise Unhealthy.
func (p *Prober) Probe(ctx context.Context) api.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	report := api.HealthReport{
		Status:    api.HealthStatusUnhealthy,
		Timestamp: time.Now().UTC(),
	}

	report.Details.Identity = p.identityStatus()
	report.Details.AgentAccess, report.Details.Error = p.checkAgent(ctx)

	if report.Details.Identity != api.IdentityInactive &&
		report.Details.AgentAccess == api.AgentAccessAuthorized {
		report.Status = api.HealthStatusHealthy
	}

	if report.Healthy() {
		observability.HealthStatus.Set(1)
	} else {
		observability.HealthStatus.Set(0)
		p.logger.Warn("health probe unhealthy",
			"identity", report.Details.Identity,
			"agent_access", report.Details.AgentAccess,
			"error", report.Details.Error)
	}
	debug.Log("health", "probe completed",
		"status", report.Status,
		"identity", report.Details.Identity,
		"agent_access", report.Details.AgentAccess)
	return report
}

// identityStatus shields the report from a misbehaving IdentityProbe.
func (p *Prober) identityStatus() (status api.IdentityStatus) {
	status = api.IdentityInactive
	if p.identity == nil {
		return status
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("identity probe panicked", "panic", r)
			status = api.IdentityInactive
		}
	}()
	return p.identity.Status()
}

// checkAgent fetches the agent metadata and classifies the outcome. The
// summary is a short operator-facing description; upstream payloads are
// already sanitized by the agent client.
func (p *Prober) checkAgent(ctx context.Context) (api.AgentAccess, string) {
	if p.client == nil {
		return api.AgentAccessError, "agent client not configured"
	}
	_, err := p.client.GetAgent(ctx, p.agentID)
	if err == nil {
		return api.AgentAccessAuthorized, ""
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == api.CodeUnauthorized {
			return api.AgentAccessUnauthorized, ""
		}
		return api.AgentAccessError, apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return api.AgentAccessError, "agent metadata fetch timed out"
	}
	return api.AgentAccessError, "agent metadata fetch failed"
}
