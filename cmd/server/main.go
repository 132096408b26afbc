// Command server runs the frage chat proxy.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (-config flag, FRAGE_CONFIG env, ./config.yaml, /etc/frage/config.yaml),
// then FRAGE_* environment variable overrides. The most common settings:
//
//	FRAGE_AGENT_ENDPOINT - agent service base URL (required)
//	FRAGE_AGENT_ID       - agent to run conversations against (required)
//	FRAGE_AGENT_TOKEN    - bearer token for the agent service (optional)
//	FRAGE_PORT           - listen port (default: 8080)
//	FRAGE_RUN_DEADLINE   - per-turn run deadline (default: 90s)
//	FRAGE_DEBUG          - debug log categories (e.g. "agent,engine" or "all")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/frage-dev/frage/pkg/agent"
	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/auth"
	"github.com/frage-dev/frage/pkg/config"
	"github.com/frage-dev/frage/pkg/debug"
	"github.com/frage-dev/frage/pkg/engine"
	"github.com/frage-dev/frage/pkg/health"
	"github.com/frage-dev/frage/pkg/transport"
	transporthttp "github.com/frage-dev/frage/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// A local .env is convenient in development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: debug.ParseLevel(os.Getenv("FRAGE_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	debug.Init(os.Getenv("FRAGE_DEBUG"), os.Getenv("FRAGE_LOG_LEVEL"))

	client := agent.NewClient(cfg.Agent.Endpoint, cfg.Agent.Token, cfg.Agent.Timeout)
	defer client.Close()

	mgr, err := engine.New(client, engine.Config{
		AgentID:             cfg.Agent.AgentID,
		InitialPollInterval: cfg.Engine.InitialPollInterval,
		MaxPollInterval:     cfg.Engine.MaxPollInterval,
		RunDeadline:         cfg.Engine.RunDeadline,
		MaxMessageLength:    cfg.Engine.MaxMessageLength,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	prober := health.NewProber(
		health.EnvIdentity{},
		client,
		cfg.Agent.AgentID,
		health.WithProbeLogger(logger),
	)

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithMaxMessageLength(cfg.Engine.MaxMessageLength),
		transporthttp.WithAllowOrigin(cfg.CORS.AllowOrigin),
		transporthttp.WithMetrics(cfg.Observability.Metrics.Enabled),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	}

	if cfg.Auth.Type == "apikey" {
		opts = append(opts, transporthttp.WithHTTPMiddleware(authMiddleware(cfg, logger)))
	}

	handler := transport.ChatHandler(chatHandler{mgr})
	srv := transporthttp.NewServer(handler, prober, opts...)

	logger.Info("frage starting",
		"port", cfg.Server.Port,
		"agent_endpoint", cfg.Agent.Endpoint,
		"agent_id", cfg.Agent.AgentID,
		"run_deadline", cfg.Engine.RunDeadline,
	)
	return srv.ListenAndServe()
}

// authMiddleware builds the API key gate from configuration.
func authMiddleware(cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	entries := make([]auth.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		entries = append(entries, auth.RawKeyEntry{
			Key:      k.Key,
			Identity: auth.Identity{Subject: k.Subject},
		})
	}
	chain := &auth.Chain{
		Authenticators:  []auth.Authenticator{auth.NewAPIKey(entries)},
		DefaultDecision: auth.No,
	}
	logger.Info("api key authentication enabled", "keys", len(entries))
	return auth.Middleware(chain, auth.DefaultBypassEndpoints)
}

// chatHandler adapts the engine's Converse signature to the transport
// handler contract.
type chatHandler struct {
	mgr *engine.Manager
}

func (h chatHandler) Converse(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return h.mgr.Converse(ctx, req.ThreadID, req.Message)
}
