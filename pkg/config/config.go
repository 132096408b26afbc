// Package config provides unified configuration for the frage service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (FRAGE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the frage service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Agent         AgentConfig         `yaml:"agent"`
	Engine        EngineConfig        `yaml:"engine"`
	Auth          AuthConfig          `yaml:"auth"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 120s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MB
}

// AgentConfig holds the connection to the upstream agent service.
type AgentConfig struct {
	Endpoint  string        `yaml:"endpoint"`   // required
	AgentID   string        `yaml:"agent_id"`   // required
	Token     string        `yaml:"token"`      // optional
	TokenFile string        `yaml:"token_file"` // _file variant for token
	Timeout   time.Duration `yaml:"timeout"`    // per-request timeout, default: 30s
}

// EngineConfig holds conversation engine settings.
type EngineConfig struct {
	InitialPollInterval time.Duration `yaml:"initial_poll_interval"` // default: 1s
	MaxPollInterval     time.Duration `yaml:"max_poll_interval"`     // default: 5s
	RunDeadline         time.Duration `yaml:"run_deadline"`          // default: 90s
	MaxMessageLength    int           `yaml:"max_message_length"`    // default: 4000
}

// AuthConfig holds authentication settings for the public API.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none" or "apikey", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // API key entries for type=apikey
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// CORSConfig holds browser cross-origin settings.
type CORSConfig struct {
	AllowOrigin string `yaml:"allow_origin"` // default: "*"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Agent: AgentConfig{
			Timeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			InitialPollInterval: time.Second,
			MaxPollInterval:     5 * time.Second,
			RunDeadline:         90 * time.Second,
			MaxMessageLength:    4000,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		CORS: CORSConfig{
			AllowOrigin: "*",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
