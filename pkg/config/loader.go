package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, FRAGE_CONFIG env, ./config.yaml, /etc/frage/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. FRAGE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/frage/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("FRAGE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/frage/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps FRAGE_* environment variables to config fields.
// Env vars win over both defaults and the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRAGE_AGENT_ENDPOINT"); v != "" {
		cfg.Agent.Endpoint = v
	}
	if v := os.Getenv("FRAGE_AGENT_ID"); v != "" {
		cfg.Agent.AgentID = v
	}
	if v := os.Getenv("FRAGE_AGENT_TOKEN"); v != "" {
		cfg.Agent.Token = v
	}
	if v := os.Getenv("FRAGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if d, ok := envDuration("FRAGE_AGENT_TIMEOUT"); ok {
		cfg.Agent.Timeout = d
	}
	if d, ok := envDuration("FRAGE_POLL_INTERVAL"); ok {
		cfg.Engine.InitialPollInterval = d
	}
	if d, ok := envDuration("FRAGE_MAX_POLL_INTERVAL"); ok {
		cfg.Engine.MaxPollInterval = d
	}
	if d, ok := envDuration("FRAGE_RUN_DEADLINE"); ok {
		cfg.Engine.RunDeadline = d
	}
	if v := os.Getenv("FRAGE_MAX_MESSAGE_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxMessageLength = n
		}
	}
	if v := os.Getenv("FRAGE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("FRAGE_ALLOW_ORIGIN"); v != "" {
		cfg.CORS.AllowOrigin = v
	}

	// FRAGE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("FRAGE_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// envDuration parses a Go duration string from the named env var.
func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// agent.token_file -> agent.token
	if cfg.Agent.TokenFile != "" && cfg.Agent.Token == "" {
		val, err := readSecretFile(cfg.Agent.TokenFile)
		if err != nil {
			return fmt.Errorf("agent.token_file: %w", err)
		}
		cfg.Agent.Token = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
