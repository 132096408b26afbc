package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Agent.Endpoint == "" {
		errs = append(errs, fmt.Errorf("agent.endpoint is required"))
	}
	if c.Agent.AgentID == "" {
		errs = append(errs, fmt.Errorf("agent.agent_id is required"))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Engine.InitialPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("engine.initial_poll_interval must be > 0, got %s", c.Engine.InitialPollInterval))
	}
	if c.Engine.MaxPollInterval < c.Engine.InitialPollInterval {
		errs = append(errs, fmt.Errorf("engine.max_poll_interval must be >= engine.initial_poll_interval"))
	}
	if c.Engine.RunDeadline <= 0 {
		errs = append(errs, fmt.Errorf("engine.run_deadline must be > 0, got %s", c.Engine.RunDeadline))
	}
	if c.Engine.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_message_length must be > 0, got %d", c.Engine.MaxMessageLength))
	}

	switch c.Auth.Type {
	case "none", "apikey":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"apikey\", got %q", c.Auth.Type))
	}
	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}

	return errors.Join(errs...)
}
