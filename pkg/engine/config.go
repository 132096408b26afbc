package engine

import "time"

// Config holds tunables for the session manager and the run poller.
// The interval and deadline values are defaults, not contractual
// constants; deployments override them through pkg/config.
type Config struct {
	// AgentID identifies the upstream agent runs are created against.
	AgentID string

	// InitialPollInterval is the delay before the first run status read.
	InitialPollInterval time.Duration

	// MaxPollInterval caps the backoff between status reads.
	MaxPollInterval time.Duration

	// RunDeadline bounds the total wall-clock time a run may stay
	// non-terminal before the turn fails with a timeout. The upstream run
	// is left untouched when the deadline fires.
	RunDeadline time.Duration

	// MaxMessageLength bounds user input in characters.
	MaxMessageLength int
}

// withDefaults returns a copy of the config with zero values replaced by
// defaults.
func (c Config) withDefaults() Config {
	if c.InitialPollInterval <= 0 {
		c.InitialPollInterval = time.Second
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = 5 * time.Second
	}
	if c.RunDeadline <= 0 {
		c.RunDeadline = 90 * time.Second
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = 4000
	}
	return c
}
