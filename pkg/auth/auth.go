package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision represents the three possible outcomes of authentication.
type Decision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes Decision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// ErrUnauthenticated is returned when credentials are missing or invalid.
var ErrUnauthenticated = errors.New("authentication required")

// Chain evaluates authenticators in order using three-outcome voting.
type Chain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator

	// DefaultDecision is used when all authenticators abstain.
	// Use Yes for development (no auth configured) or No for production.
	DefaultDecision Decision
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, returns the default decision.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.DefaultDecision == Yes {
		return Result{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous"},
		}
	}

	return Result{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}
