package health

import (
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frage-dev/frage/pkg/api"
)

// IdentityProbe reports whether credentials for the upstream agent service
// are present in the ambient execution environment. It is injected into
// the Prober so the core stays testable without environment mutation.
type IdentityProbe interface {
	Status() api.IdentityStatus
}

// IdentityProbeFunc adapts an ordinary function to an IdentityProbe.
type IdentityProbeFunc func() api.IdentityStatus

// Status calls f().
func (f IdentityProbeFunc) Status() api.IdentityStatus { return f() }

// EnvIdentity is the default IdentityProbe. It inspects two environment
// signals: the deployment mode and the agent bearer token.
//
//   - mode "development" or "local" reports LocalDevelopment, regardless
//     of token state
//   - a missing token reports Inactive
//   - a JWT-shaped token that has expired reports Inactive
//   - anything else (opaque API key or unexpired JWT) reports Active
type EnvIdentity struct {
	// TokenEnv names the variable holding the bearer token.
	// Defaults to FRAGE_AGENT_TOKEN.
	TokenEnv string
	// ModeEnv names the variable holding the deployment mode.
	// Defaults to FRAGE_ENV.
	ModeEnv string
}

// Status implements IdentityProbe.
func (e EnvIdentity) Status() api.IdentityStatus {
	modeEnv := e.ModeEnv
	if modeEnv == "" {
		modeEnv = "FRAGE_ENV"
	}
	tokenEnv := e.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "FRAGE_AGENT_TOKEN"
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv(modeEnv))) {
	case "development", "local":
		return api.IdentityLocalDevelopment
	}

	token := strings.TrimSpace(os.Getenv(tokenEnv))
	if token == "" {
		return api.IdentityInactive
	}
	if tokenExpired(token, time.Now()) {
		return api.IdentityInactive
	}
	return api.IdentityActive
}

// tokenExpired reports whether the token is a JWT whose exp claim lies in
// the past. The signature is deliberately not verified: this is a presence
// check, not an authentication step. Opaque tokens (plain API keys) are
// not inspectable and count as present.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
