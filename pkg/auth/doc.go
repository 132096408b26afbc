// Package auth gates the public chat API behind optional API key
// authentication.
//
// Authenticators vote with a three-outcome decision (Yes, No, Abstain)
// and are evaluated as a chain; the first non-abstaining authenticator
// wins. With no authenticators configured the chain's default decision
// applies, which keeps local development friction-free while production
// deployments require a key.
package auth
