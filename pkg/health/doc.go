// Package health probes the service's readiness to serve conversations.
//
// A probe has two halves: an identity check (are agent credentials
// present in the environment) and a reachability check (can the agent's
// metadata be fetched with authorization). The Prober aggregates both
// into an api.HealthReport and never returns an error; degraded states
// show up as fields of the report instead.
package health
