package api

import "fmt"

// ValidateRunTransition checks whether a run status transition is valid.
// An empty "from" status represents the state before the first poll.
// Terminal states do not allow outgoing transitions. The upstream may skip
// intermediate reporting entirely, so every status is reachable from the
// initial state and the terminal states are reachable from any
// non-terminal state.
func ValidateRunTransition(from, to RunStatus) *Error {
	if from == to {
		return nil
	}

	valid := map[RunStatus][]RunStatus{
		"":                  {RunStatusQueued, RunStatusInProgress, RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired},
		RunStatusQueued:     {RunStatusInProgress, RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired},
		RunStatusInProgress: {RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired},
	}

	allowed, exists := valid[from]
	if !exists {
		return NewServerError(
			fmt.Sprintf("invalid run transition from %s to %s", from, to))
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return NewServerError(
		fmt.Sprintf("invalid run transition from %s to %s", from, to))
}
