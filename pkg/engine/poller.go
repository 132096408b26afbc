package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/frage-dev/frage/pkg/api"
	"github.com/frage-dev/frage/pkg/debug"
	"github.com/frage-dev/frage/pkg/observability"
)

// errRunNotTerminal is the retryable sentinel the poll operation returns
// while the run has not reached a terminal status.
var errRunNotTerminal = errors.New("run not yet terminal")

// Poller drives a single run from creation to a terminal status using
// capped exponential backoff bounded by the configured run deadline.
// It only reads status; message retrieval belongs to the session manager.
type Poller struct {
	adapter Adapter
	cfg     Config
	logger  *slog.Logger
}

// NewPoller creates a Poller. The config is normalized with defaults.
func NewPoller(adapter Adapter, cfg Config, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		adapter: adapter,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Poll waits until the given run reaches a terminal status and returns the
// final snapshot. The initial snapshot (from run creation) is honored: a
// run that is already terminal is resolved without any status read.
//
// Outcomes:
//   - Completed: the snapshot and a nil error.
//   - Failed or Cancelled: run_failed carrying the upstream detail verbatim.
//   - Expired (reported upstream) or deadline exhausted here: timeout. The
//     underlying run is left alone; no cancellation is sent upstream.
//   - Context cancelled: the context error, with no further adapter calls.
//
// Transient connection errors on status reads are retried within the same
// deadline; anything else aborts the poll immediately.
func (p *Poller) Poll(ctx context.Context, run *api.Run) (*api.Run, error) {
	if run.Status.IsTerminal() {
		return p.resolve(run)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialPollInterval
	b.MaxInterval = p.cfg.MaxPollInterval
	b.MaxElapsedTime = p.cfg.RunDeadline
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	last := run
	prev := run.Status

	op := func() error {
		snapshot, err := p.adapter.GetRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.Kind == api.ErrorKindConnection {
				// Transient status-read failure; keep polling.
				debug.Log("engine", "run status read failed, retrying",
					"run_id", run.ID, "error", apiErr.Message)
				return err
			}
			return backoff.Permanent(err)
		}

		observability.RunPollsTotal.Inc()
		debug.Trace("engine", "run polled", "run_id", snapshot.ID, "status", snapshot.Status)

		if verr := api.ValidateRunTransition(prev, snapshot.Status); verr != nil {
			// Tolerated: the upstream is authoritative even when it skips
			// intermediate reporting or reorders snapshots.
			p.logger.Warn("unexpected run status transition",
				slog.String("run_id", snapshot.ID),
				slog.String("from", string(prev)),
				slog.String("to", string(snapshot.Status)))
		}
		prev = snapshot.Status
		last = snapshot

		if !snapshot.Status.IsTerminal() {
			return errRunNotTerminal
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	switch {
	case err == nil:
		return p.resolve(last)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case errors.Is(err, errRunNotTerminal):
		// Deadline elapsed while the run was still non-terminal. The run
		// is abandoned upstream, not cancelled.
		observability.RunsTotal.WithLabelValues(string(api.RunStatusExpired)).Inc()
		p.logger.Warn("run deadline exceeded",
			slog.String("run_id", run.ID),
			slog.String("last_status", string(last.Status)),
			slog.Duration("deadline", p.cfg.RunDeadline))
		return nil, api.NewTimeoutError("run did not complete within the configured deadline")
	default:
		return nil, err
	}
}

// resolve maps a terminal run snapshot to the poller's outcome.
func (p *Poller) resolve(run *api.Run) (*api.Run, error) {
	observability.RunsTotal.WithLabelValues(string(run.Status)).Inc()

	switch run.Status {
	case api.RunStatusCompleted:
		return run, nil
	case api.RunStatusFailed:
		code, message := "", "run failed"
		if run.LastError != nil {
			code, message = run.LastError.Code, run.LastError.Message
		}
		return run, api.NewRunFailedError(code, message)
	case api.RunStatusCancelled:
		return run, api.NewRunFailedError("cancelled", "run was cancelled upstream")
	case api.RunStatusExpired:
		return run, api.NewTimeoutError("run expired upstream")
	default:
		return run, api.NewServerError("run resolved with non-terminal status " + string(run.Status))
	}
}
