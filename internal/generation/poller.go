package generation

import (
	"context"
	"errors"
	"time"

	"aicodegen-backend/internal/models"
)

// StatusFetcher reads the current status of one run.
type StatusFetcher func(ctx context.Context) (*models.RunStatus, error)

type PollOptions struct {
	// Interval between two status reads. Defaults to two seconds.
	Interval time.Duration
	// OnUpdate sees every status that was read.
	OnUpdate func(status *models.RunStatus)
	// OnCompleted runs once after a COMPLETED status, typically to reload screens.
	OnCompleted func(ctx context.Context) error
	// OnError sees fetch errors that do not stop polling.
	OnError func(err error)
}

// PollRun reads the run status right away and then on every interval until a
// terminal status is seen. Cancelling ctx is the only way to stop it earlier.
func PollRun(ctx context.Context, fetch StatusFetcher, opts PollOptions) (*models.RunStatus, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := fetch(ctx)
		switch {
		case err == nil:
			if opts.OnUpdate != nil {
				opts.OnUpdate(status)
			}
			if models.IsTerminalGenerationStatus(status.Status) {
				if status.Status == models.GenerationStatusCompleted && opts.OnCompleted != nil {
					if err := opts.OnCompleted(ctx); err != nil {
						return status, err
					}
				}
				return status, nil
			}
		case errors.Is(err, ErrRunNotFound):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			if opts.OnError != nil {
				opts.OnError(err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
