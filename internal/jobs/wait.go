package jobs

import (
	"context"
	"time"

	"github.com/example/docmd/internal/model"
)

// RunAndWait submits the artifact and polls the store until the job is
// terminal or the timeout elapses. It blocks only the caller: on timeout
// the job keeps running in the background and the returned error carries
// the job id so the caller can poll for the eventual outcome.
//
// Completed jobs return the terminal snapshot. Failed jobs surface the
// recorded error.
func (s *Service) RunAndWait(ctx context.Context, artifactRef string, timeout, pollInterval time.Duration) (model.Job, error) {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}

	id, err := s.Submit(ctx, artifactRef)
	if err != nil {
		return model.Job{}, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := s.GetStatus(ctx, id)
		if err != nil {
			return model.Job{}, err
		}
		if job.Status.Terminal() {
			if job.Status == model.JobFailed {
				return job, job.Error
			}
			return job, nil
		}

		select {
		case <-ctx.Done():
			return model.Job{}, model.NewError(model.KindTimeout,
				"wait for job %s cancelled: %v", id, ctx.Err())
		case <-deadline.C:
			return model.Job{}, model.NewError(model.KindTimeout,
				"job %s still %s after %v", id, job.Status, timeout)
		case <-ticker.C:
		}
	}
}
