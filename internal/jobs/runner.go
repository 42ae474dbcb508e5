package jobs

import (
	"context"
	"log"
	"time"

	"github.com/example/docmd/internal/model"
)

// run drives one job from pending to a terminal state. It is the only
// writer for its record. Any fault, including a panic inside the
// converter, is caught here and recorded as a failed terminal state; it
// never escapes the worker goroutine.
func (s *Service) run(id string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("jobs: runner for %s panicked: %v", id, r)
			s.fail(ctx, id, model.NewError(model.KindConversionFailed, "conversion panicked: %v", r))
		}
	}()

	job, err := s.store.Get(ctx, id)
	if err != nil {
		log.Printf("jobs: runner cannot load %s: %v", id, err)
		return
	}

	// Always pass through running, even when resolution fails right away,
	// so started/ended timestamps are set on every record that ran.
	running := model.JobRunning
	startedAt := time.Now().UTC()
	if _, err := s.store.Update(ctx, id, model.JobPatch{
		Status:    &running,
		StartedAt: &startedAt,
	}); err != nil {
		log.Printf("jobs: cannot start %s: %v", id, err)
		return
	}

	resolved, err := s.files.Resolve(ctx, job.ArtifactRef)
	if err != nil {
		s.fail(ctx, id, model.NewError(model.KindArtifactUnavailable,
			"artifact %s cannot be resolved: %v", job.ArtifactRef, err))
		return
	}

	// Progress is monotonic by contract; the runner enforces it locally so
	// an out-of-order converter callback never trips the store check.
	last := 0
	report := func(percent int) {
		if percent <= last {
			return
		}
		if percent > 100 {
			percent = 100
		}
		last = percent
		if _, err := s.store.Update(ctx, id, model.JobPatch{Progress: &percent}); err != nil {
			log.Printf("jobs: progress update for %s dropped: %v", id, err)
		}
	}

	outcome, err := s.converter.Convert(ctx, resolved.Location, report)
	if err != nil {
		s.fail(ctx, id, model.NewError(model.KindConversionFailed, "%v", err))
		return
	}

	completed := model.JobCompleted
	full := 100
	endedAt := time.Now().UTC()
	result := model.Result{
		ArtifactRef:    job.ArtifactRef,
		Markdown:       outcome.Markdown,
		OutputPath:     outcome.OutputPath,
		PagesProcessed: outcome.PagesProcessed,
		TablesFound:    outcome.TablesFound,
		ProcessingMS:   outcome.ProcessingMS,
	}
	if _, err := s.store.Update(ctx, id, model.JobPatch{
		Status:   &completed,
		Progress: &full,
		Result:   &result,
		EndedAt:  &endedAt,
	}); err != nil {
		log.Printf("jobs: cannot complete %s: %v", id, err)
		return
	}
	jobsFinished.WithLabelValues(string(model.JobCompleted)).Inc()
	jobDuration.Observe(endedAt.Sub(startedAt).Seconds())
}

func (s *Service) fail(ctx context.Context, id string, jobErr *model.JobError) {
	failed := model.JobFailed
	endedAt := time.Now().UTC()
	job, err := s.store.Update(ctx, id, model.JobPatch{
		Status:  &failed,
		Error:   jobErr,
		EndedAt: &endedAt,
	})
	if err != nil {
		log.Printf("jobs: cannot fail %s: %v", id, err)
		return
	}
	jobsFinished.WithLabelValues(string(model.JobFailed)).Inc()
	if job.StartedAt != nil {
		jobDuration.Observe(endedAt.Sub(*job.StartedAt).Seconds())
	}
}
