package store

import (
	"context"
	"time"

	"github.com/example/docmd/internal/model"
)

// Store is the single source of truth for job state. Every read returns a
// fully-formed snapshot; every write is atomic with respect to the whole
// record.
type Store interface {
	// Create inserts a fresh pending record and returns it.
	Create(ctx context.Context, artifactRef string) (model.Job, error)
	// Get returns a snapshot, or model.ErrNotFound.
	Get(ctx context.Context, id string) (model.Job, error)
	// Update applies a patch after checking it against the lifecycle
	// state machine. Violations fail with an invalid_transition error.
	Update(ctx context.Context, id string, patch model.JobPatch) (model.Job, error)
	// Remove deletes a single record. Used to roll back a submission the
	// worker pool rejected, never on a record a runner owns.
	Remove(ctx context.Context, id string) error
	// List returns all known job ids.
	List(ctx context.Context) ([]string, error)
	// Evict removes terminal records whose EndedAt is before the cutoff
	// and reports how many were removed.
	Evict(ctx context.Context, endedBefore time.Time) (int, error)
	Close() error
}

// checkTransition validates a patch against the current record.
//
// Allowed status edges: pending -> running, running -> completed|failed.
// Progress is monotonically non-decreasing and frozen once terminal.
// Exactly one of result/error accompanies a terminal transition.
func checkTransition(cur model.Job, patch model.JobPatch) error {
	if cur.Status.Terminal() {
		return model.NewError(model.KindInvalidTransition,
			"job %s is %s; terminal records are immutable", cur.ID, cur.Status)
	}
	if patch.Status != nil {
		next := *patch.Status
		ok := (cur.Status == model.JobPending && next == model.JobRunning) ||
			(cur.Status == model.JobRunning && next.Terminal())
		if !ok {
			return model.NewError(model.KindInvalidTransition,
				"job %s: cannot move %s -> %s", cur.ID, cur.Status, next)
		}
		if next == model.JobCompleted && (patch.Result == nil || patch.Error != nil) {
			return model.NewError(model.KindInvalidTransition,
				"job %s: completed requires a result and no error", cur.ID)
		}
		if next == model.JobFailed && (patch.Error == nil || patch.Result != nil) {
			return model.NewError(model.KindInvalidTransition,
				"job %s: failed requires an error and no result", cur.ID)
		}
	} else if patch.Result != nil || patch.Error != nil {
		return model.NewError(model.KindInvalidTransition,
			"job %s: result/error only allowed on a terminal transition", cur.ID)
	}
	if patch.Progress != nil {
		p := *patch.Progress
		if p < 0 || p > 100 {
			return model.NewError(model.KindInvalidTransition,
				"job %s: progress %d out of range", cur.ID, p)
		}
		if p < cur.Progress {
			return model.NewError(model.KindInvalidTransition,
				"job %s: progress cannot regress %d -> %d", cur.ID, cur.Progress, p)
		}
	}
	return nil
}

// applyPatch returns the record with the patch folded in. Callers validate
// with checkTransition first.
func applyPatch(cur model.Job, patch model.JobPatch) model.Job {
	next := cur.Clone()
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Progress != nil {
		next.Progress = *patch.Progress
	}
	if patch.Result != nil {
		r := *patch.Result
		next.Result = &r
	}
	if patch.Error != nil {
		e := *patch.Error
		next.Error = &e
	}
	if patch.StartedAt != nil {
		t := *patch.StartedAt
		next.StartedAt = &t
	}
	if patch.EndedAt != nil {
		t := *patch.EndedAt
		next.EndedAt = &t
	}
	return next
}
