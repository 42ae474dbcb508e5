package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/docmd/internal/model"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	job, err := st.Create(ctx, "file-1")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	startJob(t, st, job.ID)
	if _, err := st.Update(ctx, job.ID, model.JobPatch{Progress: ptrInt(40)}); err != nil {
		t.Fatalf("progress update: %v", err)
	}

	ended := time.Now().UTC()
	if _, err := st.Update(ctx, job.ID, model.JobPatch{
		Status:   ptrStatus(model.JobCompleted),
		Progress: ptrInt(100),
		Result: &model.Result{
			ArtifactRef:    "file-1",
			Markdown:       "# report",
			PagesProcessed: 5,
			TablesFound:    2,
			ProcessingMS:   120,
		},
		EndedAt: ptrTime(ended),
	}); err != nil {
		t.Fatalf("complete update: %v", err)
	}

	got, err := st.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != model.JobCompleted || got.Progress != 100 {
		t.Errorf("got status=%q progress=%d, want completed/100", got.Status, got.Progress)
	}
	if got.Result == nil || got.Result.PagesProcessed != 5 || got.Result.Markdown != "# report" {
		t.Errorf("Result = %+v, want the recorded payload", got.Result)
	}
	if got.StartedAt == nil || got.EndedAt == nil {
		t.Error("timestamps not persisted")
	}
}

func TestSQLiteFailedJobKeepsErrorKind(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	job, _ := st.Create(ctx, "file-1")
	startJob(t, st, job.ID)
	if _, err := st.Update(ctx, job.ID, model.JobPatch{
		Status:  ptrStatus(model.JobFailed),
		Error:   model.NewError(model.KindConversionFailed, "corrupt"),
		EndedAt: ptrTime(time.Now().UTC()),
	}); err != nil {
		t.Fatalf("fail update: %v", err)
	}

	got, _ := st.Get(ctx, job.ID)
	if got.Error == nil || got.Error.Kind != model.KindConversionFailed {
		t.Fatalf("Error = %+v, want conversion_failed", got.Error)
	}
	if got.Result != nil {
		t.Error("failed job must not carry a result")
	}
}

func TestSQLiteEnforcesTransitions(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	job, _ := st.Create(ctx, "file-1")
	startJob(t, st, job.ID)
	completeJob(t, st, job.ID)

	_, err := st.Update(ctx, job.ID, model.JobPatch{Status: ptrStatus(model.JobRunning)})
	if model.KindOf(err) != model.KindInvalidTransition {
		t.Fatalf("Update() on terminal record = %v, want invalid_transition", err)
	}
}

func TestSQLiteEvictAndList(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	done, _ := st.Create(ctx, "done")
	startJob(t, st, done.ID)
	completeJob(t, st, done.ID)
	pending, _ := st.Create(ctx, "pending")

	ids, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("List() returned %d ids, want 2", len(ids))
	}

	n, err := st.Evict(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("Evict() failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Evict() removed %d, want 1", n)
	}
	if _, err := st.Get(ctx, done.ID); !errors.Is(err, model.ErrNotFound) {
		t.Error("terminal record survived eviction")
	}
	if _, err := st.Get(ctx, pending.ID); err != nil {
		t.Error("pending record must survive eviction")
	}
}
