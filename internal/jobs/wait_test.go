package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/docmd/internal/convert"
	"github.com/example/docmd/internal/filestore"
	"github.com/example/docmd/internal/model"
)

func TestRunAndWaitCompleted(t *testing.T) {
	files := newStubFiles()
	files.add("file-1", "/docs/report.pdf", filestore.KindPDF)
	conv := newStubConverter()
	conv.outcomes["/docs/report.pdf"] = convert.Outcome{Markdown: "# report", PagesProcessed: 5}
	svc := newTestService(t, files, conv, Config{})

	job, err := svc.RunAndWait(context.Background(), "file-1", 3*time.Second, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("RunAndWait() failed: %v", err)
	}
	if job.Status != model.JobCompleted || job.Result == nil || job.Result.PagesProcessed != 5 {
		t.Errorf("job = %+v, want completed with pagesProcessed=5", job)
	}
}

func TestRunAndWaitSurfacesFailure(t *testing.T) {
	files := newStubFiles()
	files.add("bad-1", "/docs/bad.pdf", filestore.KindPDF)
	conv := newStubConverter()
	conv.errs["/docs/bad.pdf"] = fmt.Errorf("corrupt")
	svc := newTestService(t, files, conv, Config{})

	job, err := svc.RunAndWait(context.Background(), "bad-1", 3*time.Second, 5*time.Millisecond)
	if model.KindOf(err) != model.KindConversionFailed {
		t.Fatalf("RunAndWait() error = %v, want conversion_failed", err)
	}
	if job.Status != model.JobFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
}

func TestRunAndWaitValidationErrorIsSynchronous(t *testing.T) {
	svc := newTestService(t, newStubFiles(), newStubConverter(), Config{})

	_, err := svc.RunAndWait(context.Background(), "missing", time.Second, 5*time.Millisecond)
	if model.KindOf(err) != model.KindArtifactNotFound {
		t.Fatalf("RunAndWait() error = %v, want artifact_not_found", err)
	}
}

func TestRunAndWaitTimeoutLeavesJobRunning(t *testing.T) {
	files := newStubFiles()
	files.add("slow", "/docs/slow.pdf", filestore.KindPDF)
	conv := newStubConverter()
	conv.block = make(chan struct{})
	svc := newTestService(t, files, conv, Config{})

	_, err := svc.RunAndWait(context.Background(), "slow", 50*time.Millisecond, 5*time.Millisecond)
	var je *model.JobError
	if !errors.As(err, &je) || je.Kind != model.KindTimeout {
		t.Fatalf("RunAndWait() error = %v, want timeout", err)
	}

	// The wait timed out, not the job: it must still reach a terminal
	// state once the converter finishes.
	ids, _ := svc.List(context.Background())
	if len(ids) != 1 {
		t.Fatalf("store has %d jobs, want 1", len(ids))
	}
	close(conv.block)
	job := waitTerminal(t, svc, ids[0])
	if job.Status != model.JobCompleted {
		t.Errorf("Status = %q after release, want completed", job.Status)
	}
}

func TestRunAndWaitHonorsCallerContext(t *testing.T) {
	files := newStubFiles()
	files.add("slow", "/docs/slow.pdf", filestore.KindPDF)
	conv := newStubConverter()
	conv.block = make(chan struct{})
	defer close(conv.block)
	svc := newTestService(t, files, conv, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := svc.RunAndWait(ctx, "slow", 3*time.Second, 5*time.Millisecond)
	if model.KindOf(err) != model.KindTimeout {
		t.Fatalf("RunAndWait() error = %v, want timeout on cancellation", err)
	}
}
