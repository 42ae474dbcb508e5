package model

import (
	"errors"
	"fmt"
	"time"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions can leave this status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

var ErrNotFound = errors.New("not found")

// Job represents one submitted unit of conversion work in the job store.
//
// - ArtifactRef identifies the uploaded input, resolved via the file store.
// - Result is set iff Status is completed; Error iff Status is failed.
type Job struct {
	ID          string     `json:"id"`
	ArtifactRef string     `json:"artifactRef"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Result      *Result    `json:"result,omitempty"`
	Error       *JobError  `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// Clone returns a deep copy so store readers never share mutable state
// with the record held inside the store.
func (j Job) Clone() Job {
	out := j
	if j.Result != nil {
		r := *j.Result
		out.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		out.Error = &e
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.EndedAt != nil {
		t := *j.EndedAt
		out.EndedAt = &t
	}
	return out
}

// Result is the payload recorded when a conversion completes.
type Result struct {
	ArtifactRef    string `json:"artifactRef"`
	Markdown       string `json:"markdownContent"`
	OutputPath     string `json:"outputPath,omitempty"`
	PagesProcessed int    `json:"pagesProcessed"`
	TablesFound    int    `json:"tablesFound"`
	ProcessingMS   int64  `json:"processingMs"`
}

// JobPatch is used for partial updates applied by the owning runner.
type JobPatch struct {
	Status    *JobStatus
	Progress  *int
	Result    *Result
	Error     *JobError
	StartedAt *time.Time
	EndedAt   *time.Time
}

type ErrorKind string

const (
	KindArtifactNotFound        ErrorKind = "artifact_not_found"
	KindUnsupportedArtifactType ErrorKind = "unsupported_artifact_type"
	KindJobNotFound             ErrorKind = "job_not_found"
	KindInvalidTransition       ErrorKind = "invalid_transition"
	KindConversionFailed        ErrorKind = "conversion_failed"
	KindArtifactUnavailable     ErrorKind = "artifact_unavailable"
	KindTimeout                 ErrorKind = "timeout"
	KindBusy                    ErrorKind = "busy"
)

// JobError carries a machine-readable kind alongside the human-readable
// message so transports can map it without string matching.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, format string, args ...any) *JobError {
	return &JobError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var je *JobError
	if errors.As(err, &je) {
		return je.Kind
	}
	return ""
}
