package convert

import "context"

// Outcome is what a successful conversion produces. The fields mirror the
// result payload recorded on the job.
type Outcome struct {
	Markdown       string
	OutputPath     string
	PagesProcessed int
	TablesFound    int
	ProcessingMS   int64
}

// Converter turns a document at a local location into markdown. It must be
// stateless and reentrant: concurrent calls for different jobs must not
// interfere. report, if non-nil, receives coarse progress percentages and
// may be called any number of times.
type Converter interface {
	Convert(ctx context.Context, location string, report func(percent int)) (Outcome, error)
}
