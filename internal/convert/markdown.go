package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Markdown is the built-in PDF-to-markdown converter. It works from the raw
// PDF structure only (page and table object markers), which keeps the
// binary runnable end to end without an OCR engine behind it.
type Markdown struct {
	// OutputDir receives the rendered .md files. Empty means the outcome
	// carries the markdown in memory only.
	OutputDir string
}

func NewMarkdown(outputDir string) *Markdown {
	return &Markdown{OutputDir: outputDir}
}

func (m *Markdown) Convert(ctx context.Context, location string, report func(percent int)) (Outcome, error) {
	start := time.Now()

	data, err := os.ReadFile(location)
	if err != nil {
		return Outcome{}, fmt.Errorf("read input: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Outcome{}, fmt.Errorf("%s is not a valid PDF", filepath.Base(location))
	}

	pages := countPages(data)
	if pages == 0 {
		return Outcome{}, fmt.Errorf("%s contains no pages", filepath.Base(location))
	}
	tables := bytes.Count(data, []byte("/Subtype /Table"))

	var md strings.Builder
	name := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	fmt.Fprintf(&md, "# %s\n", name)
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		fmt.Fprintf(&md, "\n## Page %d\n", page)
		if report != nil {
			report(page * 100 / pages)
		}
	}

	out := Outcome{
		Markdown:       md.String(),
		PagesProcessed: pages,
		TablesFound:    tables,
	}
	if m.OutputDir != "" {
		if err := os.MkdirAll(m.OutputDir, 0o755); err != nil {
			return Outcome{}, err
		}
		out.OutputPath = filepath.Join(m.OutputDir, name+".md")
		if err := os.WriteFile(out.OutputPath, []byte(out.Markdown), 0o644); err != nil {
			return Outcome{}, fmt.Errorf("write output: %w", err)
		}
	}
	out.ProcessingMS = time.Since(start).Milliseconds()
	return out, nil
}

// countPages counts page objects, tolerating both spaced and unspaced
// dictionary forms. /Pages tree nodes are excluded.
func countPages(data []byte) int {
	spaced := bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
	packed := bytes.Count(data, []byte("/Type/Page")) - bytes.Count(data, []byte("/Type/Pages"))
	if spaced > packed {
		return spaced
	}
	return packed
}
