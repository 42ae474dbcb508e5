package filestore

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/example/docmd/internal/model"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
	}{
		{"report.pdf", KindPDF},
		{"REPORT.PDF", KindPDF},
		{"notes.docx", KindDocument},
		{"sheet.xlsx", KindSpreadsheet},
		{"old.xls", KindSpreadsheet},
		{"bundle.zip", KindArchive},
		{"photo.jpg", KindImage},
		{"mystery.bin", KindUnknown},
		{"noextension", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectKind(tt.filename); got != tt.want {
				t.Errorf("DetectKind(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestLocalSaveAndResolve(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() failed: %v", err)
	}
	ctx := context.Background()

	info, err := st.Save(ctx, "report.pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if info.ID == "" || info.Kind != KindPDF || info.Size != int64(len("%PDF-1.4 fake")) {
		t.Errorf("Save() info = %+v", info)
	}

	resolved, err := st.Resolve(ctx, info.ID)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if resolved.Kind != KindPDF {
		t.Errorf("Resolve() kind = %q, want pdf", resolved.Kind)
	}
	data, err := os.ReadFile(resolved.Location)
	if err != nil {
		t.Fatalf("read resolved location: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("resolved content = %q", data)
	}
}

func TestLocalResolveUnknown(t *testing.T) {
	st, _ := NewLocal(t.TempDir())
	if _, err := st.Resolve(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Resolve(unknown) = %v, want ErrNotFound", err)
	}
}

func TestLocalListAndDelete(t *testing.T) {
	st, _ := NewLocal(t.TempDir())
	ctx := context.Background()

	a, _ := st.Save(ctx, "a.pdf", strings.NewReader("aa"))
	b, _ := st.Save(ctx, "b.pdf", strings.NewReader("bb"))

	files, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List() returned %d files, want 2", len(files))
	}

	if err := st.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := st.Info(ctx, a.ID); !errors.Is(err, model.ErrNotFound) {
		t.Error("deleted file still has metadata")
	}
	if _, err := st.Resolve(ctx, b.ID); err != nil {
		t.Error("unrelated file affected by delete")
	}
	if err := st.Delete(ctx, a.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrNotFound", err)
	}
}
