package filestore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Kind classifies an uploaded artifact by its filename.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindDocument    Kind = "document"
	KindSpreadsheet Kind = "spreadsheet"
	KindArchive     Kind = "archive"
	KindImage       Kind = "image"
	KindUnknown     Kind = "unknown"
)

var kindByExt = map[string]Kind{
	".pdf":  KindPDF,
	".docx": KindDocument,
	".xls":  KindSpreadsheet,
	".xlsx": KindSpreadsheet,
	".zip":  KindArchive,
	".rar":  KindArchive,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
}

func DetectKind(filename string) Kind {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := kindByExt[ext]; ok {
		return kind
	}
	return KindUnknown
}

// FileInfo describes one stored upload.
type FileInfo struct {
	ID           string    `json:"fileId"`
	OriginalName string    `json:"originalName"`
	StorageName  string    `json:"-"`
	Size         int64     `json:"size"`
	Kind         Kind      `json:"kind"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Resolved is the artifact handed to the converter: a readable local path
// plus the detected kind.
type Resolved struct {
	Location string
	Kind     Kind
}

// Store persists uploaded artifacts and resolves references for runners.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (FileInfo, error)
	// Resolve maps a file id to a local location the converter can read.
	// Unknown ids fail with model.ErrNotFound.
	Resolve(ctx context.Context, id string) (Resolved, error)
	Info(ctx context.Context, id string) (FileInfo, error)
	List(ctx context.Context) ([]FileInfo, error)
	Delete(ctx context.Context, id string) error
}
