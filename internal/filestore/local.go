package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/docmd/internal/model"
)

// Local stores uploads under a directory on disk and keeps their metadata
// in memory.
type Local struct {
	root string

	mu    sync.RWMutex
	files map[string]FileInfo
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir upload dir: %w", err)
	}
	return &Local{root: root, files: make(map[string]FileInfo)}, nil
}

func (l *Local) Save(_ context.Context, filename string, r io.Reader) (FileInfo, error) {
	id := uuid.NewString()
	storageName := id + filepath.Ext(filename)
	abs := filepath.Join(l.root, storageName)

	f, err := os.Create(abs)
	if err != nil {
		return FileInfo{}, err
	}
	defer f.Close()
	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(abs)
		return FileInfo{}, err
	}

	info := FileInfo{
		ID:           id,
		OriginalName: filename,
		StorageName:  storageName,
		Size:         size,
		Kind:         DetectKind(filename),
		UploadedAt:   time.Now().UTC(),
	}
	l.mu.Lock()
	l.files[id] = info
	l.mu.Unlock()
	return info, nil
}

func (l *Local) Resolve(_ context.Context, id string) (Resolved, error) {
	l.mu.RLock()
	info, ok := l.files[id]
	l.mu.RUnlock()
	if !ok {
		return Resolved{}, model.ErrNotFound
	}
	abs := filepath.Join(l.root, info.StorageName)
	if _, err := os.Stat(abs); err != nil {
		return Resolved{}, fmt.Errorf("stored file missing for %s: %w", id, err)
	}
	return Resolved{Location: abs, Kind: info.Kind}, nil
}

func (l *Local) Info(_ context.Context, id string) (FileInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info, ok := l.files[id]
	if !ok {
		return FileInfo{}, model.ErrNotFound
	}
	return info, nil
}

func (l *Local) List(_ context.Context) ([]FileInfo, error) {
	l.mu.RLock()
	out := make([]FileInfo, 0, len(l.files))
	for _, info := range l.files {
		out = append(out, info)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (l *Local) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	info, ok := l.files[id]
	if ok {
		delete(l.files, id)
	}
	l.mu.Unlock()
	if !ok {
		return model.ErrNotFound
	}
	abs := filepath.Join(l.root, info.StorageName)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
