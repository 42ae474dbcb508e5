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
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/example/docmd/internal/model"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 keeps uploads in an S3-compatible bucket. Resolve stages the object to
// a local scratch directory because the converter reads from the
// filesystem.
//
// Object metadata lives in process memory only: objects already in the
// bucket before startup are invisible to Resolve until re-uploaded.
type S3 struct {
	client  *minio.Client
	bucket  string
	scratch string

	mu    sync.RWMutex
	files map[string]FileInfo
}

func NewS3(cfg S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	scratch, err := os.MkdirTemp("", "docmd-s3-")
	if err != nil {
		return nil, err
	}
	return &S3{
		client:  client,
		bucket:  cfg.Bucket,
		scratch: scratch,
		files:   make(map[string]FileInfo),
	}, nil
}

func (s *S3) key(info FileInfo) string {
	return "uploads/" + info.StorageName
}

func (s *S3) Save(ctx context.Context, filename string, r io.Reader) (FileInfo, error) {
	id := uuid.NewString()
	info := FileInfo{
		ID:           id,
		OriginalName: filename,
		StorageName:  id + filepath.Ext(filename),
		Kind:         DetectKind(filename),
		UploadedAt:   time.Now().UTC(),
	}
	// Size unknown up front; -1 lets the client stream with multipart.
	uploaded, err := s.client.PutObject(ctx, s.bucket, s.key(info), r, -1,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return FileInfo{}, fmt.Errorf("s3 put object: %w", err)
	}
	info.Size = uploaded.Size

	s.mu.Lock()
	s.files[id] = info
	s.mu.Unlock()
	return info, nil
}

func (s *S3) Resolve(ctx context.Context, id string) (Resolved, error) {
	s.mu.RLock()
	info, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return Resolved{}, model.ErrNotFound
	}
	local := filepath.Join(s.scratch, info.StorageName)
	if _, err := os.Stat(local); err != nil {
		if err := s.client.FGetObject(ctx, s.bucket, s.key(info), local,
			minio.GetObjectOptions{}); err != nil {
			return Resolved{}, fmt.Errorf("s3 get object: %w", err)
		}
	}
	return Resolved{Location: local, Kind: info.Kind}, nil
}

func (s *S3) Info(_ context.Context, id string) (FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.files[id]
	if !ok {
		return FileInfo{}, model.ErrNotFound
	}
	return info, nil
}

func (s *S3) List(_ context.Context) ([]FileInfo, error) {
	s.mu.RLock()
	out := make([]FileInfo, 0, len(s.files))
	for _, info := range s.files {
		out = append(out, info)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *S3) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	info, ok := s.files[id]
	if ok {
		delete(s.files, id)
	}
	s.mu.Unlock()
	if !ok {
		return model.ErrNotFound
	}
	os.Remove(filepath.Join(s.scratch, info.StorageName))
	return s.client.RemoveObject(ctx, s.bucket, s.key(info), minio.RemoveObjectOptions{})
}
