package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/docmd/internal/bids"
	"github.com/example/docmd/internal/config"
	"github.com/example/docmd/internal/convert"
	"github.com/example/docmd/internal/filestore"
	"github.com/example/docmd/internal/httpapi"
	"github.com/example/docmd/internal/jobs"
	"github.com/example/docmd/internal/store"
)

func main() {
	loadDotEnv()
	cfg := config.Load()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}

	jobStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}
	defer jobStore.Close()

	files, err := openFileStore(cfg)
	if err != nil {
		log.Fatalf("open file store: %v", err)
	}

	converter := convert.NewMarkdown(filepath.Join(cfg.DataDir, "converted"))

	accepted := make([]filestore.Kind, 0, len(cfg.AcceptedKinds))
	for _, kind := range cfg.AcceptedKinds {
		accepted = append(accepted, filestore.Kind(kind))
	}
	service := jobs.NewService(jobStore, files, converter, jobs.Config{
		Workers:       cfg.Workers,
		QueueSize:     cfg.QueueSize,
		AcceptedKinds: accepted,
		RetentionTTL:  cfg.RetentionTTL,
		SweepInterval: cfg.SweepInterval,
	})
	service.Start()

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.Server{
			Files:        files,
			Jobs:         service,
			Bids:         bids.NewService(),
			SyncTimeout:  cfg.SyncTimeout,
			PollInterval: cfg.PollInterval,
		}.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("API listening on %s (store=%s files=%s workers=%d)",
			cfg.Addr, cfg.Store, cfg.FileBackend, cfg.Workers)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	service.Shutdown(30 * time.Second)
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case "sqlite":
		return store.OpenSQLite(filepath.Join(cfg.DataDir, "jobs.db"))
	default:
		return store.NewMemory(), nil
	}
}

func openFileStore(cfg config.Config) (filestore.Store, error) {
	switch cfg.FileBackend {
	case "s3":
		return filestore.NewS3(filestore.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return filestore.NewLocal(filepath.Join(cfg.DataDir, "uploads"))
	}
}

func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
