package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr    string
	DataDir string

	// Store selects the job store backend: "memory" or "sqlite".
	Store string
	// FileBackend selects upload storage: "local" or "s3".
	FileBackend string

	Workers       int
	QueueSize     int
	AcceptedKinds []string

	SyncTimeout  time.Duration
	PollInterval time.Duration

	RetentionTTL  time.Duration
	SweepInterval time.Duration

	S3 S3Config
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() Config {
	return Config{
		Addr:          getenv("DOCMD_ADDR", ":8080"),
		DataDir:       getenv("DOCMD_DATA_DIR", filepath.Join(".", "data")),
		Store:         getenv("DOCMD_STORE", "memory"),
		FileBackend:   getenv("DOCMD_FILE_BACKEND", "local"),
		Workers:       getenvInt("DOCMD_WORKERS", 4),
		QueueSize:     getenvInt("DOCMD_QUEUE_SIZE", 64),
		AcceptedKinds: getenvCSV("DOCMD_ACCEPTED_KINDS", []string{"pdf"}),
		SyncTimeout:   getenvDuration("DOCMD_SYNC_TIMEOUT", 5*time.Minute),
		PollInterval:  getenvDuration("DOCMD_POLL_INTERVAL", time.Second),
		RetentionTTL:  getenvDuration("DOCMD_RETENTION_TTL", 24*time.Hour),
		SweepInterval: getenvDuration("DOCMD_SWEEP_INTERVAL", 10*time.Minute),
		S3: S3Config{
			Endpoint:  getenv("DOCMD_S3_ENDPOINT", ""),
			AccessKey: getenv("DOCMD_S3_ACCESS_KEY", ""),
			SecretKey: getenv("DOCMD_S3_SECRET_KEY", ""),
			Bucket:    getenv("DOCMD_S3_BUCKET", "docmd"),
			UseSSL:    getenvBool("DOCMD_S3_USE_SSL", false),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvCSV(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	values := splitCSV(raw)
	if len(values) == 0 {
		return fallback
	}
	return values
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
