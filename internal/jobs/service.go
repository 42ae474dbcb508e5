package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/example/docmd/internal/convert"
	"github.com/example/docmd/internal/filestore"
	"github.com/example/docmd/internal/model"
	"github.com/example/docmd/internal/store"
)

// Config tunes the job engine. Zero values fall back to the defaults
// noted per field.
type Config struct {
	Workers       int              // worker goroutines, default 4
	QueueSize     int              // pending-queue capacity, default 64
	AcceptedKinds []filestore.Kind // artifact kinds Submit accepts, default pdf
	RetentionTTL  time.Duration    // terminal records kept this long after EndedAt, default 24h
	SweepInterval time.Duration    // eviction cadence, default 10m
}

// Service is the public face of the job engine: it validates submissions,
// schedules runners on the pool, and answers status queries. Submit and
// GetStatus never block on job execution.
type Service struct {
	store     store.Store
	files     filestore.Store
	converter convert.Converter
	pool      *Pool
	accepted  map[filestore.Kind]bool
	retention time.Duration
	sweepTick time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewService(st store.Store, files filestore.Store, conv convert.Converter, cfg Config) *Service {
	accepted := make(map[filestore.Kind]bool)
	if len(cfg.AcceptedKinds) == 0 {
		accepted[filestore.KindPDF] = true
	}
	for _, kind := range cfg.AcceptedKinds {
		accepted[kind] = true
	}
	retention := cfg.RetentionTTL
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	sweepTick := cfg.SweepInterval
	if sweepTick <= 0 {
		sweepTick = 10 * time.Minute
	}
	return &Service{
		store:     st,
		files:     files,
		converter: conv,
		pool:      NewPool(cfg.Workers, cfg.QueueSize),
		accepted:  accepted,
		retention: retention,
		sweepTick: sweepTick,
		stop:      make(chan struct{}),
	}
}

// Start brings up the worker pool and the retention sweeper.
func (s *Service) Start() {
	s.pool.Start()
	s.wg.Add(1)
	go s.sweep()
}

// Shutdown drains the pool and stops the sweeper.
func (s *Service) Shutdown(timeout time.Duration) {
	close(s.stop)
	s.pool.Shutdown(timeout)
	s.wg.Wait()
}

// Submit validates the artifact, creates a pending record, and schedules a
// runner. Validation failures are synchronous; nothing is recorded for
// them. Returns the new job id.
func (s *Service) Submit(ctx context.Context, artifactRef string) (string, error) {
	resolved, err := s.files.Resolve(ctx, artifactRef)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			jobsRejected.WithLabelValues("artifact_not_found").Inc()
			return "", model.NewError(model.KindArtifactNotFound,
				"artifact %s does not exist", artifactRef)
		}
		return "", err
	}
	if !s.accepted[resolved.Kind] {
		jobsRejected.WithLabelValues("unsupported_type").Inc()
		return "", model.NewError(model.KindUnsupportedArtifactType,
			"artifact kind %q is not supported", resolved.Kind)
	}

	job, err := s.store.Create(ctx, artifactRef)
	if err != nil {
		return "", err
	}
	if err := s.pool.Submit(func() { s.run(job.ID) }); err != nil {
		// Rejected submissions must not leave a record behind.
		if rmErr := s.store.Remove(context.Background(), job.ID); rmErr != nil {
			log.Printf("jobs: rollback of rejected job %s failed: %v", job.ID, rmErr)
		}
		jobsRejected.WithLabelValues("busy").Inc()
		return "", err
	}
	jobsSubmitted.Inc()
	return job.ID, nil
}

// GetStatus returns a snapshot of the record. Unknown ids fail with a
// job_not_found error.
func (s *Service) GetStatus(ctx context.Context, id string) (model.Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Job{}, model.NewError(model.KindJobNotFound, "job %s does not exist", id)
		}
		return model.Job{}, err
	}
	return job, nil
}

// List returns the ids of all known jobs, for diagnostics.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

func (s *Service) sweep() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.sweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			n, err := s.store.Evict(context.Background(), now.Add(-s.retention))
			if err != nil {
				log.Printf("jobs: eviction sweep failed: %v", err)
				continue
			}
			if n > 0 {
				jobsEvicted.Add(float64(n))
				log.Printf("jobs: evicted %d terminal records older than %v", n, s.retention)
			}
		}
	}
}
