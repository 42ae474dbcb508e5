package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/docmd/internal/model"
)

// Memory is the default job store: a mutex-guarded map holding one record
// per job id. Records are copied on the way in and out, so a reader can
// never observe a torn update.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]model.Job)}
}

func (m *Memory) Create(_ context.Context, artifactRef string) (model.Job, error) {
	job := model.Job{
		ID:          uuid.NewString(),
		ArtifactRef: artifactRef,
		Status:      model.JobPending,
		CreatedAt:   time.Now().UTC(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job.Clone(), nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	return job.Clone(), nil
}

func (m *Memory) Update(_ context.Context, id string, patch model.JobPatch) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[id]
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	if err := checkTransition(cur, patch); err != nil {
		return model.Job{}, err
	}
	next := applyPatch(cur, patch)
	m.jobs[id] = next
	return next.Clone(), nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) Evict(_ context.Context, endedBefore time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.EndedAt != nil && job.EndedAt.Before(endedBefore) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Close() error { return nil }
