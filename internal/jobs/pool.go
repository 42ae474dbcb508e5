package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/docmd/internal/model"
)

// Pool runs job executions on a fixed number of workers fed by a bounded
// queue. A full queue rejects the submission instead of queueing without
// limit, so load shows up as backpressure rather than unbounded goroutines.
type Pool struct {
	workerCount int
	tasks       chan func()
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewPool(workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workerCount: workerCount,
		tasks:       make(chan func(), queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			queueDepth.Dec()
			task()
		}
	}
}

// Submit enqueues a task without blocking. A saturated queue fails with a
// busy error so the caller can surface backpressure.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return model.NewError(model.KindBusy, "worker pool is shut down")
	}
	select {
	case p.tasks <- task:
		queueDepth.Inc()
		return nil
	default:
		return model.NewError(model.KindBusy, "job queue is full")
	}
}

// Shutdown stops accepting work, drains queued tasks, and waits up to
// timeout for workers to finish before cancelling the pool context.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("worker pool: timeout after %v, forcing shutdown", timeout)
	}
	p.cancel()
	// Tasks still queued after a forced shutdown never run; settle the
	// gauge for them. The channel is closed, so this loop ends once the
	// queue is empty.
	for range p.tasks {
		queueDepth.Dec()
	}
}
