// Package worker runs fire-and-forget tasks on a bounded background pool,
// outside of any request's lifetime.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"admissionfair/internal/metrics"
)

var (
	ErrQueueFull  = errors.New("task queue is full")
	ErrPoolClosed = errors.New("task pool is closed")
)

// Task is a unit of background work. ctx carries the per-task timeout.
type Task = func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool executes submitted tasks on a fixed number of workers.
type Pool struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	workers int
	timeout time.Duration
	queue   chan job

	mu     sync.RWMutex
	closed bool
}

// NewPool returns a pool with the given worker count, queue capacity and per-task timeout.
// Workers start when Run is called; tasks submitted before that wait in the queue.
func NewPool(logger *slog.Logger, m *metrics.Metrics, workers, queueSize int, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		logger:  logger,
		metrics: m,
		workers: workers,
		timeout: timeout,
		queue:   make(chan job, queueSize),
	}
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.Task(name, "dropped")
		return ErrPoolClosed
	}
	select {
	case p.queue <- job{name: name, run: task}:
		return nil
	default:
		p.metrics.Task(name, "dropped")
		return ErrQueueFull
	}
}

// Run starts the workers and blocks until Close has been called and the queue is drained.
// Cancelling ctx does not abort queued tasks; each task is bounded by its own timeout instead.
func (p *Pool) Run(ctx context.Context) error {
	var g errgroup.Group
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for j := range p.queue {
				p.execute(ctx, j)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close stops accepting tasks. Already queued tasks still run.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

func (p *Pool) execute(parent context.Context, j job) {
	ctx := context.WithoutCancel(parent)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	err := p.safeRun(ctx, j)
	duration := time.Since(start)
	switch {
	case err == nil:
		p.metrics.Task(j.name, "ok")
		p.logger.Debug("task done", "task", j.name, "duration_ms", duration.Milliseconds())
	case errors.Is(err, errTaskPanic):
		p.metrics.Task(j.name, "panic")
		p.logger.Error("task panicked", "task", j.name, "err", err)
	default:
		p.metrics.Task(j.name, "error")
		p.logger.Warn("task failed", "task", j.name, "duration_ms", duration.Milliseconds(), "err", err)
	}
}

var errTaskPanic = errors.New("task panic")

func (p *Pool) safeRun(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTaskPanic, r)
		}
	}()
	return j.run(ctx)
}
