package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshWorkers = 2
	DefaultRefreshQueue   = 16
)

// Task is one unit of background work. ctx is cancelled when the pool
// is shut down without enough time to drain.
type Task func(ctx context.Context)

// Pool runs background refreshes on a fixed set of workers fed by a bounded
// queue. Submit never blocks the caller.
type Pool struct {
	queue   chan Task
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	metrics Metrics
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines draining a queue of queueSize tasks
func NewPool(workers, queueSize int, metrics Metrics, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultRefreshWorkers
	}
	if queueSize < 0 {
		queueSize = DefaultRefreshQueue
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:   make(chan Task, queueSize),
		group:   &errgroup.Group{},
		ctx:     ctx,
		cancel:  cancel,
		metrics: metrics,
		logger:  logger.With("component", "refresh-pool"),
	}

	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for task := range p.queue {
				p.run(task)
			}
			return nil
		})
	}
	return p
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("refresh task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}

// Submit queues task. It returns false when the queue is full or the pool
// is shut down; the task is then dropped.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.metrics.Dropped()
		return false
	}
	select {
	case p.queue <- task:
		return true
	default:
		p.metrics.Dropped()
		p.logger.Warn("refresh queue full, dropping task", "capacity", cap(p.queue))
		return false
	}
}

// Shutdown stops intake and waits for queued tasks to finish. If ctx ends
// first, the remaining tasks see a cancelled context and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
