package thumbnails

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

var (
	ErrQueueFull   = errors.New("thumbnail queue is full")
	ErrQueueClosed = errors.New("thumbnail queue is closed")
)

// Handler processes one task.
type Handler interface {
	Process(ctx context.Context, task models.ThumbnailTask) error
}

type PoolConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Stats are cumulative counters since the pool was created.
type Stats struct {
	Enqueued  int64
	Succeeded int64
	Failed    int64
	Retried   int64
}

// Pool is a bounded task channel drained by a fixed number of consumers.
// Failed tasks are retried up to MaxAttempts times before being dropped
// with an error log.
type Pool struct {
	cfg     PoolConfig
	handler Handler
	logger  logging.Logger

	tasks chan models.ThumbnailTask

	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	enqueued  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
}

func NewPool(cfg PoolConfig, handler Handler, logger logging.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	return &Pool{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("module", "thumbnail-pool"),
		tasks:   make(chan models.ThumbnailTask, cfg.QueueSize),
	}
}

// Start launches the consumers. Calls after the first are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.cfg.Workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
		p.logger.Info(ctx, "thumbnail pool started", "workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize)
	})
}

// Enqueue never blocks: it fails with ErrQueueFull when the buffer is full
// and with ErrQueueClosed after Shutdown.
func (p *Pool) Enqueue(ctx context.Context, task models.ThumbnailTask) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrQueueClosed
	}

	select {
	case p.tasks <- task:
		p.enqueued.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued tasks to finish. If ctx ends
// first, in-flight tasks are cancelled and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	defer func() {
		if p.cancel != nil {
			p.cancel()
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Enqueued:  p.enqueued.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Retried:   p.retried.Load(),
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(ctx, id, task)
	}
}

func (p *Pool) run(ctx context.Context, workerID int, task models.ThumbnailTask) {
	var err error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		err = p.handler.Process(ctx, task)
		if err == nil {
			p.succeeded.Add(1)
			return
		}
		if !retryable(err) || attempt == p.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		p.retried.Add(1)
		p.logger.Warn(ctx, "thumbnail task failed, retrying",
			"worker", workerID, "file_id", task.FileID, "attempt", attempt, "error", err)

		if !sleep(ctx, p.cfg.RetryDelay) {
			break
		}
	}

	p.failed.Add(1)
	p.logger.Error(ctx, "thumbnail task failed",
		"worker", workerID, "file_id", task.FileID, "user_id", task.UserID, "error", err)
}

// retryable reports whether another attempt can change the outcome.
func retryable(err error) bool {
	return !errors.Is(err, ErrMissingField) && !errors.Is(err, ErrFileNotFound)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
