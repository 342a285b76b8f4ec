// Package worker builds follower digests off the job queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/dinger/internal/domain/model"
	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/logger"
	"github.com/okian/dinger/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.DigestJob

// Builder computes the digest for a job.
type Builder interface {
	BuildDigest(ctx context.Context, job Job) (types.Digest, error)
}

// Store keeps finished digests.
type Store interface {
	Put(ctx context.Context, d types.Digest) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes digest jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	builder Builder
	store   Store
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, builder Builder, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		builder:  builder,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing digest job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process builds one digest. A failed build is still stored, marked failed,
// so a caller polling the job id sees the outcome.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()

	d, err := w.builder.BuildDigest(ctx, job)
	if err != nil {
		metrics.RecordDigestFailed()
		metrics.RecordErrorByType("digest_build", "high")
		w.logger.Error(ctx, "digest build failed",
			logger.String("job_id", job.JobID),
			logger.String("player", job.Player),
			logger.Error(err),
		)
		d = types.Digest{
			JobID:     job.JobID,
			Player:    job.Player,
			Status:    types.DigestFailed,
			Similar:   []types.Neighbor{},
			Error:     err.Error(),
			CreatedAt: time.Now().UTC(),
		}
	}

	if putErr := w.store.Put(ctx, d); putErr != nil {
		metrics.RecordErrorByType("digest_store", "high")
		return fmt.Errorf("store digest %s: %w", job.JobID, putErr)
	}
	if err != nil {
		return fmt.Errorf("build digest %s: %w", job.JobID, err)
	}

	metrics.RecordDigestBuilt(float64(time.Since(start).Milliseconds()))
	w.logger.Debug(ctx, "digest stored",
		logger.String("job_id", job.JobID),
		logger.Int("similar", len(d.Similar)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means one per CPU.
func NewPool(workerCount int, q Queue, builder Builder, store Store, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for _, opt := range opts {
		opt(p)
	}
	base := p.logger
	if base == nil {
		base = logger.Get()
	}
	p.logger = base.Named("worker-pool")

	for i := 0; i < workerCount; i++ {
		name := "worker-" + strconv.Itoa(i)
		p.workers[i] = NewInMemoryWorker(q, builder, store,
			WithName(name),
			WithLogger(base.Named(name)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue so workers drain pending jobs, then waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
