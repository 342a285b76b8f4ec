// Package service provides the application service behind the HTTP API and
// the digest workers.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dinger/internal/adapters/mq/queue"
	"github.com/okian/dinger/internal/adapters/mq/worker"
	"github.com/okian/dinger/internal/adapters/repository"
	"github.com/okian/dinger/internal/adapters/source"
	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/dedupe"
	"github.com/okian/dinger/internal/domain/media"
	"github.com/okian/dinger/internal/domain/model"
	"github.com/okian/dinger/internal/domain/profile"
	"github.com/okian/dinger/internal/domain/similarity"
	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/logger"
	"github.com/okian/dinger/pkg/metrics"
)

const (
	defaultSource       = "data/homeruns.csv"
	defaultMaxTopN      = 100
	defaultQueueSize    = 1024
	defaultDedupeSize   = 50_000
	defaultFetchTimeout = 30 * time.Second
	stopTimeout         = 10 * time.Second
)

// Loader fetches and parses a dataset payload.
type Loader interface {
	Load(ctx context.Context, location string) (*dataset.Dataset, error)
}

// Service answers profile, similarity and media queries against the current
// dataset snapshot and builds follower digests asynchronously.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	digests  repository.DigestStore
	loader   Loader
	ranker   *similarity.Ranker
	selector *media.Selector
	deduper  dedupe.Deduper
	queue    queue.Queue
	pool     *worker.Pool

	source       string
	defaultTopN  int
	maxTopN      int
	workerCount  int
	queueSize    int
	dedupeSize   int
	mediaSeed    int64
	fetchTimeout time.Duration

	started bool
	logger  logger.Logger
}

// New constructs a Service. Components not supplied through options get
// in-memory defaults.
func New(opts ...Option) *Service {
	s := &Service{
		source:       defaultSource,
		defaultTopN:  similarity.DefaultTopN,
		maxTopN:      defaultMaxTopN,
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if s.digests == nil {
		s.digests = repository.NewMemoryDigestStore()
	}
	if s.loader == nil {
		s.loader = source.New(source.WithTimeout(s.fetchTimeout))
	}
	if s.maxTopN < s.defaultTopN {
		s.maxTopN = s.defaultTopN
	}

	s.ranker = similarity.NewRanker(
		similarity.WithDefaultTopN(s.defaultTopN),
		similarity.WithLogger(s.logger.Named("ranker")),
	)
	if s.mediaSeed != 0 {
		s.selector = media.NewSelector(media.WithSeed(s.mediaSeed))
	} else {
		s.selector = media.NewSelector()
	}
	return s
}

// Start loads the dataset and starts the digest workers. A failed initial
// load is returned and nothing is started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting service", logger.String("source", s.source))

	if _, err := s.reload(ctx); err != nil {
		return err
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.digests,
		worker.WithPoolLogger(s.logger))
	// Workers outlive the caller's context; Stop closes the queue and
	// waits for them to drain it.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains pending digest jobs and releases the digest store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping service")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	if closer, ok := s.digests.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "digest store close failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

func (s *Service) current(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return ds, nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

// Profile returns the averaged metrics of name. An unknown player has zero
// averages and a zero sample size.
func (s *Service) Profile(ctx context.Context, name string) (types.Profile, error) {
	if err := checkName(name); err != nil {
		return types.Profile{}, err
	}
	ds, err := s.current(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	p := profile.ForDataset(name, ds)
	metrics.RecordProfileComputation(p.SampleSize)
	return types.FromProfile(p), nil
}

// DefaultTopN is the ranking size used when a caller gives no limit.
func (s *Service) DefaultTopN() int { return s.defaultTopN }

// resolveLimit maps a requested limit onto [1, maxTopN]. Zero means the default.
func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return s.defaultTopN, nil
	case limit < 0 || limit > s.maxTopN:
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, limit, s.maxTopN)
	default:
		return limit, nil
	}
}

// Similar returns the players closest to name, nearest first.
func (s *Service) Similar(ctx context.Context, name string, limit int) ([]types.Neighbor, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	n, err := s.resolveLimit(limit)
	if err != nil {
		return nil, err
	}
	ds, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	target := profile.ForDataset(name, ds)
	return types.FromScores(s.ranker.Rank(ctx, &target, ds, n)), nil
}

// Media returns every clip of name in dataset order.
func (s *Service) Media(ctx context.Context, name string) (types.MediaList, error) {
	if err := checkName(name); err != nil {
		return types.MediaList{}, err
	}
	ds, err := s.current(ctx)
	if err != nil {
		return types.MediaList{}, err
	}
	return types.MediaList{Player: name, Clips: media.Media(name, ds)}, nil
}

// RandomMedia picks one clip of name for playback.
func (s *Service) RandomMedia(ctx context.Context, name string) (types.Clip, error) {
	if err := checkName(name); err != nil {
		return types.Clip{}, err
	}
	ds, err := s.current(ctx)
	if err != nil {
		return types.Clip{}, err
	}
	clip, ok := s.selector.Pick(name, ds)
	metrics.RecordMediaPick(ok)
	if !ok {
		return types.Clip{}, fmt.Errorf("%w: %s", ErrNoMedia, name)
	}
	return types.Clip{Player: name, Video: clip}, nil
}

// Reload fetches the dataset again and swaps it in. On failure the previous
// snapshot keeps serving.
func (s *Service) Reload(ctx context.Context) (types.DatasetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) (types.DatasetInfo, error) {
	start := time.Now()
	ds, err := s.loader.Load(ctx, s.source)
	if err != nil {
		metrics.RecordDatasetLoadError()
		s.logger.Error(ctx, "dataset load failed", logger.String("source", s.source), logger.Error(err))
		return types.DatasetInfo{}, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	if err := s.store.Replace(ctx, ds); err != nil {
		metrics.RecordDatasetLoadError()
		return types.DatasetInfo{}, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	took := time.Since(start)
	metrics.RecordDatasetLoad(float64(took.Milliseconds()))
	s.logger.Info(ctx, "dataset loaded",
		logger.Int("rows", ds.Len()),
		logger.Int("players", len(ds.Names())),
		logger.Int("dropped", ds.Dropped()),
		logger.Duration("took", took),
	)
	return s.info(ds), nil
}

func (s *Service) info(ds *dataset.Dataset) types.DatasetInfo {
	return types.DatasetInfo{
		Source:   s.source,
		Rows:     ds.Len(),
		Players:  len(ds.Names()),
		Dropped:  ds.Dropped(),
		LoadedAt: s.store.LoadedAt(),
	}
}

// DatasetInfo describes the snapshot being served.
func (s *Service) DatasetInfo(ctx context.Context) (types.DatasetInfo, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return types.DatasetInfo{}, err
	}
	return s.info(ds), nil
}

// SubmitDigest queues a digest job. A blank JobID gets a generated one.
// Resubmitting a known id is acknowledged with duplicate=true and not queued
// again.
func (s *Service) SubmitDigest(ctx context.Context, job model.DigestJob) (model.DigestJob, bool, error) {
	if err := checkName(job.Player); err != nil {
		return job, false, err
	}
	if job.TopN != 0 {
		if _, err := s.resolveLimit(job.TopN); err != nil {
			return job, false, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return job, false, ErrNotStarted
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Requested.IsZero() {
		job.Requested = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, job.JobID) {
		metrics.RecordDigestDuplicate()
		s.logger.Debug(ctx, "duplicate digest job", logger.String("job_id", job.JobID))
		return job, true, nil
	}

	pending := types.Digest{
		JobID:     job.JobID,
		Player:    job.Player,
		Status:    types.DigestPending,
		Similar:   []types.Neighbor{},
		CreatedAt: job.Requested,
	}
	if err := s.digests.Put(ctx, pending); err != nil {
		s.deduper.Unrecord(ctx, job.JobID)
		return job, false, err
	}

	if err := s.queue.Submit(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, job.JobID)
		failed := pending
		failed.Status = types.DigestFailed
		failed.Error = err.Error()
		_ = s.digests.Put(ctx, failed)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return job, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return job, false, err
	}
	return job, false, nil
}

// Digest returns the digest stored for jobID.
func (s *Service) Digest(ctx context.Context, jobID string) (types.Digest, error) {
	d, err := s.digests.Get(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Digest{}, fmt.Errorf("%w: %s", ErrDigestNotFound, jobID)
	}
	return d, err
}

// BuildDigest computes the digest for job: the player's profile, the nearest
// players and one highlight clip.
func (s *Service) BuildDigest(ctx context.Context, job model.DigestJob) (types.Digest, error) {
	ds, err := s.current(ctx)
	if err != nil {
		return types.Digest{}, err
	}
	n, err := s.resolveLimit(job.TopN)
	if err != nil {
		return types.Digest{}, err
	}

	target := profile.ForDataset(job.Player, ds)
	similar := s.ranker.Rank(ctx, &target, ds, n)
	highlight, ok := s.selector.Pick(job.Player, ds)
	metrics.RecordMediaPick(ok)

	return types.Digest{
		JobID:     job.JobID,
		Player:    job.Player,
		Status:    types.DigestReady,
		Profile:   types.FromProfile(target),
		Similar:   types.FromScores(similar),
		Highlight: highlight,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"source":      s.source,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"defaultTopN": s.defaultTopN,
		"maxTopN":     s.maxTopN,
		"digests":     s.digests.Count(ctx),
	}

	if ds, err := s.store.Current(ctx); err == nil {
		stats["records"] = ds.Len()
		stats["players"] = len(ds.Names())
		stats["dropped"] = ds.Dropped()
		stats["loadedAt"] = s.store.LoadedAt()
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["workerCount"] = s.pool.Size()
	}
	return stats
}
