package scout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/logger"
)

const (
	defaultLoadWorkers  = 8
	defaultLoadTimeout  = 10 * time.Second
	defaultPollInterval = 200 * time.Millisecond
	defaultWaitFor      = 30 * time.Second
	workerChanFactor    = 2
)

// LoadConfig drives a digest load run against a live service.
type LoadConfig struct {
	BaseURL      string
	Jobs         int
	Workers      int
	TopN         int
	Resubmit     bool
	Timeout      time.Duration
	PollInterval time.Duration
	WaitFor      time.Duration
	HTTPClient   *http.Client
}

// Stats holds the outcome of a load run.
type Stats struct {
	Submitted int
	Accepted  int
	Duplicate int
	Rejected  int
	Ready     int
	Failed    int
	Pending   int
	Duration  time.Duration
}

type submitRequest struct {
	JobID  string `json:"job_id"`
	Player string `json:"player"`
	TopN   int    `json:"top_n,omitempty"`
}

type submitAck struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

type loader struct {
	cfg    LoadConfig
	client *http.Client
	log    logger.Logger
}

func (c *LoadConfig) defaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Workers <= 0 {
		c.Workers = defaultLoadWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultLoadTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.WaitFor <= 0 {
		c.WaitFor = defaultWaitFor
	}
}

// Load submits cfg.Jobs digest jobs for players drawn round-robin from
// names, then polls every accepted job until it settles or cfg.WaitFor
// passes. Jobs still pending at the end are reported with ErrPendingDigest.
func Load(ctx context.Context, cfg LoadConfig, names []string) (Stats, error) {
	if cfg.Jobs <= 0 {
		return Stats{}, fmt.Errorf("load: %w", ErrInvalidCount)
	}
	if len(names) == 0 {
		return Stats{}, fmt.Errorf("load: %w", ErrNoPlayers)
	}
	cfg.defaults()
	l := &loader{cfg: cfg, client: cfg.HTTPClient, log: logger.Named("scout")}
	if l.client == nil {
		l.client = &http.Client{Timeout: cfg.Timeout}
	}

	start := time.Now()
	if err := l.checkHealth(ctx); err != nil {
		return Stats{}, err
	}

	jobs := make([]submitRequest, cfg.Jobs)
	for i := range jobs {
		jobs[i] = submitRequest{JobID: uuid.NewString(), Player: names[i%len(names)], TopN: cfg.TopN}
	}
	if cfg.Resubmit {
		jobs = append(jobs, jobs...)
	}

	var stats Stats
	accepted := l.submit(ctx, jobs, &stats)
	l.log.Info(ctx, "digest jobs submitted",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected))

	l.await(ctx, accepted, &stats)
	stats.Duration = time.Since(start)

	if stats.Pending > 0 {
		return stats, fmt.Errorf("load: %d %w", stats.Pending, ErrPendingDigest)
	}
	return stats, nil
}

func (l *loader) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// submit posts every job and returns the ids the service took.
func (l *loader) submit(ctx context.Context, jobs []submitRequest, stats *Stats) []string {
	var (
		submitted, acceptedN, duplicate, rejected int64
		mu                                        sync.Mutex
		ids                                       = make([]string, 0, len(jobs))
	)

	fanOut(ctx, l.cfg.Workers, jobs, func(job submitRequest) {
		atomic.AddInt64(&submitted, 1)
		ack, status, err := l.post(ctx, job)
		switch {
		case err != nil:
			l.log.Debug(ctx, "submit failed", logger.String("job_id", job.JobID), logger.Error(err))
			atomic.AddInt64(&rejected, 1)
		case status == http.StatusAccepted:
			atomic.AddInt64(&acceptedN, 1)
			mu.Lock()
			ids = append(ids, ack.JobID)
			mu.Unlock()
		case status == http.StatusOK && ack.Duplicate:
			atomic.AddInt64(&duplicate, 1)
		default:
			atomic.AddInt64(&rejected, 1)
		}
	})

	stats.Submitted = int(submitted)
	stats.Accepted = int(acceptedN)
	stats.Duplicate = int(duplicate)
	stats.Rejected = int(rejected)
	return ids
}

func (l *loader) post(ctx context.Context, job submitRequest) (submitAck, int, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return submitAck{}, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.BaseURL+"/digests", bytes.NewReader(body))
	if err != nil {
		return submitAck{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return submitAck{}, 0, err
	}
	defer resp.Body.Close()

	var ack submitAck
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return submitAck{}, resp.StatusCode, fmt.Errorf("%w: %w", ErrUnexpected, err)
		}
	}
	return ack, resp.StatusCode, nil
}

// await polls pending ids until they settle, ctx ends or WaitFor passes.
func (l *loader) await(ctx context.Context, ids []string, stats *Stats) {
	deadline := time.Now().Add(l.cfg.WaitFor)
	pending := ids
	for len(pending) > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		var (
			mu   sync.Mutex
			next []string
		)
		fanOut(ctx, l.cfg.Workers, pending, func(id string) {
			status, err := l.status(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil, status == types.DigestPending:
				next = append(next, id)
			case status == types.DigestReady:
				stats.Ready++
			default:
				stats.Failed++
			}
		})
		pending = next
		if len(pending) > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.cfg.PollInterval):
			}
		}
	}
	stats.Pending = len(pending)
}

func (l *loader) status(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+"/digests/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnexpected, resp.StatusCode)
	}
	var d types.Digest
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	return d.Status, nil
}

// fanOut runs fn over items on a fixed number of goroutines.
func fanOut[T any](ctx context.Context, workers int, items []T, fn func(T)) {
	ch := make(chan T, workers*workerChanFactor)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				fn(item)
			}
		}()
	}
	go func() {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	wg.Wait()
}
