package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/metrics"
)

const (
	defaultKeyPrefix = "dinger:digest:"
	defaultDigestTTL = 24 * time.Hour
	pingTimeout      = 5 * time.Second
)

// redisClient is the subset of *redis.Client the store needs.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRemRangeByScore(ctx context.Context, key, lo, hi string) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// RedisDigestStore keeps digests as JSON values with a TTL. A sorted set
// indexed by expiry backs Count.
type RedisDigestStore struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// OpenRedisDigestStore connects to redisURL and verifies the connection.
func OpenRedisDigestStore(ctx context.Context, redisURL string, opts ...RedisOption) (*RedisDigestStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrBackend, err)
	}
	return NewRedisDigestStore(client, opts...), nil
}

// NewRedisDigestStore wraps an existing client.
func NewRedisDigestStore(client redisClient, opts ...RedisOption) *RedisDigestStore {
	s := &RedisDigestStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultDigestTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisDigestStore) key(jobID string) string { return s.prefix + jobID }

func (s *RedisDigestStore) indexKey() string { return s.prefix + "index" }

// Put stores d under its job id with the configured TTL.
func (s *RedisDigestStore) Put(ctx context.Context, d types.Digest) error {
	if d.JobID == "" {
		return ErrMissingJobID
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode digest %s: %w", d.JobID, err)
	}
	if err := s.client.Set(ctx, s.key(d.JobID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrBackend, d.JobID, err)
	}
	expires := time.Now().Add(s.ttl).Unix()
	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(expires), Member: d.JobID}).Err(); err != nil {
		return fmt.Errorf("%w: index %s: %w", ErrBackend, d.JobID, err)
	}
	metrics.UpdateDigestStoreLength(s.Count(ctx))
	return nil
}

// Get loads the digest for jobID.
func (s *RedisDigestStore) Get(ctx context.Context, jobID string) (types.Digest, error) {
	raw, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Digest{}, ErrNotFound
	}
	if err != nil {
		return types.Digest{}, fmt.Errorf("%w: get %s: %w", ErrBackend, jobID, err)
	}
	var d types.Digest
	if err := json.Unmarshal(raw, &d); err != nil {
		return types.Digest{}, fmt.Errorf("decode digest %s: %w", jobID, err)
	}
	return d, nil
}

// Count returns the number of digests that have not expired. It returns 0
// when the backend is unreachable.
func (s *RedisDigestStore) Count(ctx context.Context) int {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	_ = s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err()
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close releases the client.
func (s *RedisDigestStore) Close() error {
	return s.client.Close()
}
