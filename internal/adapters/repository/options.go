package repository

import "time"

// MemoryOption applies a configuration option to the MemoryDigestStore.
type MemoryOption func(*MemoryDigestStore)

// WithRetention caps how many digests are kept in memory.
func WithRetention(n int) MemoryOption {
	return func(s *MemoryDigestStore) {
		if n > 0 {
			s.retention = n
		}
	}
}

// RedisOption applies a configuration option to the RedisDigestStore.
type RedisOption func(*RedisDigestStore)

// WithTTL sets how long a digest lives in redis.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisDigestStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisDigestStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}
