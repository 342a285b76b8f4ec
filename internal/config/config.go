// Package config defines service configuration and its validation.
//
// Configuration is read once in main and passed explicitly into
// constructors; domain packages never read the environment.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatasetSource is a file path or an http(s) URL of the event CSV.
	DatasetSource string `koanf:"dataset_source"`

	// FetchTimeoutMS bounds one dataset fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// DefaultTopN is the similarity limit used when a request has none.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN caps the similarity limit a request may ask for.
	MaxTopN int `koanf:"max_top_n"`

	WorkerCount int `koanf:"worker_count"`
	QueueSize   int `koanf:"queue_size"`
	DedupeSize  int `koanf:"dedupe_size"`

	// DigestRetention caps the in-memory digest store.
	DigestRetention int `koanf:"digest_retention"`

	// DigestTTLSeconds is the expiry of digests kept in redis.
	DigestTTLSeconds int `koanf:"digest_ttl_s"`

	// RedisURL selects the redis digest store when set.
	RedisURL string `koanf:"redis_url"`

	// MediaSeed makes random clip picks reproducible. Zero seeds from the clock.
	MediaSeed int64 `koanf:"media_seed"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		DatasetSource:    "data/homeruns.csv",
		FetchTimeoutMS:   30_000,
		DefaultTopN:      5,
		MaxTopN:          100,
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        1024,
		DedupeSize:       50_000,
		DigestRetention:  10_000,
		DigestTTLSeconds: 86_400,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// DigestTTL returns DigestTTLSeconds as a duration.
func (c *Config) DigestTTL() time.Duration {
	return time.Duration(c.DigestTTLSeconds) * time.Second
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("log_format %q is not text or json", c.LogFormat)
	}

	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case strings.TrimSpace(c.DatasetSource) == "":
		return invalid("dataset_source must not be empty")
	case c.FetchTimeoutMS < 1:
		return invalid("fetch_timeout_ms must be positive, got %d", c.FetchTimeoutMS)
	case c.DefaultTopN < 1:
		return invalid("default_top_n must be positive, got %d", c.DefaultTopN)
	case c.MaxTopN < c.DefaultTopN:
		return invalid("max_top_n %d is below default_top_n %d", c.MaxTopN, c.DefaultTopN)
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	case c.QueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.DedupeSize < 1:
		return invalid("dedupe_size must be positive, got %d", c.DedupeSize)
	case c.DigestRetention < 1:
		return invalid("digest_retention must be positive, got %d", c.DigestRetention)
	case c.DigestTTLSeconds < 1:
		return invalid("digest_ttl_s must be positive, got %d", c.DigestTTLSeconds)
	}
	return nil
}
