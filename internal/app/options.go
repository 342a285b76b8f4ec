package service

import (
	"time"

	"github.com/okian/dinger/internal/adapters/repository"
	"github.com/okian/dinger/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the dataset location, a file path or an http(s) URL.
func WithSource(location string) Option {
	return func(s *Service) {
		s.source = location
	}
}

// WithLoader replaces the component that fetches and parses the dataset.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithStore sets the dataset snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDigestStore sets where finished digests are kept.
func WithDigestStore(st repository.DigestStore) Option {
	return func(s *Service) {
		if st != nil {
			s.digests = st
		}
	}
}

// WithDefaultTopN sets the similarity limit used when none is requested.
func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

// WithMaxTopN sets the largest similarity limit a caller may request.
func WithMaxTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopN = n
		}
	}
}

// WithWorkerCount sets the number of digest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending digest jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job ids are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMediaSeed makes random clip picks reproducible. Zero keeps clock seeding.
func WithMediaSeed(seed int64) Option {
	return func(s *Service) {
		s.mediaSeed = seed
	}
}

// WithFetchTimeout bounds a single dataset fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}
