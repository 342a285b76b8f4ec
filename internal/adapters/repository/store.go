// Package repository holds the served dataset snapshot and finished digests.
package repository

import (
	"context"
	"time"

	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/types"
)

// Store provides access to the dataset snapshot being served.
type Store interface {
	// Current returns the latest snapshot or ErrNotLoaded.
	Current(ctx context.Context) (*dataset.Dataset, error)

	// Replace swaps in a new snapshot. Readers holding the old one keep it.
	Replace(ctx context.Context, ds *dataset.Dataset) error

	// Count returns the number of records in the current snapshot.
	Count(ctx context.Context) int

	// LoadedAt returns when the current snapshot was installed.
	LoadedAt() time.Time
}

// DigestStore keeps finished digests by job id.
type DigestStore interface {
	Put(ctx context.Context, d types.Digest) error

	// Get returns ErrNotFound for unknown or expired ids.
	Get(ctx context.Context, jobID string) (types.Digest, error)

	Count(ctx context.Context) int
}
