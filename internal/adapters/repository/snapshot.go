package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/pkg/metrics"
)

type snapshot struct {
	ds       *dataset.Dataset
	loadedAt time.Time
}

// SnapshotStore serves an immutable dataset behind an atomic pointer.
type SnapshotStore struct {
	cur atomic.Pointer[snapshot]
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Current returns the latest snapshot.
func (s *SnapshotStore) Current(_ context.Context) (*dataset.Dataset, error) {
	snap := s.cur.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.ds, nil
}

// Replace installs ds as the current snapshot.
func (s *SnapshotStore) Replace(_ context.Context, ds *dataset.Dataset) error {
	if ds == nil {
		return ErrNilDataset
	}
	s.cur.Store(&snapshot{ds: ds, loadedAt: time.Now().UTC()})
	metrics.UpdateDatasetShape(ds.Len(), len(ds.Names()), ds.Dropped())
	return nil
}

// Count returns the record count of the current snapshot, 0 before the first load.
func (s *SnapshotStore) Count(_ context.Context) int {
	snap := s.cur.Load()
	if snap == nil {
		return 0
	}
	return snap.ds.Len()
}

// LoadedAt returns the zero time before the first load.
func (s *SnapshotStore) LoadedAt() time.Time {
	snap := s.cur.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}
