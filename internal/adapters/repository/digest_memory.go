package repository

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/metrics"
)

const defaultRetention = 10_000

// MemoryDigestStore keeps the most recent digests in process memory.
// Once retention is reached the oldest digest is evicted.
type MemoryDigestStore struct {
	mu        sync.RWMutex
	retention int
	byID      map[string]*list.Element
	order     *list.List // front = oldest
}

type memEntry struct {
	id string
	d  types.Digest
}

// NewMemoryDigestStore creates an in-memory digest store.
func NewMemoryDigestStore(opts ...MemoryOption) *MemoryDigestStore {
	s := &MemoryDigestStore{
		retention: defaultRetention,
		byID:      make(map[string]*list.Element),
		order:     list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores d, replacing any digest with the same job id.
func (s *MemoryDigestStore) Put(_ context.Context, d types.Digest) error {
	if d.JobID == "" {
		return ErrMissingJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byID[d.JobID]; ok {
		el.Value.(*memEntry).d = d //nolint:forcetypeassert // list holds only *memEntry
		s.order.MoveToBack(el)
	} else {
		s.byID[d.JobID] = s.order.PushBack(&memEntry{id: d.JobID, d: d})
	}

	for s.order.Len() > s.retention {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.byID, oldest.Value.(*memEntry).id) //nolint:forcetypeassert // list holds only *memEntry
	}
	metrics.UpdateDigestStoreLength(s.order.Len())
	return nil
}

// Get returns the digest for jobID.
func (s *MemoryDigestStore) Get(_ context.Context, jobID string) (types.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.byID[jobID]
	if !ok {
		return types.Digest{}, ErrNotFound
	}
	return el.Value.(*memEntry).d, nil //nolint:forcetypeassert // list holds only *memEntry
}

// Count returns the number of retained digests.
func (s *MemoryDigestStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
