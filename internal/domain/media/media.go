// Package media selects highlight clips for a player.
package media

import (
	"math/rand"
	"sync"
	"time"

	"github.com/okian/dinger/internal/domain/dataset"
)

// Media returns the video reference of every record whose title starts with
// name, in payload order. Entries are neither deduplicated nor filtered.
func Media(name string, ds *dataset.Dataset) []string {
	matched := ds.Matching(name)
	out := make([]string, len(matched))
	for i, rec := range matched {
		out[i] = rec.Video
	}
	return out
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithSeed makes picks reproducible.
func WithSeed(seed int64) Option {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // clip choice is not security sensitive
	}
}

// Selector picks a random clip for playback.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector seeded from the clock unless WithSeed is given.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // clip choice is not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pick returns one clip for name chosen uniformly from Media(name, ds).
// It reports false when the player has no records.
func (s *Selector) Pick(name string, ds *dataset.Dataset) (string, bool) {
	clips := Media(name, ds)
	if len(clips) == 0 {
		return "", false
	}
	s.mu.Lock()
	i := s.rng.Intn(len(clips))
	s.mu.Unlock()
	return clips[i], true
}
