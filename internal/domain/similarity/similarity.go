// Package similarity ranks players by how close their averaged metrics are
// to a target player's.
package similarity

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/profile"
	"github.com/okian/dinger/pkg/logger"
	"github.com/okian/dinger/pkg/metrics"
)

// DefaultTopN is the result size used when the caller passes topN <= 0.
const DefaultTopN = 5

// Score pairs a candidate profile with its distance from the target.
type Score struct {
	Profile  profile.Profile
	Distance float64
}

// Distance is the Euclidean distance between the three averaged metrics of
// a and b. It is symmetric and zero only when all three averages are equal.
func Distance(a, b profile.Profile) float64 {
	dExit := a.ExitVelocityAvg - b.ExitVelocityAvg
	dDist := a.HitDistanceAvg - b.HitDistanceAvg
	dAngle := a.LaunchAngleAvg - b.LaunchAngleAvg
	return math.Sqrt(dExit*dExit + dDist*dDist + dAngle*dAngle)
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithDefaultTopN overrides DefaultTopN for this ranker.
func WithDefaultTopN(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.defaultTopN = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// Ranker finds the players most similar to a target. It holds no state
// between calls and is safe for concurrent use.
type Ranker struct {
	defaultTopN int
	logger      logger.Logger
}

// NewRanker creates a Ranker.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{defaultTopN: DefaultTopN}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns up to topN other players ordered by ascending distance from
// target. Ties keep the order in which names first appear in ds; NaN
// distances sort last. A nil target or an empty dataset yields an empty
// result.
func (r *Ranker) Rank(ctx context.Context, target *profile.Profile, ds *dataset.Dataset, topN int) []Score {
	if target == nil || ds.Len() == 0 {
		return []Score{}
	}
	if topN <= 0 {
		topN = r.defaultTopN
	}
	start := time.Now()

	names := ds.Names()
	scores := make([]Score, 0, len(names))
	for _, name := range names {
		if name == target.Name {
			continue
		}
		p := profile.ForDataset(name, ds)
		scores = append(scores, Score{Profile: p, Distance: Distance(*target, p)})
	}
	metrics.RecordProfileComputation(len(scores))

	sort.SliceStable(scores, func(i, j int) bool {
		return lessDistance(scores[i].Distance, scores[j].Distance)
	})

	candidates := len(scores)
	if len(scores) > topN {
		scores = scores[:topN]
	}

	metrics.RecordRanking(float64(time.Since(start).Microseconds())/1000, candidates)
	if r.logger != nil {
		r.logger.Debug(ctx, "ranked similar players",
			logger.String("player", target.Name),
			logger.Int("candidates", candidates),
			logger.Int("returned", len(scores)),
		)
	}
	return scores
}

// lessDistance orders finite distances ascending and NaN after everything.
func lessDistance(a, b float64) bool {
	switch aNaN, bNaN := math.IsNaN(a), math.IsNaN(b); {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a < b
	}
}
