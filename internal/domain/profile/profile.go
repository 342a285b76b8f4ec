// Package profile reduces a player's home-run events to averaged metrics.
package profile

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/dinger/internal/domain/dataset"
)

// Profile holds a player's averaged batted-ball metrics.
//
// Averages are exactly 0 when no record matched. A metric that failed to
// parse in any matched record makes that average NaN.
type Profile struct {
	Name            string
	ExitVelocityAvg float64
	HitDistanceAvg  float64
	LaunchAngleAvg  float64
	// SampleSize is the number of records behind the averages.
	SampleSize int
}

// ParseMetric parses a numeric field. Anything unparseable is NaN.
func ParseMetric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Aggregate computes the profile for name over records whose title starts
// with name.
func Aggregate(name string, records []dataset.EventRecord) Profile {
	matched := make([]dataset.EventRecord, 0, len(records))
	for _, rec := range records {
		if strings.HasPrefix(rec.Title, name) {
			matched = append(matched, rec)
		}
	}
	return fromMatched(name, matched)
}

// ForDataset computes the profile for name using the dataset's prefix index.
// The result equals Aggregate(name, ds.Records()).
func ForDataset(name string, ds *dataset.Dataset) Profile {
	return fromMatched(name, ds.Matching(name))
}

func fromMatched(name string, matched []dataset.EventRecord) Profile {
	p := Profile{Name: name, SampleSize: len(matched)}
	if len(matched) == 0 {
		return p
	}

	var exitVelo, dist, angle float64
	for _, rec := range matched {
		exitVelo += ParseMetric(rec.ExitVelocity)
		dist += ParseMetric(rec.HitDistance)
		angle += ParseMetric(rec.LaunchAngle)
	}
	n := float64(len(matched))
	p.ExitVelocityAvg = exitVelo / n
	p.HitDistanceAvg = dist / n
	p.LaunchAngleAvg = angle / n
	return p
}
