// Package types contains the read shapes shared by the service and the API.
package types

import (
	"math"
	"strconv"
	"time"

	"github.com/okian/dinger/internal/domain/profile"
	"github.com/okian/dinger/internal/domain/similarity"
)

// Metric is a float64 that encodes NaN and infinities as JSON null, so a
// poisoned average reaches clients as an absent value.
type Metric float64

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// Profile is a player's averaged metrics.
type Profile struct {
	Name            string `json:"name"`
	ExitVelocityAvg Metric `json:"exit_velocity_avg"`
	HitDistanceAvg  Metric `json:"hit_distance_avg"`
	LaunchAngleAvg  Metric `json:"launch_angle_avg"`
	SampleSize      int    `json:"sample_size"`
}

// Neighbor is one entry of a similarity ranking.
type Neighbor struct {
	Rank int `json:"rank"`
	Profile
	Distance Metric `json:"distance"`
}

// MediaList holds every clip of a player in dataset order.
type MediaList struct {
	Player string   `json:"player"`
	Clips  []string `json:"clips"`
}

// Clip is a single clip chosen for playback.
type Clip struct {
	Player string `json:"player"`
	Video  string `json:"video"`
}

// Digest statuses.
const (
	DigestPending = "pending"
	DigestReady   = "ready"
	DigestFailed  = "failed"
)

// Digest is the follower digest built for one followed player.
type Digest struct {
	JobID     string     `json:"job_id"`
	Player    string     `json:"player"`
	Status    string     `json:"status"`
	Profile   Profile    `json:"profile"`
	Similar   []Neighbor `json:"similar"`
	Highlight string     `json:"highlight,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DatasetInfo describes the dataset snapshot being served.
type DatasetInfo struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Players  int       `json:"players"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at"`
}

// FromProfile converts a domain profile.
func FromProfile(p profile.Profile) Profile {
	return Profile{
		Name:            p.Name,
		ExitVelocityAvg: Metric(p.ExitVelocityAvg),
		HitDistanceAvg:  Metric(p.HitDistanceAvg),
		LaunchAngleAvg:  Metric(p.LaunchAngleAvg),
		SampleSize:      p.SampleSize,
	}
}

// FromScores converts a ranking, numbering entries from 1.
func FromScores(scores []similarity.Score) []Neighbor {
	out := make([]Neighbor, len(scores))
	for i, s := range scores {
		out[i] = Neighbor{
			Rank:     i + 1,
			Profile:  FromProfile(s.Profile),
			Distance: Metric(s.Distance),
		}
	}
	return out
}
