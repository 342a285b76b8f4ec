// Package model contains domain models passed between layers.
package model

import "time"

// DigestJob asks for a follower digest about one player.
type DigestJob struct {
	JobID     string    // unique id for idempotency
	Player    string    // full name of the followed player
	TopN      int       // number of similar players; <= 0 means the default
	Requested time.Time // submission time
}
