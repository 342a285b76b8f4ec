package scout

import "errors"

var (
	ErrNoData        = errors.New("no dataset given")
	ErrInvalidCount  = errors.New("count must be positive")
	ErrUnhealthy     = errors.New("service is not healthy")
	ErrNoPlayers     = errors.New("dataset has no players")
	ErrUnexpected    = errors.New("unexpected response")
	ErrPendingDigest = errors.New("digests still pending")
)
