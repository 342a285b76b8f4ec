package source

import "errors"

// Sentinel errors for fetching a dataset payload.
var (
	ErrEmptyLocation = errors.New("empty dataset location")
	ErrUnavailable   = errors.New("dataset source unavailable")
	ErrStatus        = errors.New("unexpected http status")
)
