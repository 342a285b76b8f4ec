package service

import "errors"

// Sentinel errors returned by the Service. The API maps them to status codes.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrInvalidName        = errors.New("player name must not be blank")
	ErrInvalidLimit       = errors.New("invalid similarity limit")
	ErrNoMedia            = errors.New("player has no media")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrReloadFailed       = errors.New("dataset reload failed")
	ErrBackpressure       = errors.New("digest queue is full")
	ErrDigestNotFound     = errors.New("digest not found")
)
