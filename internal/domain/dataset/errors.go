package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrUnreadable    = errors.New("dataset payload unreadable")
	ErrEmptyPayload  = errors.New("empty payload")
	ErrMissingColumn = errors.New("missing required column")
)
