package repository

import "errors"

// Sentinel errors for the dataset and digest stores.
var (
	ErrNotLoaded    = errors.New("dataset not loaded")
	ErrNilDataset   = errors.New("nil dataset")
	ErrNotFound     = errors.New("digest not found")
	ErrMissingJobID = errors.New("digest has no job id")
	ErrBackend      = errors.New("digest store backend failure")
)
