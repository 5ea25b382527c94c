package types

import "errors"

var (
	// ErrInitializing is returned while the embedding model is still loading.
	// It is retryable and distinct from a hard failure.
	ErrInitializing = errors.New("embedding model initializing, retry shortly")

	// ErrSyncInProgress is returned when a sync is attempted while another
	// sync on the same repository is already running.
	ErrSyncInProgress = errors.New("sync already in progress")
)
