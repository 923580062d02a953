package domain

import "errors"

// common domain errors that cross entity boundaries.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidWindow marks a malformed month/cycle input.
	// fatal to the single computation that received it.
	ErrInvalidWindow = errors.New("invalid scoring window")

	// ErrSourceFetch marks a failed fetch from the external record store.
	// always recovered locally by substituting an empty result.
	ErrSourceFetch = errors.New("source fetch failed")
)
