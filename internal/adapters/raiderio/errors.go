package raiderio

import "errors"

// Sentinel kinds for service client errors.
var (
	// ErrRequestFailed covers non-success transport status and malformed bodies.
	ErrRequestFailed = errors.New("raider.io request failed")

	// ErrCharacterNotFound means no extraction rule located a character id on
	// the scraped page. Recoverable by maintenance, not a transient fault.
	ErrCharacterNotFound = errors.New("character id not found")
)
