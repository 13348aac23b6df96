package merge

import "errors"

var (
	// ErrMissingForeignID is returned when an incoming contact carries no
	// foreign id. Such a record cannot be correlated with the store and is
	// rejected before any mutation happens.
	ErrMissingForeignID = errors.New("incoming contact has no foreign id")

	// ErrForeignIDMismatch is returned when the stored and incoming records
	// passed to Merge do not share a foreign id. This indicates a caller
	// bug, never valid wire traffic.
	ErrForeignIDMismatch = errors.New("foreign id mismatch")
)
