package syncer

import "errors"

var (
	// ErrNoSessionForAddress is returned when an operation targets an
	// address without a live session.
	ErrNoSessionForAddress = errors.New("no session for address")
)
