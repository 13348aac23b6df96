package adapter

import "errors"

var (
	// ErrServerRejected is returned when the server answers with a non-2xx
	// status. The device treats it as a protocol-level refusal, not a
	// transport failure, and does not retry the same envelope.
	ErrServerRejected = errors.New("server rejected envelope")

	// ErrNoServerFound is returned by [Discover] when no server answered
	// the probe before the deadline.
	ErrNoServerFound = errors.New("no sync server found")
)
