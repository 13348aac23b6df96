package client

import "errors"

var (
	// ErrUnexpectedReply is returned when the server answers a command with
	// an envelope the round driver cannot use.
	ErrUnexpectedReply = errors.New("unexpected server reply")
)
