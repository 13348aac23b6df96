package protocol

import "errors"

// Sentinel errors returned by the codec. Callers should match with
// [errors.Is]; an unknown or malformed envelope is logged and dropped
// without producing a response.
var (
	// ErrEmptyMessage is returned when decoding an empty payload.
	ErrEmptyMessage = errors.New("empty wire message")

	// ErrUnknownCommand is returned when the decoded command is outside the
	// fixed vocabulary.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformedParameters is returned when a multi-field parameter payload
	// cannot be unescaped or is missing required fields.
	ErrMalformedParameters = errors.New("malformed parameters")
)
