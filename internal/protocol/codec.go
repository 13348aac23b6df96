package protocol

import (
	"fmt"
	"strings"

	"github.com/lovettlabs/contactsync/models"
)

// The envelope is transport-neutral text: the command name, a newline, then
// the opaque parameter payload. Command names never contain a newline, and
// parameter payloads are either JSON or '/'-delimited escaped tokens, so the
// first newline is an unambiguous boundary.
const envelopeSeparator = "\n"

// Encode serializes a message envelope into its wire form.
func Encode(m models.Message) []byte {
	var b strings.Builder
	b.Grow(len(m.Command) + 1 + len(m.Parameters))
	b.WriteString(m.Command)
	b.WriteString(envelopeSeparator)
	b.WriteString(m.Parameters)
	return []byte(b.String())
}

// Decode parses a wire payload back into a message envelope.
//
// Decoding is strict: an empty payload returns [ErrEmptyMessage] and a
// command outside the fixed vocabulary returns [ErrUnknownCommand]. Callers
// log such messages and produce no response rather than an error reply.
func Decode(raw []byte) (models.Message, error) {
	if len(raw) == 0 {
		return models.Message{}, ErrEmptyMessage
	}

	text := string(raw)
	command, parameters, _ := strings.Cut(text, envelopeSeparator)
	if command == "" {
		return models.Message{}, ErrEmptyMessage
	}

	if !KnownCommand(command) {
		return models.Message{}, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	return models.Message{Command: command, Parameters: parameters}, nil
}
