package protocol

import (
	"fmt"
	"net/url"
	"strings"
)

// Multi-field command parameters are '/'-delimited ordered tokens. Each
// token is percent-escaped individually so a delimiter character inside a
// token can never be misparsed as a field boundary.

// JoinParams encodes ordered tokens into a single parameter payload.
func JoinParams(tokens ...string) string {
	escaped := make([]string, len(tokens))
	for i, token := range tokens {
		escaped[i] = url.QueryEscape(token)
	}
	return strings.Join(escaped, "/")
}

// SplitParams decodes a '/'-delimited parameter payload back into its
// ordered tokens.
func SplitParams(parameters string) ([]string, error) {
	if parameters == "" {
		return nil, nil
	}

	parts := strings.Split(parameters, "/")
	tokens := make([]string, len(parts))
	for i, part := range parts {
		token, err := url.QueryUnescape(part)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %v", ErrMalformedParameters, i, err)
		}
		tokens[i] = token
	}
	return tokens, nil
}

// Handshake carries the identity fields exchanged in Hello and Connect.
type Handshake struct {
	ClientVersion string
	DeviceName    string
	DeviceID      string
}

// Encode serializes the handshake as clientVersion/deviceName/deviceId.
func (h Handshake) Encode() string {
	return JoinParams(h.ClientVersion, h.DeviceName, h.DeviceID)
}

// ParseHandshake decodes handshake parameters. Missing trailing fields are
// tolerated the way the device clients send them: an absent device name
// defaults to "Unknown" and an absent id stays empty (the session then waits
// in the untrusted state, since an empty id can never appear in the trusted
// device list).
func ParseHandshake(parameters string) (Handshake, error) {
	h := Handshake{DeviceName: "Unknown"}

	tokens, err := SplitParams(parameters)
	if err != nil {
		return Handshake{}, err
	}

	if len(tokens) > 0 {
		h.ClientVersion = tokens[0]
	}
	if len(tokens) > 1 && tokens[1] != "" {
		h.DeviceName = tokens[1]
	}
	if len(tokens) > 2 {
		h.DeviceID = tokens[2]
	}
	return h, nil
}

// EncodeUpdated builds the "oldId=>newId" payload of a successful Updated
// response.
func EncodeUpdated(oldID, newID string) string {
	return oldID + "=>" + newID
}

// ParseUpdated splits an Updated payload into its id mapping. The second
// return value is false when the payload is error text rather than a
// mapping.
func ParseUpdated(parameters string) (oldID, newID string, ok bool) {
	oldID, newID, ok = strings.Cut(parameters, "=>")
	return oldID, newID, ok
}
