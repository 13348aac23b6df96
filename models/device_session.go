package models

// SessionState identifies where a device session is in its lifecycle.
type SessionState string

const (
	StateNew              SessionState = "new"
	StateAwaitingIdentity SessionState = "awaiting_identity"
	StateAwaitingTrust    SessionState = "awaiting_trust"
	StateAuthorized       SessionState = "authorized"
	StateSyncing          SessionState = "syncing"
	StateInSync           SessionState = "in_sync"
	StateVersionMismatch  SessionState = "version_mismatch"
	StateDisconnected     SessionState = "disconnected"
)

// DeviceSession is a read-only snapshot of one connected device's session,
// handed to observers when session state changes. The live state is owned by
// the sync engine; observers must not mutate the snapshot expecting any
// effect.
type DeviceSession struct {
	// DeviceID is the opaque identifier generated by the client device.
	DeviceID string `json:"device_id"`

	// DisplayName is the human-readable device name from the handshake.
	DisplayName string `json:"display_name"`

	// Addr is the normalized network address the session is keyed by.
	Addr string `json:"addr"`

	// Allowed reports whether the device is authorized to mutate the store.
	Allowed bool `json:"allowed"`

	// Connected reports whether the transport link is considered live.
	Connected bool `json:"connected"`

	// Current and Maximum are the progress counters for the running round.
	Current int `json:"current"`
	Maximum int `json:"maximum"`

	// InSync reports whether the session reached its terminal success state
	// this round.
	InSync bool `json:"in_sync"`

	State SessionState `json:"state"`
}
