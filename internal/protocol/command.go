// Package protocol implements the wire protocol spoken between the desktop
// contact store and connected devices: the fixed command vocabulary, the
// message envelope codec, and the parameter encodings used by multi-field
// commands.
package protocol

// Wire command vocabulary. Commands outside this set are unknown: they are
// logged by the caller and produce no response.
const (
	// CmdHello initiates or refreshes a device session. Parameters:
	// clientVersion/deviceName/deviceId.
	CmdHello = "Hello"

	// CmdConnect confirms device identity. Same parameters as Hello; the
	// server replies with CmdCount.
	CmdConnect = "Connect"

	// CmdDisconnect terminates the session. No parameters.
	CmdDisconnect = "Disconnect"

	// CmdGetContact requests one contact by snapshot index or foreign id.
	CmdGetContact = "GetContact"

	// CmdContact is the response to CmdGetContact: a serialized contact, or
	// the NoMoreContacts sentinel past the end of the snapshot.
	CmdContact = "Contact"

	// CmdUpdateContact pushes a serialized contact for merging.
	CmdUpdateContact = "UpdateContact"

	// CmdUpdated is the response to CmdUpdateContact: "oldId=>newId" on
	// success, error text otherwise.
	CmdUpdated = "Updated"

	// CmdSyncMessage carries the device's change list for the round.
	CmdSyncMessage = "SyncMessage"

	// CmdServerSync is the response to CmdSyncMessage: the server's change
	// list.
	CmdServerSync = "ServerSync"

	// CmdFinishUpdate marks the round complete; the server persists the
	// store.
	CmdFinishUpdate = "FinishUpdate"

	// CmdCount is sent after CmdConnect with the current contact count.
	CmdCount = "Count"
)

// NoMoreContacts is the sentinel parameter value of a CmdContact response
// when a CmdGetContact request is past the last snapshot index. It is a
// normal outcome, not an error.
const NoMoreContacts = "null"

// NotAllowed is the parameter value returned for sync commands from a device
// that has not yet been trusted. The request is accepted but no store data
// is revealed or mutated until authorization is granted.
const NotAllowed = "not allowed"

var commands = map[string]struct{}{
	CmdHello:         {},
	CmdConnect:       {},
	CmdDisconnect:    {},
	CmdGetContact:    {},
	CmdContact:       {},
	CmdUpdateContact: {},
	CmdUpdated:       {},
	CmdSyncMessage:   {},
	CmdServerSync:    {},
	CmdFinishUpdate:  {},
	CmdCount:         {},
}

// KnownCommand reports whether command belongs to the fixed vocabulary.
func KnownCommand(command string) bool {
	_, ok := commands[command]
	return ok
}
