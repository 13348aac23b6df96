package models

import "encoding/json"

// ContactVersionRef describes "what changed" without shipping a full record.
type ContactVersionRef struct {
	ForeignID string `json:"foreign_id"`
	Version   int64  `json:"version"`
}

// SyncMessage is the session-scoped change list exchanged once per sync
// round. Each side describes its view so the other can compute a minimal
// diff before transferring full records.
//
// When sent by a device it lists the device's inserted, updated and deleted
// contacts since the last round. When returned by the server (ServerSync)
// the sets are reinterpreted from the device's point of view:
//
//   - Inserted: contacts only the server has; the device should pull them.
//   - Updated: contacts whose versions differ; the ref carries the server's
//     version, so the device pulls when the server is newer and pushes when
//     its own copy is newer.
//   - Deleted: device refs the server has not yet seen; the device should
//     push them. (The engine itself never hard-deletes contacts.)
type SyncMessage struct {
	Inserted []ContactVersionRef `json:"inserted,omitempty"`
	Updated  []ContactVersionRef `json:"updated,omitempty"`
	Deleted  []ContactVersionRef `json:"deleted,omitempty"`
}

// ToJSON serializes the change list for the SyncMessage/ServerSync commands.
func (s *SyncMessage) ToJSON() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseSyncMessage deserializes a change list received over the wire.
func ParseSyncMessage(raw string) (SyncMessage, error) {
	var s SyncMessage
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return SyncMessage{}, err
	}
	return s, nil
}
