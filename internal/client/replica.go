package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/merge"
	"github.com/lovettlabs/contactsync/models"
)

// replicaFile is the on-disk shape of the local replica: the device's
// contacts plus the version of each contact as of the last completed round.
// The latter lets the runner classify local changes without a second copy of
// the records.
type replicaFile struct {
	Contacts []models.Contact `json:"contacts"`
	LastSync map[string]int64 `json:"last_sync,omitempty"`
}

// Replica is the device's local contact collection, backed by a JSON file.
// All access goes through the replica's lock; the file is rewritten
// atomically on Save.
type Replica struct {
	path   string
	logger *logger.Logger

	mu       sync.Mutex
	contacts map[string]models.Contact
	lastSync map[string]int64
}

// LoadReplica reads the replica file at path. A missing file yields an empty
// replica; the file is created on the first Save.
func LoadReplica(path string, log *logger.Logger) (*Replica, error) {
	r := &Replica{
		path:     path,
		logger:   log,
		contacts: make(map[string]models.Contact),
		lastSync: make(map[string]int64),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", path).Msg("no replica file, starting empty")
			return r, nil
		}
		return nil, fmt.Errorf("error reading replica file: %w", err)
	}

	var file replicaFile
	if err = json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("error parsing replica file: %w", err)
	}

	for _, contact := range file.Contacts {
		if contact.ForeignID == "" {
			continue
		}
		contact.VersionNumber = contact.HighestVersion()
		r.contacts[contact.ForeignID] = contact
	}
	if file.LastSync != nil {
		r.lastSync = file.LastSync
	}

	log.Info().Str("path", path).Int("count", len(r.contacts)).Msg("replica loaded")
	return r, nil
}

// Save writes the replica back to its file, creating parent directories as
// needed. The write goes through a temp file and rename so a crash never
// leaves a half-written replica.
func (r *Replica) Save() error {
	r.mu.Lock()
	file := replicaFile{
		Contacts: r.snapshotLocked(),
		LastSync: make(map[string]int64, len(r.lastSync)),
	}
	for id, version := range r.lastSync {
		file.LastSync[id] = version
	}
	r.mu.Unlock()

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing replica: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("error creating replica directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("error writing replica file: %w", err)
	}
	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("error replacing replica file: %w", err)
	}

	return nil
}

// Get returns the replica's copy of the contact, if present.
func (r *Replica) Get(foreignID string) (models.Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[foreignID]
	return contact, ok
}

// Count returns the number of contacts in the replica.
func (r *Replica) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.contacts)
}

// Contacts returns a copy of every contact in stable foreign-id order.
func (r *Replica) Contacts() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

func (r *Replica) snapshotLocked() []models.Contact {
	out := make([]models.Contact, 0, len(r.contacts))
	for _, contact := range r.contacts {
		out = append(out, contact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ForeignID < out[j].ForeignID })
	return out
}

// Apply reconciles a contact received from the server into the replica.
func (r *Replica) Apply(incoming models.Contact) error {
	if incoming.ForeignID == "" {
		return merge.ErrMissingForeignID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var stored *models.Contact
	if existing, ok := r.contacts[incoming.ForeignID]; ok {
		stored = &existing
	}

	res, err := merge.Merge(stored, incoming)
	if err != nil {
		return err
	}
	for _, conflict := range res.Conflicts {
		r.logger.Warn().Str("conflict", conflict.String()).Msg("replica merge conflict")
	}

	r.contacts[res.Contact.ForeignID] = res.Contact
	return nil
}

// ChangeList builds the device's change report for the round's opening
// SyncMessage: contacts the server has never been told about go in Inserted,
// everything else in Updated with its current version.
func (r *Replica) ChangeList() models.SyncMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	var msg models.SyncMessage
	for _, contact := range r.snapshotLocked() {
		ref := contact.VersionRef()
		if _, known := r.lastSync[contact.ForeignID]; known {
			msg.Updated = append(msg.Updated, ref)
		} else {
			msg.Inserted = append(msg.Inserted, ref)
		}
	}
	return msg
}

// MarkSynced records the current version of every contact as the last-synced
// baseline. Called after a round completes.
func (r *Replica) MarkSynced() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSync = make(map[string]int64, len(r.contacts))
	for id, contact := range r.contacts {
		r.lastSync[id] = contact.VersionNumber
	}
}
