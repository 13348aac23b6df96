package store

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/merge"
	"github.com/lovettlabs/contactsync/models"
)

// ContactStore is the authoritative in-memory collection of unified
// contacts. It is the only shared mutable resource of the sync engine: all
// merges are serialized through a single mutex because a merge reads then
// writes per-contact version stamps and is not safe to interleave across
// sessions touching the same contact.
//
// Persistence is not the store's concern; a [ContactRepository] loads the
// collection at startup and saves it at round checkpoints.
type ContactStore struct {
	clock  clock.Clock
	logger *logger.Logger

	mu       sync.Mutex
	contacts map[string]models.Contact
	order    []string
	lastSync time.Time
}

// NewContactStore constructs an empty store. The clock drives the
// informational last-sync-time marker only; it plays no part in conflict
// resolution.
func NewContactStore(clk clock.Clock, log *logger.Logger) *ContactStore {
	return &ContactStore{
		clock:    clk,
		logger:   log,
		contacts: make(map[string]models.Contact),
	}
}

// Load replaces the store contents with the given records, ordered by
// foreign id so that index-based retrieval is stable across restarts.
// Records failing the aggregate-version invariant are repaired and logged;
// a corrupt persisted aggregate must not poison future merges.
func (s *ContactStore) Load(contacts []models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = make(map[string]models.Contact, len(contacts))
	s.order = make([]string, 0, len(contacts))

	for _, c := range contacts {
		if c.ForeignID == "" {
			s.logger.Warn().Msg("skipping persisted contact without foreign id")
			continue
		}
		if highest := c.HighestVersion(); c.VersionNumber != highest {
			s.logger.Warn().
				Str("foreign_id", c.ForeignID).
				Int64("stored_version", c.VersionNumber).
				Int64("recomputed_version", highest).
				Msg("repairing aggregate version of persisted contact")
			c.VersionNumber = highest
		}
		if _, exists := s.contacts[c.ForeignID]; !exists {
			s.order = append(s.order, c.ForeignID)
		}
		s.contacts[c.ForeignID] = c
	}

	sort.Strings(s.order)
}

// FindByForeignID looks up a contact. Absence is a normal outcome, reported
// through the second return value.
func (s *ContactStore) FindByForeignID(foreignID string) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[foreignID]
	return c, ok
}

// AtIndex returns the contact at position i in the stable snapshot order.
// An index past the end reports false; callers translate that into the
// "no more contacts" sentinel, not an error.
func (s *ContactStore) AtIndex(i int) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.order) {
		return models.Contact{}, false
	}
	return s.contacts[s.order[i]], true
}

// Count returns the number of contacts in the store.
func (s *ContactStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.contacts)
}

// SnapshotVersions returns the (foreign id, version) pairs of every stored
// contact, used to build the server's change list.
func (s *ContactStore) SnapshotVersions() []models.ContactVersionRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := make([]models.ContactVersionRef, 0, len(s.order))
	for _, id := range s.order {
		c := s.contacts[id]
		refs = append(refs, c.VersionRef())
	}
	return refs
}

// Snapshot returns a copy of every stored contact in stable order, for
// persistence checkpoints.
func (s *ContactStore) Snapshot() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := make([]models.Contact, 0, len(s.order))
	for _, id := range s.order {
		contacts = append(contacts, s.contacts[id])
	}
	return contacts
}

// Merge reconciles an incoming contact with the stored record of the same
// foreign id and commits the result. Commit is atomic per contact: a
// rejected record leaves the store untouched, and a failure on one contact
// can never roll back another. Every successful merge bumps the store's
// monotonic last-sync-time marker.
func (s *ContactStore) Merge(incoming models.Contact) (merge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored *models.Contact
	if existing, ok := s.contacts[incoming.ForeignID]; ok {
		stored = &existing
	}

	res, err := merge.Merge(stored, incoming)
	if err != nil {
		return merge.Result{}, err
	}

	for _, conflict := range res.Conflicts {
		s.logger.Warn().
			Str("foreign_id", conflict.ForeignID).
			Str("group", conflict.Group).
			Int64("version", conflict.Version).
			Msg("merge conflict: equal version stamps with divergent content, kept stored side")
	}

	if res.Outcome == merge.OutcomeInserted {
		s.insertOrdered(res.Contact.ForeignID)
	}
	s.contacts[res.Contact.ForeignID] = res.Contact
	s.lastSync = s.clock.Now()

	return res, nil
}

// LastSyncTime returns when the store last committed a merge. Informational
// only, for staleness reporting.
func (s *ContactStore) LastSyncTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSync
}

// insertOrdered keeps s.order sorted as new foreign ids arrive. Callers
// hold s.mu.
func (s *ContactStore) insertOrdered(foreignID string) {
	i := sort.SearchStrings(s.order, foreignID)
	s.order = append(s.order, "")
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = foreignID
}
