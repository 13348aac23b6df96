// Package merge implements the version-aware reconciliation of divergent
// contact records. Given an incoming contact and the currently stored record
// for the same foreign id, it decides whether the incoming record is new,
// identical, or divergent, and computes the reconciled record.
//
// The merge is field-group-wise: for each group the side with the higher
// version stamp wins outright. Because stamps are compared rather than
// overwritten, applying the same incoming record twice yields no further
// change, and merging in either order produces the same result.
package merge

import (
	"fmt"
	"reflect"

	"github.com/lovettlabs/contactsync/models"
)

// Outcome classifies a merge result.
type Outcome int

const (
	// OutcomeInserted means no stored record existed; the incoming record
	// was taken verbatim.
	OutcomeInserted Outcome = iota

	// OutcomeUnchanged means the reconciled record equals the stored one.
	OutcomeUnchanged

	// OutcomeMerged means at least one field group was taken from the
	// incoming record.
	OutcomeMerged
)

// Conflict records a field group where both sides carried an identical
// version stamp but different content. Version stamps alone cannot arbitrate
// such a pair; the stored (server) side wins deterministically and the
// conflict is surfaced so callers can log it.
type Conflict struct {
	ForeignID string
	Group     string
	Version   int64
}

func (c Conflict) String() string {
	return fmt.Sprintf("contact %s group %s: equal version %d with divergent content, kept stored side", c.ForeignID, c.Group, c.Version)
}

// Result carries the reconciled contact plus everything the caller needs to
// report on the merge.
type Result struct {
	Contact   models.Contact
	Outcome   Outcome
	Conflicts []Conflict
}

// Merge reconciles an incoming contact with the stored record for the same
// foreign id. stored is nil when the foreign id has never been seen; the
// incoming record is then inserted verbatim. In every case the returned
// contact's VersionNumber is recomputed as the maximum of its post-merge
// group stamps.
//
// An incoming record with an empty foreign id is rejected with
// [ErrMissingForeignID] and must never reach the store.
func Merge(stored *models.Contact, incoming models.Contact) (Result, error) {
	if incoming.ForeignID == "" {
		return Result{}, ErrMissingForeignID
	}

	if stored == nil {
		incoming.VersionNumber = incoming.HighestVersion()
		return Result{Contact: incoming, Outcome: OutcomeInserted}, nil
	}

	if stored.ForeignID != incoming.ForeignID {
		return Result{}, fmt.Errorf("%w: stored %q, incoming %q", ErrForeignIDMismatch, stored.ForeignID, incoming.ForeignID)
	}

	merged := *stored
	var conflicts []Conflict

	mergeGroup(&merged, "name", merged.Name.Version, incoming.Name.Version,
		func() bool { return reflect.DeepEqual(merged.Name, incoming.Name) },
		func() { merged.Name = incoming.Name }, &conflicts)

	mergeGroup(&merged, "addresses", merged.Addresses.Version, incoming.Addresses.Version,
		func() bool { return reflect.DeepEqual(merged.Addresses, incoming.Addresses) },
		func() { merged.Addresses = incoming.Addresses }, &conflicts)

	mergeGroup(&merged, "emails", merged.Emails.Version, incoming.Emails.Version,
		func() bool { return reflect.DeepEqual(merged.Emails, incoming.Emails) },
		func() { merged.Emails = incoming.Emails }, &conflicts)

	mergeGroup(&merged, "phones", merged.Phones.Version, incoming.Phones.Version,
		func() bool { return reflect.DeepEqual(merged.Phones, incoming.Phones) },
		func() { merged.Phones = incoming.Phones }, &conflicts)

	mergeGroup(&merged, "dates", merged.Dates.Version, incoming.Dates.Version,
		func() bool { return reflect.DeepEqual(merged.Dates, incoming.Dates) },
		func() { merged.Dates = incoming.Dates }, &conflicts)

	mergeGroup(&merged, "notes", merged.Notes.Version, incoming.Notes.Version,
		func() bool { return reflect.DeepEqual(merged.Notes, incoming.Notes) },
		func() { merged.Notes = incoming.Notes }, &conflicts)

	merged.VersionNumber = merged.HighestVersion()

	outcome := OutcomeMerged
	if reflect.DeepEqual(merged, *stored) {
		outcome = OutcomeUnchanged
	}

	return Result{Contact: merged, Outcome: outcome, Conflicts: conflicts}, nil
}

// mergeGroup applies the per-group rule: the higher version stamp wins; a
// tie with identical content is a no-op; a tie with divergent content keeps
// the stored side and records a conflict.
func mergeGroup(merged *models.Contact, group string, storedVersion, incomingVersion int64, equal func() bool, takeIncoming func(), conflicts *[]Conflict) {
	switch {
	case incomingVersion > storedVersion:
		takeIncoming()
	case incomingVersion == storedVersion && !equal():
		*conflicts = append(*conflicts, Conflict{
			ForeignID: merged.ForeignID,
			Group:     group,
			Version:   storedVersion,
		})
	}
}
