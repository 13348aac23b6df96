package merge

import (
	"testing"

	"github.com/lovettlabs/contactsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeDoe() models.Contact {
	return models.Contact{
		ForeignID:     "A1",
		VersionNumber: 3,
		Name:          models.NameGroup{Version: 1, DisplayName: "Jane Doe"},
		Phones: models.PhoneGroup{
			Version: 3,
			Items:   []models.Phone{{Kind: "mobile", Number: "+1 206 555 0100"}},
		},
	}
}

func TestMerge_InsertWhenAbsent(t *testing.T) {
	incoming := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 1, DisplayName: "Jane Doe"},
	}

	res, err := Merge(nil, incoming)
	require.NoError(t, err)

	assert.Equal(t, OutcomeInserted, res.Outcome)
	assert.Equal(t, "Jane Doe", res.Contact.Name.DisplayName)
	assert.Equal(t, int64(1), res.Contact.VersionNumber)
	assert.Empty(t, res.Conflicts)
}

func TestMerge_InsertRecomputesAggregate(t *testing.T) {
	// An incoming record may carry a stale aggregate; insertion must fix it.
	incoming := janeDoe()
	incoming.VersionNumber = 99

	res, err := Merge(nil, incoming)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Contact.VersionNumber)
}

func TestMerge_HigherGroupVersionWins(t *testing.T) {
	stored := janeDoe()

	incoming := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 2, DisplayName: "Jane D."},
		Phones: models.PhoneGroup{
			Version: 1,
			Items:   []models.Phone{{Kind: "mobile", Number: "+1 206 555 9999"}},
		},
	}

	res, err := Merge(&stored, incoming)
	require.NoError(t, err)

	assert.Equal(t, OutcomeMerged, res.Outcome)
	// Higher nameVersion wins.
	assert.Equal(t, "Jane D.", res.Contact.Name.DisplayName)
	// Original phone retained: stored phoneVersion 3 beats incoming 1.
	assert.Equal(t, "+1 206 555 0100", res.Contact.Phones.Items[0].Number)
	assert.Equal(t, int64(3), res.Contact.Phones.Version)
	// Aggregate is the max of post-merge stamps.
	assert.Equal(t, int64(3), res.Contact.VersionNumber)
	assert.Equal(t, res.Contact.HighestVersion(), res.Contact.VersionNumber)
}

func TestMerge_CrossDivergentGroups(t *testing.T) {
	// Stored nameVersion 1 / phoneVersion 3, incoming nameVersion 2 /
	// phoneVersion 1: name comes from incoming, phone stays, aggregate
	// follows the highest surviving stamp.
	stored := models.Contact{
		ForeignID:     "A1",
		VersionNumber: 3,
		Name:          models.NameGroup{Version: 1, DisplayName: "Jane Doe"},
		Phones:        models.PhoneGroup{Version: 3, Items: []models.Phone{{Kind: "home", Number: "555-0100"}}},
	}
	incoming := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 2, DisplayName: "Jane D."},
		Phones:    models.PhoneGroup{Version: 1, Items: []models.Phone{{Kind: "home", Number: "555-0199"}}},
	}

	res, err := Merge(&stored, incoming)
	require.NoError(t, err)

	assert.Equal(t, "Jane D.", res.Contact.Name.DisplayName)
	assert.Equal(t, "555-0100", res.Contact.Phones.Items[0].Number)
	assert.Equal(t, int64(3), res.Contact.VersionNumber)
}

func TestMerge_Idempotent(t *testing.T) {
	stored := janeDoe()
	incoming := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 5, DisplayName: "Jane Q. Doe"},
	}

	first, err := Merge(&stored, incoming)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, first.Outcome)

	second, err := Merge(&first.Contact, incoming)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, second.Outcome)
	assert.Equal(t, first.Contact, second.Contact)
}

func TestMerge_Commutative(t *testing.T) {
	a := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 2, DisplayName: "Jane D."},
		Emails:    models.EmailGroup{Version: 1, Items: []models.Email{{Kind: "home", Address: "jane@home.example"}}},
	}
	b := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 1, DisplayName: "Jane Doe"},
		Emails:    models.EmailGroup{Version: 4, Items: []models.Email{{Kind: "work", Address: "jane@work.example"}}},
	}

	ab, err := Merge(&a, b)
	require.NoError(t, err)
	ba, err := Merge(&b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Contact, ba.Contact)
}

func TestMerge_OneSidedGroupTaken(t *testing.T) {
	stored := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 1, DisplayName: "Jane Doe"},
	}
	incoming := models.Contact{
		ForeignID: "A1",
		Dates:     models.DateGroup{Version: 2, Birthday: "1985-03-14"},
	}

	res, err := Merge(&stored, incoming)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", res.Contact.Name.DisplayName)
	assert.Equal(t, "1985-03-14", res.Contact.Dates.Birthday)
	assert.Equal(t, int64(2), res.Contact.VersionNumber)
}

func TestMerge_EqualStampDivergentContent(t *testing.T) {
	stored := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 2, DisplayName: "Jane Doe"},
	}
	incoming := models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 2, DisplayName: "Janet Doe"},
	}

	res, err := Merge(&stored, incoming)
	require.NoError(t, err)

	// Stored side wins the tie and the conflict is reported.
	assert.Equal(t, "Jane Doe", res.Contact.Name.DisplayName)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "name", res.Conflicts[0].Group)
	assert.Equal(t, int64(2), res.Conflicts[0].Version)
	assert.Equal(t, "A1", res.Conflicts[0].ForeignID)
}

func TestMerge_AggregateInvariantAlwaysHolds(t *testing.T) {
	stored := janeDoe()
	incomings := []models.Contact{
		{ForeignID: "A1", Name: models.NameGroup{Version: 10, DisplayName: "X"}},
		{ForeignID: "A1", Notes: models.NoteGroup{Version: 7, Nickname: "JD"}},
		{ForeignID: "A1"},
	}

	current := &stored
	for _, incoming := range incomings {
		res, err := Merge(current, incoming)
		require.NoError(t, err)
		assert.Equal(t, res.Contact.HighestVersion(), res.Contact.VersionNumber)
		c := res.Contact
		current = &c
	}
}

func TestMerge_MissingForeignIDRejected(t *testing.T) {
	_, err := Merge(nil, models.Contact{Name: models.NameGroup{Version: 1, DisplayName: "Nobody"}})
	require.ErrorIs(t, err, ErrMissingForeignID)
}

func TestMerge_ForeignIDMismatchRejected(t *testing.T) {
	stored := janeDoe()
	_, err := Merge(&stored, models.Contact{ForeignID: "B2"})
	require.ErrorIs(t, err, ErrForeignIDMismatch)
}
