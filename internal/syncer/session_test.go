package syncer

import (
	"strconv"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/internal/store"
	"github.com/lovettlabs/contactsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(contacts ...models.Contact) (*Session, *store.ContactStore, *clock.Mock) {
	clk := clock.NewMock()
	contactStore := store.NewContactStore(clk, logger.Nop())
	contactStore.Load(contacts)

	s := NewSession("10.0.0.7", contactStore, clk, logger.Nop(), NopNotifier{})
	return s, contactStore, clk
}

func connectParams(deviceID string) string {
	return protocol.Handshake{ClientVersion: "1.0.0", DeviceName: "Pixel", DeviceID: deviceID}.Encode()
}

func TestSession_ConnectUntrustedAwaitsApproval(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
	)
	s.beginHandshake("dev-1", "Pixel", false)

	reply := s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})
	require.NotNil(t, reply)

	assert.Equal(t, protocol.CmdCount, reply.Command)
	assert.Equal(t, "1", reply.Parameters)

	snap := s.Snapshot()
	assert.Equal(t, models.StateAwaitingTrust, snap.State)
	assert.False(t, snap.Allowed)
	assert.True(t, snap.Connected)
}

func TestSession_ConnectTrustedIsAuthorized(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", true)

	reply := s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})
	require.NotNil(t, reply)

	assert.Equal(t, models.StateAuthorized, s.Snapshot().State)
	assert.True(t, s.Allowed())
}

func TestSession_SyncCommandsRefusedUntilAllowed(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", false)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	get := s.HandleMessage(models.Message{Command: protocol.CmdGetContact, Parameters: "0"})
	require.NotNil(t, get)
	assert.Equal(t, protocol.NotAllowed, get.Parameters)

	update := s.HandleMessage(models.Message{Command: protocol.CmdUpdateContact, Parameters: "{}"})
	require.NotNil(t, update)
	assert.Equal(t, protocol.NotAllowed, update.Parameters)

	sync := s.HandleMessage(models.Message{Command: protocol.CmdSyncMessage, Parameters: "{}"})
	require.NotNil(t, sync)
	assert.Equal(t, protocol.NotAllowed, sync.Parameters)
}

func TestSession_GetContactByIndex(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
		models.Contact{ForeignID: "B2", VersionNumber: 2, Name: models.NameGroup{Version: 2, DisplayName: "John"}},
	)
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	reply := s.HandleMessage(models.Message{Command: protocol.CmdGetContact, Parameters: "1"})
	require.NotNil(t, reply)
	require.Equal(t, protocol.CmdContact, reply.Command)

	contact, err := models.ParseContact(reply.Parameters)
	require.NoError(t, err)
	assert.Equal(t, "B2", contact.ForeignID)
	assert.Equal(t, models.StateSyncing, s.Snapshot().State)
}

func TestSession_GetContactPastEndIsSentinel(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
	)
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	for _, parameters := range []string{"5", "unknown-id", ""} {
		reply := s.HandleMessage(models.Message{Command: protocol.CmdGetContact, Parameters: parameters})
		require.NotNil(t, reply)
		assert.Equal(t, protocol.CmdContact, reply.Command)
		assert.Equal(t, protocol.NoMoreContacts, reply.Parameters)
	}
}

func TestSession_UpdateContactEchoesIDMapping(t *testing.T) {
	s, contactStore, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	payload, err := (&models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 1, DisplayName: "Jane"},
	}).ToJSON()
	require.NoError(t, err)

	reply := s.HandleMessage(models.Message{Command: protocol.CmdUpdateContact, Parameters: payload})
	require.NotNil(t, reply)

	assert.Equal(t, protocol.CmdUpdated, reply.Command)
	assert.Equal(t, "A1=>A1", reply.Parameters)
	assert.Equal(t, 1, contactStore.Count())
}

func TestSession_UpdateContactRejectsGarbage(t *testing.T) {
	s, contactStore, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	for _, parameters := range []string{"not json", `{"version":1}`} {
		reply := s.HandleMessage(models.Message{Command: protocol.CmdUpdateContact, Parameters: parameters})
		require.NotNil(t, reply)
		assert.Equal(t, protocol.CmdUpdated, reply.Command)
		assert.Equal(t, updateRejected, reply.Parameters)
	}
	assert.Equal(t, 0, contactStore.Count())
}

func TestSession_SyncMessageDiff(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
		models.Contact{ForeignID: "B2", VersionNumber: 3, Name: models.NameGroup{Version: 3, DisplayName: "John"}},
	)
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	clientMsg := models.SyncMessage{
		Updated: []models.ContactVersionRef{
			{ForeignID: "A1", Version: 1}, // identical on both sides
			{ForeignID: "B2", Version: 2}, // server copy is newer
		},
		Inserted: []models.ContactVersionRef{
			{ForeignID: "C3", Version: 1}, // device-only
		},
	}
	payload, err := clientMsg.ToJSON()
	require.NoError(t, err)

	reply := s.HandleMessage(models.Message{Command: protocol.CmdSyncMessage, Parameters: payload})
	require.NotNil(t, reply)
	require.Equal(t, protocol.CmdServerSync, reply.Command)

	response, err := models.ParseSyncMessage(reply.Parameters)
	require.NoError(t, err)

	assert.Empty(t, response.Inserted)
	assert.Equal(t, []models.ContactVersionRef{{ForeignID: "B2", Version: 3}}, response.Updated)
	assert.Equal(t, []models.ContactVersionRef{{ForeignID: "C3", Version: 1}}, response.Deleted)

	// The identical contact A1 counts as completed work.
	assert.Equal(t, 1, s.Snapshot().Current)
}

func TestSession_SyncMessageServerOnlyContactsAreInserted(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
	)
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	payload, err := (&models.SyncMessage{}).ToJSON()
	require.NoError(t, err)

	reply := s.HandleMessage(models.Message{Command: protocol.CmdSyncMessage, Parameters: payload})
	require.NotNil(t, reply)

	response, err := models.ParseSyncMessage(reply.Parameters)
	require.NoError(t, err)
	assert.Equal(t, []models.ContactVersionRef{{ForeignID: "A1", Version: 1}}, response.Inserted)
}

func TestSession_FinishUpdateMarksInSync(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	reply := s.HandleMessage(models.Message{Command: protocol.CmdFinishUpdate})
	assert.Nil(t, reply)

	snap := s.Snapshot()
	assert.True(t, snap.InSync)
	assert.Equal(t, models.StateInSync, snap.State)
}

func TestSession_ProgressNeverExceedsMaximum(t *testing.T) {
	s, _, _ := newTestSession(
		models.Contact{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
	)
	s.beginHandshake("dev-1", "Pixel", true)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	for i := 0; i < 5; i++ {
		s.HandleMessage(models.Message{Command: protocol.CmdGetContact, Parameters: strconv.Itoa(i)})
	}

	snap := s.Snapshot()
	assert.LessOrEqual(t, snap.Current, snap.Maximum)
}

func TestSession_AllowNeverAuthorizesMismatchedClient(t *testing.T) {
	s, _, _ := newTestSession()
	s.markVersionMismatch("dev-stale", "OldPhone")

	s.allow()

	snap := s.Snapshot()
	assert.False(t, snap.Allowed)
	assert.Equal(t, models.StateVersionMismatch, snap.State)
}

func TestSession_ReconnectAfterDropRequiresReapproval(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", false)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})
	s.allow()
	require.True(t, s.Allowed())

	s.markDisconnected()
	s.resetForReconnect(false)

	assert.False(t, s.Allowed())
	assert.Equal(t, models.StateAwaitingIdentity, s.Snapshot().State)
}

func TestSession_ReconnectTrustedKeepsAuthorization(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", false)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})

	s.markDisconnected()
	s.resetForReconnect(true)

	assert.True(t, s.Allowed())
}

func TestSession_FreshHelloResetsUntrustedAuthorization(t *testing.T) {
	s, _, _ := newTestSession()
	s.beginHandshake("dev-1", "Pixel", false)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})
	s.allow()
	require.True(t, s.Allowed())

	// The link never dropped; a fresh Hello still starts a new round and
	// only the persisted trust list carries authorization across rounds.
	s.resetForReconnect(false)

	assert.False(t, s.Allowed())
	assert.Equal(t, models.StateAwaitingIdentity, s.Snapshot().State)
}

// readBackNotifier reads the session from inside the callback, the way a
// status view would.
type readBackNotifier struct {
	session *Session
	fields  []string
	states  []models.SessionState
}

func (n *readBackNotifier) SessionChanged(_ models.DeviceSession, field string) {
	n.fields = append(n.fields, field)
	n.states = append(n.states, n.session.Snapshot().State)
}

func TestSession_NotifierMayReadSessionState(t *testing.T) {
	clk := clock.NewMock()
	contactStore := store.NewContactStore(clk, logger.Nop())

	notifier := &readBackNotifier{}
	s := NewSession("10.0.0.7", contactStore, clk, logger.Nop(), notifier)
	notifier.session = s

	s.beginHandshake("dev-1", "Pixel", false)
	s.HandleMessage(models.Message{Command: protocol.CmdConnect, Parameters: connectParams("dev-1")})
	s.allow()

	require.NotEmpty(t, notifier.fields)
	assert.Contains(t, notifier.fields, "state")
	assert.Contains(t, notifier.fields, "allowed")
	assert.Equal(t, models.StateAuthorized, notifier.states[len(notifier.states)-1])
}
