package syncer

import (
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/internal/store"
	"github.com/lovettlabs/contactsync/models"
)

// updateRejected is the Updated payload sent when an incoming contact could
// not be parsed or carries no foreign id. The device surfaces it as-is.
const updateRejected = "Parse error or missing id"

// Session is the controller for one connected device. It owns the small
// state machine driving handshake, authorization and sync command dispatch
// for that device, and tracks the round's progress counters.
//
// A session's state is exclusive to its device: sessions for different
// devices may progress concurrently with no shared lock beyond the contact
// store's own merge section.
type Session struct {
	store    *store.ContactStore
	clock    clock.Clock
	logger   *logger.Logger
	notifier Notifier

	mu          sync.Mutex
	addr        string
	deviceID    string
	displayName string
	state       models.SessionState
	allowed     bool
	connected   bool
	inSync      bool
	current     int
	maximum     int
	lastSeen    time.Time
	pending     []sessionEvent
}

// sessionEvent is a queued observer notification: the snapshot captured at
// mutation time plus the field that changed.
type sessionEvent struct {
	snapshot models.DeviceSession
	field    string
}

// NewSession constructs a controller for the device at the given normalized
// address. The session starts in the New state; the engine advances it to
// AwaitingIdentity once the Hello handshake passes the version check.
func NewSession(addr string, contactStore *store.ContactStore, clk clock.Clock, log *logger.Logger, notifier Notifier) *Session {
	return &Session{
		store:    contactStore,
		clock:    clk,
		logger:   log,
		notifier: notifier,
		addr:     addr,
		state:    models.StateNew,
		maximum:  contactStore.Count(),
		lastSeen: clk.Now(),
	}
}

// HandleMessage interprets one inbound command for this device and returns
// the response message, or nil when the command produces none. Commands are
// processed strictly in arrival order; the per-session lock rules out
// reordering even when the transport delivers from multiple goroutines.
func (s *Session) HandleMessage(m models.Message) *models.Message {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	s.lastSeen = s.clock.Now()

	switch m.Command {
	case protocol.CmdHello:
		// Handshake is handled by the engine before the session sees it.
		return nil

	case protocol.CmdConnect:
		return s.handleConnect(m.Parameters)

	case protocol.CmdDisconnect:
		s.transition(models.StateDisconnected)
		s.connected = false
		s.notify("connected")
		return &models.Message{Command: protocol.CmdDisconnect}

	case protocol.CmdGetContact:
		return s.handleGetContact(m.Parameters)

	case protocol.CmdUpdateContact:
		return s.handleUpdateContact(m.Parameters)

	case protocol.CmdSyncMessage:
		return s.handleSync(m.Parameters)

	case protocol.CmdFinishUpdate:
		s.inSync = true
		s.transition(models.StateInSync)
		s.notify("in_sync")
		return nil

	default:
		s.logger.Warn().Str("command", m.Command).Str("addr", s.addr).Msg("unrecognized command")
		return nil
	}
}

func (s *Session) handleConnect(parameters string) *models.Message {
	h, err := protocol.ParseHandshake(parameters)
	if err != nil {
		s.logger.Warn().Err(err).Str("addr", s.addr).Msg("malformed Connect parameters")
		return nil
	}

	if h.DeviceID != "" {
		s.deviceID = h.DeviceID
	}
	s.displayName = h.DeviceName
	s.connected = true

	if s.allowed {
		s.transition(models.StateAuthorized)
	} else {
		s.transition(models.StateAwaitingTrust)
	}
	s.notify("connected")

	return &models.Message{
		Command:    protocol.CmdCount,
		Parameters: strconv.Itoa(s.store.Count()),
	}
}

func (s *Session) handleGetContact(parameters string) *models.Message {
	if !s.allowed {
		return &models.Message{Command: protocol.CmdContact, Parameters: protocol.NotAllowed}
	}

	if parameters == "" {
		return &models.Message{Command: protocol.CmdContact, Parameters: protocol.NoMoreContacts}
	}

	s.bumpProgress()
	s.enterSyncing()

	var (
		contact models.Contact
		found   bool
	)
	if index, err := strconv.Atoi(parameters); err == nil {
		contact, found = s.store.AtIndex(index)
	} else {
		contact, found = s.store.FindByForeignID(parameters)
	}

	if !found {
		// Past the last index, or an id the store has never seen. A normal
		// end-of-iteration outcome, not an error.
		return &models.Message{Command: protocol.CmdContact, Parameters: protocol.NoMoreContacts}
	}

	payload, err := contact.ToJSON()
	if err != nil {
		s.logger.Error().Err(err).Str("foreign_id", contact.ForeignID).Msg("error serializing contact")
		return &models.Message{Command: protocol.CmdContact, Parameters: protocol.NoMoreContacts}
	}

	return &models.Message{Command: protocol.CmdContact, Parameters: payload}
}

func (s *Session) handleUpdateContact(parameters string) *models.Message {
	if !s.allowed {
		return &models.Message{Command: protocol.CmdUpdated, Parameters: protocol.NotAllowed}
	}

	s.bumpProgress()
	s.enterSyncing()

	incoming, err := models.ParseContact(parameters)
	if err != nil || incoming.ForeignID == "" {
		s.logger.Warn().Err(err).Str("addr", s.addr).Msg("rejected incoming contact")
		return &models.Message{Command: protocol.CmdUpdated, Parameters: updateRejected}
	}

	res, err := s.store.Merge(incoming)
	if err != nil {
		s.logger.Warn().Err(err).Str("addr", s.addr).Msg("merge rejected incoming contact")
		return &models.Message{Command: protocol.CmdUpdated, Parameters: updateRejected}
	}

	s.notify("current")

	// The foreign id survives the merge unchanged; the mapping matters for
	// devices that assigned a provisional id before the first push.
	return &models.Message{
		Command:    protocol.CmdUpdated,
		Parameters: protocol.EncodeUpdated(incoming.ForeignID, res.Contact.ForeignID),
	}
}

func (s *Session) handleSync(parameters string) *models.Message {
	if !s.allowed {
		return &models.Message{Command: protocol.CmdServerSync, Parameters: protocol.NotAllowed}
	}

	clientMsg, err := models.ParseSyncMessage(parameters)
	if err != nil {
		s.logger.Warn().Err(err).Str("addr", s.addr).Msg("malformed sync message")
		return nil
	}

	s.enterSyncing()

	response, identical := computeServerSync(s.store.SnapshotVersions(), clientMsg)

	// Contacts already identical on both sides count as completed work.
	s.current += identical
	if s.current > s.maximum {
		s.maximum = s.current
	}
	s.notify("current")

	payload, err := response.ToJSON()
	if err != nil {
		s.logger.Error().Err(err).Msg("error serializing server sync message")
		return nil
	}

	return &models.Message{Command: protocol.CmdServerSync, Parameters: payload}
}

// computeServerSync builds the server's change list from its version
// snapshot and the device's change list, and counts contacts already
// identical on both sides. See [models.SyncMessage] for how the device
// interprets each set.
func computeServerSync(serverRefs []models.ContactVersionRef, clientMsg models.SyncMessage) (models.SyncMessage, int) {
	clientRefs := make(map[string]models.ContactVersionRef)
	for _, set := range [][]models.ContactVersionRef{clientMsg.Inserted, clientMsg.Updated, clientMsg.Deleted} {
		for _, ref := range set {
			clientRefs[ref.ForeignID] = ref
		}
	}

	var response models.SyncMessage
	identical := 0
	serverSeen := make(map[string]struct{}, len(serverRefs))

	for _, ref := range serverRefs {
		serverSeen[ref.ForeignID] = struct{}{}

		clientRef, known := clientRefs[ref.ForeignID]
		switch {
		case !known:
			response.Inserted = append(response.Inserted, ref)
		case clientRef.Version == ref.Version:
			identical++
		default:
			response.Updated = append(response.Updated, ref)
		}
	}

	for _, set := range [][]models.ContactVersionRef{clientMsg.Inserted, clientMsg.Updated} {
		for _, ref := range set {
			if _, ok := serverSeen[ref.ForeignID]; !ok {
				response.Deleted = append(response.Deleted, ref)
			}
		}
	}

	return response, identical
}

// bumpProgress advances the round counters. Callers hold s.mu.
func (s *Session) bumpProgress() {
	s.current++
	if s.current > s.maximum {
		s.maximum = s.current
	}
}

// enterSyncing moves an authorized session into the Syncing state on its
// first sync command of the round. Callers hold s.mu.
func (s *Session) enterSyncing() {
	if s.state == models.StateAuthorized {
		s.transition(models.StateSyncing)
	}
}

// transition records a state change and notifies the observer when the
// state actually changed. Callers hold s.mu.
func (s *Session) transition(next models.SessionState) {
	if s.state == next {
		return
	}
	s.logger.Debug().
		Str("addr", s.addr).
		Str("device_id", s.deviceID).
		Str("from", string(s.state)).
		Str("to", string(next)).
		Msg("session state change")
	s.state = next
	s.notify("state")
}

// notify queues a snapshot for the observer. Callers hold s.mu; delivery
// happens in publishPending after the lock is released, so a notifier is
// free to read the session (or the whole registry) from its callback.
func (s *Session) notify(field string) {
	s.pending = append(s.pending, sessionEvent{snapshot: s.snapshotLocked(), field: field})
}

// publishPending delivers queued notifications in mutation order. Exported
// mutators defer it before deferring the unlock, so it always runs lock-free.
func (s *Session) publishPending() {
	s.mu.Lock()
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, e := range events {
		s.notifier.SessionChanged(e.snapshot, e.field)
	}
}

// Snapshot returns a copy of the session's user-visible state.
func (s *Session) Snapshot() models.DeviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() models.DeviceSession {
	return models.DeviceSession{
		DeviceID:    s.deviceID,
		DisplayName: s.displayName,
		Addr:        s.addr,
		Allowed:     s.allowed,
		Connected:   s.connected,
		Current:     s.current,
		Maximum:     s.maximum,
		InSync:      s.inSync,
		State:       s.state,
	}
}

// DeviceID returns the device identifier recorded during the handshake.
func (s *Session) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deviceID
}

// Allowed reports whether the device may mutate the store.
func (s *Session) Allowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allowed
}

// LastSeen returns when the session last handled a command.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// Connected reports whether the transport link is considered live.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

// beginHandshake records the device identity from a Hello and moves the
// session to AwaitingIdentity. Called by the engine with the onboarding
// gate held.
func (s *Session) beginHandshake(deviceID, displayName string, trusted bool) {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	s.deviceID = deviceID
	s.displayName = displayName
	s.allowed = trusted
	s.inSync = false
	s.current = 0
	s.maximum = s.store.Count()
	s.lastSeen = s.clock.Now()
	s.transition(models.StateAwaitingIdentity)
	s.notify("allowed")
}

// resetForReconnect prepares an existing session for a device that sent a
// fresh Hello. A fresh Hello starts a new round; authorization carries over
// only through the persisted trust list.
func (s *Session) resetForReconnect(trusted bool) {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	s.allowed = trusted
	s.inSync = false
	s.current = 0
	s.maximum = s.store.Count()
	s.lastSeen = s.clock.Now()
	s.transition(models.StateAwaitingIdentity)
	s.notify("allowed")
}

// markVersionMismatch parks the session in the terminal VersionMismatch
// state and surfaces the upgrade-required signal to the observer.
func (s *Session) markVersionMismatch(deviceID, displayName string) {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	s.deviceID = deviceID
	s.displayName = displayName
	s.allowed = false
	s.transition(models.StateVersionMismatch)
}

// allow flips the authorization gate after a trust decision.
func (s *Session) allow() {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	if s.allowed || s.state == models.StateVersionMismatch {
		// A mismatched client must upgrade before any trust decision can
		// take effect.
		return
	}
	s.allowed = true
	if s.state == models.StateAwaitingTrust || s.state == models.StateAwaitingIdentity {
		s.transition(models.StateAuthorized)
	}
	s.notify("allowed")
}

// markDisconnected moves the session to Disconnected ahead of registry
// removal.
func (s *Session) markDisconnected() {
	s.mu.Lock()
	defer s.publishPending()
	defer s.mu.Unlock()

	s.connected = false
	s.transition(models.StateDisconnected)
	s.notify("connected")
}
