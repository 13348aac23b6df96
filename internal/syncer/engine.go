package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/internal/store"
	"github.com/lovettlabs/contactsync/models"
)

// Engine routes inbound wire messages to device sessions and owns the
// cross-session machinery: the registry, the trusted-device gate, the
// version-mismatch hold list, and round checkpoints against the contact
// repository.
type Engine struct {
	version  string
	cfg      config.Sync
	store    *store.ContactStore
	contacts store.ContactRepository
	trusted  store.TrustedDeviceRepository
	registry *Registry
	hold     *HoldList
	notifier Notifier
	clock    clock.Clock
	logger   *logger.Logger

	// onboarding serializes Hello handling across the whole engine: while
	// one device's handshake is in flight, Hellos from other addresses are
	// ignored rather than interleaved with the pending trust decision.
	onboarding sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNotifier wires an observer for session state changes.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock substitutes the time source, for tests.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clock = clk }
}

// NewEngine constructs the sync engine. version is the server's protocol
// compatibility version matched against every Hello.
func NewEngine(version string, cfg config.Sync, storages *store.Storages, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		version:  version,
		cfg:      cfg,
		contacts: storages.ContactRepository,
		trusted:  storages.TrustedDeviceRepository,
		registry: NewRegistry(),
		hold:     NewHoldList(cfg.HoldListSize, cfg.HoldListTTL),
		notifier: NopNotifier{},
		clock:    clock.New(),
		logger:   log,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.store = store.NewContactStore(e.clock, log)
	return e
}

// Store exposes the authoritative contact store.
func (e *Engine) Store() *store.ContactStore {
	return e.store
}

// Version returns the protocol compatibility version the engine enforces.
func (e *Engine) Version() string {
	return e.version
}

// LoadStore populates the in-memory store from the contact repository.
// Called once at startup before the transport begins delivering messages.
func (e *Engine) LoadStore(ctx context.Context) error {
	contacts, err := e.contacts.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading contact store: %w", err)
	}
	e.store.Load(contacts)
	e.logger.Info().Int("count", len(contacts)).Msg("contact store loaded")
	return nil
}

// Checkpoint persists the in-memory store. Called on FinishUpdate and by
// the background autosave worker.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if err := e.contacts.SaveAll(ctx, e.store.Snapshot()); err != nil {
		return fmt.Errorf("persisting contact store: %w", err)
	}
	return nil
}

// OnMessage handles one inbound message from the transport for the device
// at addr and returns the response, or nil when the command produces none.
//
// Protocol-level failures (unknown command, malformed parameters) are
// handled here and never escalate past the engine: they are logged and
// dropped. Only authorization-pending and version-mismatch conditions are
// surfaced outward, through the Notifier.
func (e *Engine) OnMessage(ctx context.Context, addr string, m models.Message) *models.Message {
	if !protocol.KnownCommand(m.Command) {
		e.logger.Warn().Str("command", m.Command).Str("addr", addr).Msg("unrecognized command")
		return nil
	}

	e.logger.Debug().Str("command", m.Command).Str("addr", addr).Msg("message received")

	switch m.Command {
	case protocol.CmdHello:
		return e.handleHello(ctx, addr, m.Parameters)

	case protocol.CmdDisconnect:
		return e.Disconnect(addr)

	case protocol.CmdFinishUpdate:
		return e.handleFinishUpdate(ctx, addr, m)

	default:
		session, ok := e.registry.Get(addr)
		if !ok {
			// Commands for a device that never completed a handshake are
			// dropped; the device recovers by starting over with Hello.
			e.logger.Warn().Str("command", m.Command).Str("addr", addr).Msg("no session for address")
			return nil
		}
		return session.HandleMessage(m)
	}
}

// handleHello drives onboarding. The engine-wide gate ensures only one
// handshake is in flight at a time; a Hello arriving while another device
// is mid-onboarding is ignored, and the device retries on its own schedule.
func (e *Engine) handleHello(ctx context.Context, addr string, parameters string) *models.Message {
	if !e.onboarding.TryLock() {
		e.logger.Debug().Str("addr", addr).Msg("handshake already in flight, ignoring Hello")
		return nil
	}
	defer e.onboarding.Unlock()

	h, err := protocol.ParseHandshake(parameters)
	if err != nil {
		e.logger.Warn().Err(err).Str("addr", addr).Msg("malformed Hello parameters")
		return nil
	}

	if h.ClientVersion != e.version {
		if e.hold.Held(h.DeviceID) {
			// Known stale client; nothing changed since its last Hello.
			return nil
		}
		e.logger.Info().
			Str("addr", addr).
			Str("device_id", h.DeviceID).
			Str("client_version", h.ClientVersion).
			Str("server_version", e.version).
			Msg("client version mismatch, holding device until upgraded")
		e.hold.Hold(h.DeviceID)

		session, _ := e.registry.Resolve(addr, e.newSession)
		session.markVersionMismatch(h.DeviceID, h.DeviceName)
		e.notifier.SessionChanged(session.Snapshot(), "state")
		return nil
	}

	trusted, err := e.trusted.IsTrusted(ctx, h.DeviceID)
	if err != nil {
		e.logger.Error().Err(err).Str("device_id", h.DeviceID).Msg("error consulting trusted device list")
		trusted = false
	}

	session, created := e.registry.Resolve(addr, e.newSession)
	if created {
		session.beginHandshake(h.DeviceID, h.DeviceName, trusted)
		e.logger.Info().
			Str("addr", addr).
			Str("device_id", h.DeviceID).
			Str("device_name", h.DeviceName).
			Bool("trusted", trusted).
			Msg("new device session")
	} else {
		session.resetForReconnect(trusted)
		e.logger.Info().Str("addr", addr).Str("device_id", h.DeviceID).Msg("device reconnected, round restarted")
	}

	return nil
}

func (e *Engine) handleFinishUpdate(ctx context.Context, addr string, m models.Message) *models.Message {
	session, ok := e.registry.Get(addr)
	if !ok {
		e.logger.Warn().Str("addr", addr).Msg("FinishUpdate for unknown session")
		return nil
	}

	response := session.HandleMessage(m)

	if session.Allowed() {
		if err := e.Checkpoint(ctx); err != nil {
			// The in-memory store remains authoritative; the next
			// checkpoint retries the save.
			e.logger.Error().Err(err).Msg("error persisting store at round end")
		}
	}
	return response
}

// Disconnect tears down the session for addr, whether triggered by an
// explicit Disconnect command or by a transport failure notification. Any
// merge already committed stands; the device's next Hello starts a fresh
// round.
func (e *Engine) Disconnect(addr string) *models.Message {
	session, ok := e.registry.Get(addr)
	if !ok {
		return nil
	}

	session.markDisconnected()
	e.registry.Remove(addr)
	e.logger.Info().Str("addr", addr).Msg("session removed")

	return &models.Message{Command: protocol.CmdDisconnect}
}

// Allow records a trust decision for the device at addr: the session is
// authorized and the device id is appended to the persisted allow-list so
// future reconnects skip approval.
func (e *Engine) Allow(ctx context.Context, addr string) error {
	session, ok := e.registry.Get(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSessionForAddress, addr)
	}

	session.allow()

	deviceID := session.DeviceID()
	if deviceID == "" {
		// Authorized for this round only; without an id the decision
		// cannot be persisted.
		return nil
	}

	if err := e.trusted.Trust(ctx, deviceID); err != nil {
		return fmt.Errorf("persisting trust decision: %w", err)
	}
	return nil
}

// Sweep evicts sessions that disconnected or have been idle beyond the
// configured timeout. Run periodically by the sweep worker.
func (e *Engine) Sweep() int {
	evicted := 0
	cutoff := e.clock.Now().Add(-e.cfg.SessionIdleTimeout)

	for _, session := range e.registry.Sessions() {
		snap := session.Snapshot()
		stale := session.LastSeen().Before(cutoff)
		if snap.State == models.StateDisconnected || (stale && !snap.Connected) {
			e.registry.Remove(snap.Addr)
			evicted++
			e.logger.Debug().Str("addr", snap.Addr).Msg("stale session evicted")
		}
	}

	return evicted
}

// Sessions returns snapshots of every live session, for status surfaces.
func (e *Engine) Sessions() []models.DeviceSession {
	live := e.registry.Sessions()
	out := make([]models.DeviceSession, 0, len(live))
	for _, s := range live {
		out = append(out, s.Snapshot())
	}
	return out
}

func (e *Engine) newSession(normalizedAddr string) *Session {
	return NewSession(normalizedAddr, e.store, e.clock, e.logger, e.notifier)
}
