package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/internal/store"
	"github.com/lovettlabs/contactsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactRepositoryFake struct {
	loadAllFunc func(ctx context.Context) ([]models.Contact, error)
	saveAllFunc func(ctx context.Context, contacts []models.Contact) error
}

func (f *contactRepositoryFake) LoadAll(ctx context.Context) ([]models.Contact, error) {
	if f.loadAllFunc == nil {
		return nil, nil
	}
	return f.loadAllFunc(ctx)
}

func (f *contactRepositoryFake) SaveAll(ctx context.Context, contacts []models.Contact) error {
	if f.saveAllFunc == nil {
		return nil
	}
	return f.saveAllFunc(ctx, contacts)
}

type trustedDeviceRepositoryFake struct {
	isTrustedFunc func(ctx context.Context, deviceID string) (bool, error)
	trustFunc     func(ctx context.Context, deviceID string) error
	listFunc      func(ctx context.Context) ([]string, error)
}

func (f *trustedDeviceRepositoryFake) IsTrusted(ctx context.Context, deviceID string) (bool, error) {
	if f.isTrustedFunc == nil {
		return false, nil
	}
	return f.isTrustedFunc(ctx, deviceID)
}

func (f *trustedDeviceRepositoryFake) Trust(ctx context.Context, deviceID string) error {
	if f.trustFunc == nil {
		return nil
	}
	return f.trustFunc(ctx, deviceID)
}

func (f *trustedDeviceRepositoryFake) List(ctx context.Context) ([]string, error) {
	if f.listFunc == nil {
		return nil, nil
	}
	return f.listFunc(ctx)
}

func testSyncConfig() config.Sync {
	return config.Sync{
		CheckpointInterval: 5 * time.Minute,
		SessionIdleTimeout: 15 * time.Minute,
		HoldListTTL:        time.Hour,
		HoldListSize:       8,
	}
}

func newTestEngine(contacts *contactRepositoryFake, trusted *trustedDeviceRepositoryFake) (*Engine, *clock.Mock) {
	if contacts == nil {
		contacts = &contactRepositoryFake{}
	}
	if trusted == nil {
		trusted = &trustedDeviceRepositoryFake{}
	}

	clk := clock.NewMock()
	e := NewEngine("1.0.0", testSyncConfig(), &store.Storages{
		ContactRepository:       contacts,
		TrustedDeviceRepository: trusted,
	}, logger.Nop(), WithClock(clk))
	return e, clk
}

func helloMessage(version, deviceID string) models.Message {
	return models.Message{
		Command:    protocol.CmdHello,
		Parameters: protocol.Handshake{ClientVersion: version, DeviceName: "Pixel", DeviceID: deviceID}.Encode(),
	}
}

func TestEngine_HelloCreatesOneSessionPerAddress(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	// Reconnects come from ephemeral ports on the same host.
	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))
	e.OnMessage(ctx, "192.168.1.20:52002", helloMessage("1.0.0", "dev-1"))

	assert.Equal(t, 1, e.registry.Len())

	session, ok := e.registry.Get("192.168.1.20:52003")
	require.True(t, ok)
	assert.Equal(t, "dev-1", session.DeviceID())
}

func TestEngine_HelloVersionMismatchHoldsDevice(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("0.9.0", "dev-stale"))

	session, ok := e.registry.Get("192.168.1.20:52001")
	require.True(t, ok)
	assert.Equal(t, models.StateVersionMismatch, session.Snapshot().State)
	assert.True(t, e.hold.Held("dev-stale"))

	// Trust decisions on a held device never take effect.
	err := e.Allow(ctx, "192.168.1.20:52001")
	require.NoError(t, err)
	assert.False(t, session.Allowed())
	assert.NotEqual(t, models.StateAuthorized, session.Snapshot().State)
}

func TestEngine_HelloFromHeldDeviceIsIgnored(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("0.9.0", "dev-stale"))
	e.registry.Remove("192.168.1.20:52001")

	e.OnMessage(ctx, "192.168.1.20:52002", helloMessage("0.9.0", "dev-stale"))
	assert.Equal(t, 0, e.registry.Len())
}

func TestEngine_UpgradedDeviceRecoversFromMismatch(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()
	addr := "192.168.1.20:52001"

	e.OnMessage(ctx, addr, helloMessage("0.9.0", "dev-1"))

	session, ok := e.registry.Get(addr)
	require.True(t, ok)
	require.Equal(t, models.StateVersionMismatch, session.Snapshot().State)

	// Same device after upgrading its client.
	e.OnMessage(ctx, addr, helloMessage("1.0.0", "dev-1"))

	assert.Equal(t, models.StateAwaitingIdentity, session.Snapshot().State)
}

func TestEngine_HelloIgnoredWhileHandshakeInFlight(t *testing.T) {
	e, _ := newTestEngine(nil, nil)

	e.onboarding.Lock()
	defer e.onboarding.Unlock()

	reply := e.OnMessage(context.Background(), "192.168.1.30:52001", helloMessage("1.0.0", "dev-2"))

	assert.Nil(t, reply)
	assert.Equal(t, 0, e.registry.Len())
}

func TestEngine_TrustedDeviceIsAuthorizedOnHello(t *testing.T) {
	trusted := &trustedDeviceRepositoryFake{
		isTrustedFunc: func(_ context.Context, deviceID string) (bool, error) {
			return deviceID == "dev-1", nil
		},
	}
	e, _ := newTestEngine(nil, trusted)

	e.OnMessage(context.Background(), "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))

	session, ok := e.registry.Get("192.168.1.20:52001")
	require.True(t, ok)
	assert.True(t, session.Allowed())
}

func TestEngine_AllowPersistsTrustDecision(t *testing.T) {
	var trustedID string
	trusted := &trustedDeviceRepositoryFake{
		trustFunc: func(_ context.Context, deviceID string) error {
			trustedID = deviceID
			return nil
		},
	}
	e, _ := newTestEngine(nil, trusted)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))

	require.NoError(t, e.Allow(ctx, "192.168.1.20:52001"))

	session, _ := e.registry.Get("192.168.1.20:52001")
	assert.True(t, session.Allowed())
	assert.Equal(t, "dev-1", trustedID)
}

func TestEngine_AllowWithoutSessionFails(t *testing.T) {
	e, _ := newTestEngine(nil, nil)

	err := e.Allow(context.Background(), "10.0.0.1:1000")
	assert.ErrorIs(t, err, ErrNoSessionForAddress)
}

func TestEngine_DisconnectRemovesSession(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))
	require.Equal(t, 1, e.registry.Len())

	reply := e.OnMessage(ctx, "192.168.1.20:52001", models.Message{Command: protocol.CmdDisconnect})
	require.NotNil(t, reply)
	assert.Equal(t, protocol.CmdDisconnect, reply.Command)
	assert.Equal(t, 0, e.registry.Len())
}

func TestEngine_FinishUpdatePersistsStore(t *testing.T) {
	var saved []models.Contact
	contacts := &contactRepositoryFake{
		saveAllFunc: func(_ context.Context, c []models.Contact) error {
			saved = c
			return nil
		},
	}
	trusted := &trustedDeviceRepositoryFake{
		isTrustedFunc: func(context.Context, string) (bool, error) { return true, nil },
	}
	e, _ := newTestEngine(contacts, trusted)
	ctx := context.Background()
	addr := "192.168.1.20:52001"

	e.OnMessage(ctx, addr, helloMessage("1.0.0", "dev-1"))
	e.OnMessage(ctx, addr, models.Message{
		Command:    protocol.CmdConnect,
		Parameters: protocol.Handshake{ClientVersion: "1.0.0", DeviceName: "Pixel", DeviceID: "dev-1"}.Encode(),
	})

	payload, err := (&models.Contact{
		ForeignID: "A1",
		Name:      models.NameGroup{Version: 1, DisplayName: "Jane"},
	}).ToJSON()
	require.NoError(t, err)

	update := e.OnMessage(ctx, addr, models.Message{Command: protocol.CmdUpdateContact, Parameters: payload})
	require.NotNil(t, update)
	assert.Equal(t, "A1=>A1", update.Parameters)

	e.OnMessage(ctx, addr, models.Message{Command: protocol.CmdFinishUpdate})

	require.Len(t, saved, 1)
	assert.Equal(t, "A1", saved[0].ForeignID)
}

func TestEngine_UnknownCommandIsDropped(t *testing.T) {
	e, _ := newTestEngine(nil, nil)

	reply := e.OnMessage(context.Background(), "192.168.1.20:52001", models.Message{Command: "Bogus"})
	assert.Nil(t, reply)
}

func TestEngine_CommandWithoutSessionIsDropped(t *testing.T) {
	e, _ := newTestEngine(nil, nil)

	reply := e.OnMessage(context.Background(), "192.168.1.20:52001", models.Message{Command: protocol.CmdGetContact, Parameters: "0"})
	assert.Nil(t, reply)
}

func TestEngine_LoadStorePopulatesContacts(t *testing.T) {
	contacts := &contactRepositoryFake{
		loadAllFunc: func(context.Context) ([]models.Contact, error) {
			return []models.Contact{
				{ForeignID: "A1", VersionNumber: 1, Name: models.NameGroup{Version: 1, DisplayName: "Jane"}},
			}, nil
		},
	}
	e, _ := newTestEngine(contacts, nil)

	require.NoError(t, e.LoadStore(context.Background()))
	assert.Equal(t, 1, e.Store().Count())
}

func TestEngine_SweepEvictsStaleSessions(t *testing.T) {
	e, clk := newTestEngine(nil, nil)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))
	require.Equal(t, 1, e.registry.Len())

	// Still fresh, nothing to evict.
	assert.Equal(t, 0, e.Sweep())

	clk.Add(20 * time.Minute)

	assert.Equal(t, 1, e.Sweep())
	assert.Equal(t, 0, e.registry.Len())
}

func TestEngine_SweepKeepsConnectedSessions(t *testing.T) {
	e, clk := newTestEngine(nil, nil)
	ctx := context.Background()
	addr := "192.168.1.20:52001"

	e.OnMessage(ctx, addr, helloMessage("1.0.0", "dev-1"))
	e.OnMessage(ctx, addr, models.Message{
		Command:    protocol.CmdConnect,
		Parameters: protocol.Handshake{ClientVersion: "1.0.0", DeviceName: "Pixel", DeviceID: "dev-1"}.Encode(),
	})

	clk.Add(20 * time.Minute)

	assert.Equal(t, 0, e.Sweep())
	assert.Equal(t, 1, e.registry.Len())
}

func TestEngine_SessionsReportsSnapshots(t *testing.T) {
	e, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.OnMessage(ctx, "192.168.1.20:52001", helloMessage("1.0.0", "dev-1"))
	e.OnMessage(ctx, "192.168.1.21:52001", helloMessage("1.0.0", "dev-2"))

	sessions := e.Sessions()
	require.Len(t, sessions, 2)

	ids := []string{sessions[0].DeviceID, sessions[1].DeviceID}
	assert.ElementsMatch(t, []string{"dev-1", "dev-2"}, ids)
}
