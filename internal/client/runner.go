package client

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/adapter"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/models"
)

// SyncRunner drives one full sync round against the server: Hello and
// Connect handshake, change-list reconciliation, contact pulls and pushes,
// and the closing FinishUpdate. While the server withholds authorization the
// runner keeps the round pending and retries on a fixed interval.
type SyncRunner struct {
	transport adapter.ServerTransport
	replica   *Replica
	handshake protocol.Handshake

	retryInterval time.Duration
	clock         clock.Clock
	logger        *logger.Logger
}

// RunnerOption customizes a SyncRunner.
type RunnerOption func(*SyncRunner)

// WithClock substitutes the time source, for tests.
func WithClock(clk clock.Clock) RunnerOption {
	return func(r *SyncRunner) { r.clock = clk }
}

func NewSyncRunner(transport adapter.ServerTransport, replica *Replica, handshake protocol.Handshake, retryInterval time.Duration, log *logger.Logger, opts ...RunnerOption) *SyncRunner {
	r := &SyncRunner{
		transport:     transport,
		replica:       replica,
		handshake:     handshake,
		retryInterval: retryInterval,
		clock:         clock.New(),
		logger:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one complete round and persists the replica. It returns when
// the round finishes, the transport fails, or ctx is done.
func (r *SyncRunner) Run(ctx context.Context) error {
	if err := r.hello(ctx); err != nil {
		return err
	}

	serverSync, err := r.connectAndReport(ctx)
	if err != nil {
		return err
	}

	pulls, pushes := r.classify(serverSync)
	r.logger.Info().Int("pulls", len(pulls)).Int("pushes", len(pushes)).Msg("round plan")

	for _, foreignID := range pulls {
		if err = r.pull(ctx, foreignID); err != nil {
			return err
		}
	}
	for _, foreignID := range pushes {
		if err = r.push(ctx, foreignID); err != nil {
			return err
		}
	}

	if _, err = r.transport.Exchange(ctx, models.Message{Command: protocol.CmdFinishUpdate}); err != nil {
		return fmt.Errorf("finish update: %w", err)
	}

	r.replica.MarkSynced()
	if err = r.replica.Save(); err != nil {
		return fmt.Errorf("persisting replica: %w", err)
	}

	r.logger.Info().Msg("sync round complete")
	return nil
}

func (r *SyncRunner) hello(ctx context.Context) error {
	// Hello has no direct reply; the server records the handshake and the
	// desktop side decides about trust.
	if _, err := r.transport.Exchange(ctx, models.Message{
		Command:    protocol.CmdHello,
		Parameters: r.handshake.Encode(),
	}); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	return nil
}

// connectAndReport opens the round and sends the device's change list. When
// the server withholds authorization the runner waits and starts over with a
// fresh Hello, since the trust decision may land at any time.
func (r *SyncRunner) connectAndReport(ctx context.Context) (models.SyncMessage, error) {
	for {
		reply, err := r.transport.Exchange(ctx, models.Message{
			Command:    protocol.CmdConnect,
			Parameters: r.handshake.Encode(),
		})
		if err != nil {
			return models.SyncMessage{}, fmt.Errorf("connect: %w", err)
		}
		if reply != nil && reply.Command == protocol.CmdCount {
			r.logger.Debug().Str("server_count", reply.Parameters).Msg("connected")
		}

		changes := r.replica.ChangeList()
		payload, err := changes.ToJSON()
		if err != nil {
			return models.SyncMessage{}, fmt.Errorf("serializing change list: %w", err)
		}

		syncReply, err := r.transport.Exchange(ctx, models.Message{
			Command:    protocol.CmdSyncMessage,
			Parameters: payload,
		})
		if err != nil {
			return models.SyncMessage{}, fmt.Errorf("sync message: %w", err)
		}
		if syncReply == nil || syncReply.Command != protocol.CmdServerSync {
			return models.SyncMessage{}, fmt.Errorf("%w to sync message", ErrUnexpectedReply)
		}

		if syncReply.Parameters == protocol.NotAllowed {
			r.logger.Info().Msg("authorization pending, waiting for approval")
			if err = r.wait(ctx); err != nil {
				return models.SyncMessage{}, err
			}
			if err = r.hello(ctx); err != nil {
				return models.SyncMessage{}, err
			}
			continue
		}

		serverSync, err := models.ParseSyncMessage(syncReply.Parameters)
		if err != nil {
			return models.SyncMessage{}, fmt.Errorf("parsing server sync message: %w", err)
		}
		return serverSync, nil
	}
}

func (r *SyncRunner) wait(ctx context.Context) error {
	timer := r.clock.Timer(r.retryInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classify turns the server's change list into the round plan. Inserted
// entries are server-only contacts to pull; Updated entries go whichever way
// the higher version points; Deleted entries are contacts the server never
// saw, which the device pushes.
func (r *SyncRunner) classify(serverSync models.SyncMessage) (pulls, pushes []string) {
	for _, ref := range serverSync.Inserted {
		pulls = append(pulls, ref.ForeignID)
	}
	for _, ref := range serverSync.Updated {
		local, ok := r.replica.Get(ref.ForeignID)
		switch {
		case !ok || local.VersionNumber < ref.Version:
			pulls = append(pulls, ref.ForeignID)
		case local.VersionNumber > ref.Version:
			pushes = append(pushes, ref.ForeignID)
		}
	}
	for _, ref := range serverSync.Deleted {
		pushes = append(pushes, ref.ForeignID)
	}
	return pulls, pushes
}

func (r *SyncRunner) pull(ctx context.Context, foreignID string) error {
	reply, err := r.transport.Exchange(ctx, models.Message{
		Command:    protocol.CmdGetContact,
		Parameters: foreignID,
	})
	if err != nil {
		return fmt.Errorf("get contact %s: %w", foreignID, err)
	}
	if reply == nil || reply.Command != protocol.CmdContact {
		return fmt.Errorf("%w to get contact", ErrUnexpectedReply)
	}

	switch reply.Parameters {
	case protocol.NoMoreContacts:
		// The server no longer has it; nothing to apply.
		return nil
	case protocol.NotAllowed:
		return fmt.Errorf("get contact %s: %w", foreignID, ErrUnexpectedReply)
	}

	incoming, err := models.ParseContact(reply.Parameters)
	if err != nil {
		return fmt.Errorf("parsing contact %s: %w", foreignID, err)
	}

	if err = r.replica.Apply(incoming); err != nil {
		return fmt.Errorf("applying contact %s: %w", foreignID, err)
	}
	return nil
}

func (r *SyncRunner) push(ctx context.Context, foreignID string) error {
	contact, ok := r.replica.Get(foreignID)
	if !ok {
		return nil
	}

	payload, err := contact.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing contact %s: %w", foreignID, err)
	}

	reply, err := r.transport.Exchange(ctx, models.Message{
		Command:    protocol.CmdUpdateContact,
		Parameters: payload,
	})
	if err != nil {
		return fmt.Errorf("update contact %s: %w", foreignID, err)
	}
	if reply == nil || reply.Command != protocol.CmdUpdated {
		return fmt.Errorf("%w to update contact", ErrUnexpectedReply)
	}

	if _, _, ok = protocol.ParseUpdated(reply.Parameters); !ok {
		// The server names the reason in the reply; the contact stays local
		// until a later round.
		r.logger.Warn().Str("foreign_id", foreignID).Str("reason", reply.Parameters).Msg("contact push rejected")
	}
	return nil
}
