package workers

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/logger"
)

// Checkpointer persists the in-memory contact store.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointWorker periodically persists the contact store so that edits
// merged between FinishUpdate rounds survive a crash.
type CheckpointWorker struct {
	ctx      context.Context
	engine   Checkpointer
	interval time.Duration
	clock    clock.Clock
	logger   *logger.Logger
}

func NewCheckpointWorker(ctx context.Context, engine Checkpointer, interval time.Duration, clk clock.Clock, log *logger.Logger) *CheckpointWorker {
	return &CheckpointWorker{
		ctx:      ctx,
		engine:   engine,
		interval: interval,
		clock:    clk,
		logger:   log,
	}
}

func (w *CheckpointWorker) Run() {
	go func() {
		ticker := w.clock.Ticker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				// Last chance to flush before shutdown.
				if err := w.engine.Checkpoint(context.Background()); err != nil {
					w.logger.Error().Err(err).Msg("error persisting store at shutdown")
				}
				return
			case <-ticker.C:
				if err := w.engine.Checkpoint(w.ctx); err != nil {
					w.logger.Error().Err(err).Msg("error persisting store")
					continue
				}
				w.logger.Debug().Msg("store checkpoint complete")
			}
		}
	}()
}
