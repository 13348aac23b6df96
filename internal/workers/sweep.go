package workers

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/logger"
)

// Sweeper evicts stale device sessions and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// SweepWorker periodically evicts sessions whose devices disconnected or
// went silent, keeping the registry bounded over a long-lived process.
type SweepWorker struct {
	ctx      context.Context
	engine   Sweeper
	interval time.Duration
	clock    clock.Clock
	logger   *logger.Logger
}

func NewSweepWorker(ctx context.Context, engine Sweeper, interval time.Duration, clk clock.Clock, log *logger.Logger) *SweepWorker {
	return &SweepWorker{
		ctx:      ctx,
		engine:   engine,
		interval: interval,
		clock:    clk,
		logger:   log,
	}
}

func (w *SweepWorker) Run() {
	go func() {
		ticker := w.clock.Ticker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				if evicted := w.engine.Sweep(); evicted > 0 {
					w.logger.Info().Int("evicted", evicted).Msg("stale sessions swept")
				}
			}
		}
	}()
}
