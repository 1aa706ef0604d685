package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is the minimal interface the worker needs from the lifecycle
// use case.
type Sweeper interface {
	// SweepOverdue deletes recorded messages whose deadline has passed.
	SweepOverdue(ctx context.Context) (int, error)
}

// SweepWorker periodically clears overdue ephemeral messages. The deferred
// queue handles the common case; the sweep catches deadlines that passed
// while the process was down.
type SweepWorker struct {
	interval time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, sweeper Sweeper, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	swLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		sweeper:  sweeper,
		log:      &swLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting sweep worker")
	// Run once on startup, then on every tick
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SweepWorker) runSweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := w.sweeper.SweepOverdue(runCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("overdue sweep failed")
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("overdue messages cleared")
	}
}
