package sched

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"telegram-group-warden/internal/domain/ports/repository"
	"telegram-group-warden/internal/infra/metrics"
)

var _ repository.DeferredQueue = (*DeferredQueue)(nil)

const (
	// minSchedulingDelay keeps the start time in the future; the scheduler
	// rejects one-time jobs scheduled in the past.
	minSchedulingDelay = 100 * time.Millisecond
	taskTimeout        = 30 * time.Second
)

// DeferredQueue runs tasks once after a delay on an in-process scheduler.
// Jobs are fire-and-forget: callers persist the returned job id next to the
// state the task will re-read, and the task decides at fire time whether
// there is still anything to do.
type DeferredQueue struct {
	sched gocron.Scheduler
	log   *zerolog.Logger
}

func NewDeferredQueue(logger *zerolog.Logger) (*DeferredQueue, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	qLog := logger.With().Str("component", "DeferredQueue").Logger()
	return &DeferredQueue{sched: s, log: &qLog}, nil
}

// Start begins executing scheduled jobs.
func (q *DeferredQueue) Start() { q.sched.Start() }

// Shutdown stops the scheduler and waits for running jobs to finish.
func (q *DeferredQueue) Shutdown() error { return q.sched.Shutdown() }

func (q *DeferredQueue) Schedule(name string, delay time.Duration, task func(ctx context.Context) error) (string, error) {
	if delay < minSchedulingDelay {
		delay = minSchedulingDelay
	}
	at := time.Now().Add(delay)

	j, err := q.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
			defer cancel()
			if err := task(ctx); err != nil {
				metrics.IncDeferredJobRun(name, "failed")
				q.log.Error().Err(err).Str("job", name).Msg("deferred job failed")
				return
			}
			metrics.IncDeferredJobRun(name, "completed")
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return "", err
	}

	metrics.IncScheduledJob(name)
	q.log.Debug().Str("job", name).Time("fire_at", at).Msg("deferred job scheduled")
	return j.ID().String(), nil
}
