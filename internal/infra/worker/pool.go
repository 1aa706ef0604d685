package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/ports/adapter"
)

var _ adapter.BackgroundRunner = (*Pool)(nil)

type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of workers. Submit drops the task
// with ErrQueueSaturated instead of blocking the caller.
type Pool struct {
	wg       sync.WaitGroup
	inflight sync.WaitGroup
	jobs     chan Task
	quit     chan struct{}
	n        int
	log      *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	poolLog := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		jobs: make(chan Task, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  &poolLog,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("background task failed")
					}
					p.inflight.Done()
				}
			}
		}(i)
	}
}

// Stop halts the workers and releases tasks still sitting in the queue so a
// later Drain does not wait on work that will never run.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
	for {
		select {
		case task := <-p.jobs:
			if task != nil {
				p.log.Warn().Msg("queued task abandoned at shutdown")
				p.inflight.Done()
			}
		default:
			return
		}
	}
}

// Drain blocks until every accepted task has finished. Tests use it to make
// background work deterministic.
func (p *Pool) Drain() {
	p.inflight.Wait()
}

func (p *Pool) Submit(task func(ctx context.Context) error) error {
	if task == nil {
		return domain.ErrInvalidArgument
	}
	p.inflight.Add(1)
	select {
	case p.jobs <- Task(task):
		return nil
	default:
		// drop when saturated to avoid back-pressure on the update path
		p.inflight.Done()
		return domain.ErrQueueSaturated
	}
}
