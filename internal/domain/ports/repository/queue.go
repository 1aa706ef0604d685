package repository

import (
	"context"
	"time"
)

// DeferredQueue runs a task once after a delay. Schedule returns the job id
// so callers can persist it next to the state the job will re-read; jobs are
// never cancelled, they re-check that state at fire time.
type DeferredQueue interface {
	Schedule(name string, delay time.Duration, task func(ctx context.Context) error) (string, error)
}
