//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestQueue(t *testing.T) *DeferredQueue {
	t.Helper()
	log := zerolog.Nop()
	q, err := NewDeferredQueue(&log)
	if err != nil {
		t.Fatalf("NewDeferredQueue: %v", err)
	}
	q.Start()
	t.Cleanup(func() { _ = q.Shutdown() })
	return q
}

func TestDeferredQueueSchedule(t *testing.T) {
	t.Run("runs the task once after the delay", func(t *testing.T) {
		// Arrange
		q := newTestQueue(t)
		fired := make(chan struct{})
		var runs int32

		// Act
		id, err := q.Schedule("test-job", 150*time.Millisecond, func(ctx context.Context) error {
			if atomic.AddInt32(&runs, 1) == 1 {
				close(fired)
			}
			return nil
		})

		// Assert
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("expected a uuid job id, but got %q", id)
		}
		select {
		case <-fired:
		case <-time.After(3 * time.Second):
			t.Fatal("job did not fire")
		}
		// Give a would-be second run time to show up
		time.Sleep(300 * time.Millisecond)
		if n := atomic.LoadInt32(&runs); n != 1 {
			t.Errorf("expected exactly one run, but got %d", n)
		}
	})

	t.Run("clamps a zero delay into the future", func(t *testing.T) {
		// Arrange
		q := newTestQueue(t)
		fired := make(chan struct{})

		// Act
		_, err := q.Schedule("immediate-job", 0, func(ctx context.Context) error {
			close(fired)
			return nil
		})

		// Assert
		if err != nil {
			t.Fatalf("Schedule rejected a zero delay: %v", err)
		}
		select {
		case <-fired:
		case <-time.After(3 * time.Second):
			t.Fatal("clamped job did not fire")
		}
	})

	t.Run("a failing task does not affect other jobs", func(t *testing.T) {
		// Arrange
		q := newTestQueue(t)
		fired := make(chan struct{})

		// Act
		_, err := q.Schedule("failing-job", 100*time.Millisecond, func(ctx context.Context) error {
			return errors.New("boom")
		})
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		_, err = q.Schedule("healthy-job", 200*time.Millisecond, func(ctx context.Context) error {
			close(fired)
			return nil
		})
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		// Assert
		select {
		case <-fired:
		case <-time.After(3 * time.Second):
			t.Fatal("healthy job did not fire after a failing one")
		}
	})

	t.Run("job ids are unique per schedule call", func(t *testing.T) {
		// Arrange
		q := newTestQueue(t)

		// Act
		a, err := q.Schedule("same-name", time.Minute, func(ctx context.Context) error { return nil })
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		b, err := q.Schedule("same-name", time.Minute, func(ctx context.Context) error { return nil })
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		// Assert
		if a == b {
			t.Error("expected distinct job ids for two schedules of the same name")
		}
	})
}

func TestSweepWorkerRun(t *testing.T) {
	// Arrange
	var sweeps int32
	sweeper := sweeperFunc(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&sweeps, 1)
		return 1, nil
	})
	log := zerolog.Nop()
	w := NewSweepWorker(50*time.Millisecond, sweeper, &log)
	ctx, cancel := context.WithCancel(context.Background())

	// Act
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	time.Sleep(180 * time.Millisecond)
	cancel()
	<-done

	// Assert: the startup sweep plus at least one tick
	if n := atomic.LoadInt32(&sweeps); n < 2 {
		t.Errorf("expected at least 2 sweeps, but got %d", n)
	}
}

type sweeperFunc func(ctx context.Context) (int, error)

func (f sweeperFunc) SweepOverdue(ctx context.Context) (int, error) { return f(ctx) }
