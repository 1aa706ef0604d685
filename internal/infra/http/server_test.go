//go:build !integration

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"telegram-group-warden/internal/config"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(db, cache Pinger) *Server {
	log := zerolog.Nop()
	cfg := &config.Config{}
	cfg.Ops.Port = 8080
	return NewServer(cfg, db, cache, &log)
}

func TestHandleHealth(t *testing.T) {
	healthy := pingerFunc(func(ctx context.Context) error { return nil })
	broken := pingerFunc(func(ctx context.Context) error { return errors.New("down") })

	t.Run("reports OK when both backends answer", func(t *testing.T) {
		s := newTestServer(healthy, healthy)
		rec := httptest.NewRecorder()

		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, but got %d", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Errorf("expected OK body, but got %q", rec.Body.String())
		}
	})

	t.Run("reports unavailable when the database is down", func(t *testing.T) {
		s := newTestServer(broken, healthy)
		rec := httptest.NewRecorder()

		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, but got %d", rec.Code)
		}
	})

	t.Run("reports unavailable when redis is down", func(t *testing.T) {
		s := newTestServer(healthy, broken)
		rec := httptest.NewRecorder()

		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, but got %d", rec.Code)
		}
	})

	t.Run("skips probes that are not wired", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := httptest.NewRecorder()

		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, but got %d", rec.Code)
		}
	})
}
