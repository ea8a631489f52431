package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/deskshell/deskshell/internal/api/http"
	"github.com/deskshell/deskshell/internal/infrastructure/config"
	"github.com/deskshell/deskshell/internal/shared/types"
)

type stubConnection struct{}

func (stubConnection) Snapshot(limit int) types.ConnectionSnapshot {
	return types.ConnectionSnapshot{State: types.StateConnected}
}
func (stubConnection) HistoryCap() int { return 200 }

type stubQueue struct{}

func (stubQueue) Stats() types.QueueStats { return types.QueueStats{Capacity: 256} }

type stubWindows struct{}

func (stubWindows) Windows() []types.WindowSnapshot { return nil }
func (stubWindows) Stats() types.WindowStats        { return types.WindowStats{} }

func newTestServer(cfg *config.Config) *Server {
	handlers := apihttp.NewHandlers(stubConnection{}, stubQueue{}, stubWindows{}, nil, nil)
	return New(cfg, handlers, nil, nil)
}

func TestRoutesWired(t *testing.T) {
	srv := newTestServer(config.Default())

	for _, path := range []string{
		"/",
		"/health",
		"/diagnostics",
		"/diagnostics/history",
		"/diagnostics/export",
		"/metrics",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitRejectsBursts(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 2
	srv := newTestServer(cfg)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		srv.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 1
	srv := newTestServer(cfg)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		srv.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = "0"
	srv := newTestServer(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}
