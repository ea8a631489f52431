package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskshell/deskshell/internal/shared/codec"
	"github.com/deskshell/deskshell/internal/shared/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeConnection struct {
	snap types.ConnectionSnapshot
	cap  int

	lastLimit int
}

func (f *fakeConnection) Snapshot(limit int) types.ConnectionSnapshot {
	f.lastLimit = limit
	snap := f.snap
	if limit > 0 && limit < len(snap.History) {
		snap.History = snap.History[len(snap.History)-limit:]
	}
	return snap
}

func (f *fakeConnection) HistoryCap() int { return f.cap }

type fakeQueue struct{ stats types.QueueStats }

func (f *fakeQueue) Stats() types.QueueStats { return f.stats }

type fakeWindows struct {
	list  []types.WindowSnapshot
	stats types.WindowStats
}

func (f *fakeWindows) Windows() []types.WindowSnapshot { return f.list }
func (f *fakeWindows) Stats() types.WindowStats        { return f.stats }

type fakeStream struct {
	ch chan struct{}
}

func (f *fakeStream) Subscribe() (string, <-chan struct{}, func()) {
	return "sub-1", f.ch, func() {}
}

func testState() (*fakeConnection, *fakeQueue, *fakeWindows) {
	conn := &fakeConnection{
		cap: 200,
		snap: types.ConnectionSnapshot{
			State:       types.StateConnected,
			RuntimePort: types.RuntimePort{Port: 9220, Source: types.PortSourceInjected},
			Metrics:     types.ConnectionMetrics{ReconnectAttempts: 2},
			History: []types.StateTransitionRecord{
				{State: types.StateConnected, At: codec.Now(), Reason: "bridge present at startup"},
				{State: types.StateReconnecting, At: codec.Now(), Reason: "heartbeat probe failed"},
				{State: types.StateConnected, At: codec.Now(), Reason: "heartbeat probe succeeded"},
			},
		},
	}
	queue := &fakeQueue{stats: types.QueueStats{Depth: 1, Capacity: 256, Enqueued: 7, Delivered: 6}}
	active := "win-a"
	windows := &fakeWindows{
		list: []types.WindowSnapshot{
			{ID: "win-a", Title: "Calculator", Active: true},
			{ID: "win-b", Title: "Notes", Minimized: true},
		},
		stats: types.WindowStats{Open: 2, Minimized: 1, ActiveID: &active},
	}
	return conn, queue, windows
}

func newTestRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/diagnostics", h.Diagnostics)
	r.GET("/diagnostics/history", h.History)
	r.GET("/diagnostics/export", h.Export)
	r.GET("/diagnostics/stream", h.Stream)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	w := get(t, r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deskshell"`)

	w = get(t, r, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, codec.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	connection := body["connection"].(map[string]interface{})
	assert.Equal(t, "connected", connection["state"])
	assert.Equal(t, true, connection["connected"])
}

func TestDiagnosticsDocument(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	w := get(t, r, "/diagnostics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, conn.lastLimit, "default read uses the recent slice")

	var doc Document
	require.NoError(t, codec.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, types.StateConnected, doc.Connection.State)
	assert.Equal(t, 9220, doc.Connection.Port)
	assert.Equal(t, types.PortSourceInjected, doc.Connection.Source)
	assert.Equal(t, 1, doc.Queue.Depth)
	assert.Equal(t, 2, doc.Windows.Open)
	assert.Len(t, doc.Windows.List, 2)
	assert.NotEmpty(t, doc.Timestamp)
}

func TestHistoryLimit(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	w := get(t, r, "/diagnostics/history?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, conn.lastLimit)

	var body struct {
		History []types.StateTransitionRecord `json:"history"`
		Count   int                           `json:"count"`
	}
	require.NoError(t, codec.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.History, 2)
	assert.Equal(t, types.StateReconnecting, body.History[0].State)
	assert.Equal(t, types.StateConnected, body.History[1].State)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	for _, raw := range []string{"abc", "-1", "1.5"} {
		w := get(t, r, "/diagnostics/history?limit="+raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", raw)
	}
}

func TestExportIsGzippedFullHistory(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	w := get(t, r, "/diagnostics/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "deskshell-diagnostics-")
	assert.Equal(t, conn.cap, conn.lastLimit, "export reads the full bounded history")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, codec.Unmarshal(raw, &doc))
	assert.Len(t, doc.Connection.History, 3)
}

func TestStreamSendsSnapshotThenTicks(t *testing.T) {
	conn, queue, windows := testState()
	stream := &fakeStream{ch: make(chan struct{}, 1)}
	h := NewHandlers(conn, queue, windows, stream, nil)
	r := newTestRouter(h)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/diagnostics/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return strings.Join(lines, "\n")
			}
			lines = append(lines, line)
		}
	}

	first := readEvent()
	assert.Contains(t, first, "event:diagnostics")
	assert.Contains(t, first, `"connected"`)

	stream.ch <- struct{}{}
	second := readEvent()
	assert.Contains(t, second, "event:diagnostics")
}

func TestStreamDisabledWithoutHub(t *testing.T) {
	conn, queue, windows := testState()
	h := NewHandlers(conn, queue, windows, nil, nil)
	r := newTestRouter(h)

	w := get(t, r, "/diagnostics/stream")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
