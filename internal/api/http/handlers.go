package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/shared/codec"
	"github.com/deskshell/deskshell/internal/shared/types"
)

const keepaliveInterval = 15 * time.Second

// ConnectionSource supplies connection monitor snapshots.
type ConnectionSource interface {
	Snapshot(limit int) types.ConnectionSnapshot
	HistoryCap() int
}

// QueueSource supplies lifecycle queue statistics.
type QueueSource interface {
	Stats() types.QueueStats
}

// WindowSource supplies window registry state.
type WindowSource interface {
	Windows() []types.WindowSnapshot
	Stats() types.WindowStats
}

// Streamer delivers refresh ticks for the live diagnostics stream.
type Streamer interface {
	Subscribe() (string, <-chan struct{}, func())
}

// Handlers serves the diagnostics surface.
type Handlers struct {
	connection ConnectionSource
	queue      QueueSource
	windows    WindowSource
	stream     Streamer
	log        *logging.Logger
	started    time.Time
}

// NewHandlers creates handlers over the given state sources.
func NewHandlers(conn ConnectionSource, queue QueueSource, windows WindowSource, stream Streamer, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		connection: conn,
		queue:      queue,
		windows:    windows,
		stream:     stream,
		log:        log.Component("api"),
		started:    time.Now(),
	}
}

// Document is one full diagnostics read.
type Document struct {
	Timestamp  string                   `json:"timestamp"`
	UptimeSecs int64                    `json:"uptime_seconds"`
	Connection types.ConnectionSnapshot `json:"connection"`
	Queue      types.QueueStats         `json:"queue"`
	Windows    WindowSection            `json:"windows"`
}

// WindowSection carries registry stats plus the per-window records.
type WindowSection struct {
	types.WindowStats
	List []types.WindowSnapshot `json:"list"`
}

func (h *Handlers) document(historyLimit int) Document {
	return Document{
		Timestamp:  codec.Now(),
		UptimeSecs: int64(time.Since(h.started).Seconds()),
		Connection: h.connection.Snapshot(historyLimit),
		Queue:      h.queue.Stats(),
		Windows: WindowSection{
			WindowStats: h.windows.Stats(),
			List:        h.windows.Windows(),
		},
	}
}

// Root handles service identification
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "deskshell",
		"version": "0.3.0",
	})
}

// Health handles the liveness check
func (h *Handlers) Health(c *gin.Context) {
	snap := h.connection.Snapshot(0)
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"connection": gin.H{
			"state":     snap.State,
			"connected": snap.State == types.StateConnected,
		},
		"queue":   h.queue.Stats(),
		"windows": h.windows.Stats(),
	})
}

// Diagnostics returns the current snapshot with the recent history slice.
func (h *Handlers) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, h.document(0))
}

// History returns transition records. The limit query parameter bounds
// the tail; absent or zero means the recent slice, anything at or above
// the cap means everything retained.
func (h *Handlers) History(c *gin.Context) {
	raw := c.DefaultQuery("limit", "0")
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	snap := h.connection.Snapshot(limit)
	c.JSON(http.StatusOK, gin.H{
		"history": snap.History,
		"count":   len(snap.History),
		"state":   snap.State,
	})
}

// Export streams the full diagnostics document, gzip-compressed, with
// the complete bounded history. Meant for attaching to bug reports.
func (h *Handlers) Export(c *gin.Context) {
	doc := h.document(h.connection.HistoryCap())

	data, err := codec.Marshal(doc)
	if err != nil {
		h.log.Error("Diagnostics export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := "deskshell-diagnostics-" + time.Now().UTC().Format("20060102T150405Z") + ".json.gz"
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	gz := gzip.NewWriter(c.Writer)
	if _, err := gz.Write(data); err != nil {
		h.log.Warn("Diagnostics export write failed", zap.Error(err))
		return
	}
	if err := gz.Close(); err != nil {
		h.log.Warn("Diagnostics export close failed", zap.Error(err))
	}
}

// Stream serves the live diagnostics feed over SSE. Each refresh tick
// re-reads the snapshot; ticks coalesce while the client is slow, so the
// client always converges on current state rather than a backlog.
func (h *Handlers) Stream(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "streaming disabled"})
		return
	}

	token, ticks, cancel := h.stream.Subscribe()
	defer cancel()

	h.log.Debug("Diagnostics stream opened",
		zap.String("subscriber", token),
		zap.String("client", c.ClientIP()),
	)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("diagnostics", h.document(0))
	c.Writer.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			h.log.Debug("Diagnostics stream closed", zap.String("subscriber", token))
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			c.SSEvent("diagnostics", h.document(0))
			c.Writer.Flush()
		case <-keepalive.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}
