package loopback

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/platform"
	"github.com/deskshell/deskshell/internal/shared/codec"
	"github.com/deskshell/deskshell/internal/shared/types"
)

// EventSysInfoResponse is the notification carrying the system info
// answer back to whoever asked.
const EventSysInfoResponse = "sysinfo_response"

// OpGetSystemInfo is the one non-report operation the stub answers.
const OpGetSystemInfo = "get_system_info"

// Backend is the stub process side of the bridge: it exposes the
// handlers a real backend would and logs every report it receives, so
// the shell runs end-to-end with no external process.
type Backend struct {
	log *logging.Logger
	bus *platform.Broadcaster
}

// NewBackend creates a stub backend answering notifications through the
// given broadcaster.
func NewBackend(log *logging.Logger, bus *platform.Broadcaster) *Backend {
	if log == nil {
		log = logging.NewNop()
	}
	return &Backend{log: log.Component("backend"), bus: bus}
}

// Attach registers every handler on the gateway.
func (b *Backend) Attach(g *Gateway) {
	g.Register(types.OpLogWindowLifecycle, b.handleLifecycle)
	g.Register(types.OpStateChange, b.handleStateChange)
	g.Register(types.OpErrorReport, b.handleErrorReport)
	g.Register(types.OpHeartbeat, b.handleHeartbeat)
	g.Register(OpGetSystemInfo, b.handleSystemInfo)
}

func (b *Backend) handleLifecycle(payload string) error {
	var p types.LifecyclePayload
	if err := codec.UnmarshalString(payload, &p); err != nil {
		b.log.Warn("Invalid lifecycle payload", zap.Error(err))
		return fmt.Errorf("invalid lifecycle payload: %w", err)
	}
	b.log.Info(fmt.Sprintf("Window lifecycle | event=%s window_id=%s title=%q at=%s",
		p.Event, p.WindowID, p.Title, p.Timestamp))
	return nil
}

func (b *Backend) handleStateChange(payload string) error {
	var r types.StateChangeReport
	if err := codec.UnmarshalString(payload, &r); err != nil {
		b.log.Warn("Invalid state change report", zap.Error(err))
		return fmt.Errorf("invalid state change report: %w", err)
	}
	b.log.Info(fmt.Sprintf("WS state | state=%s attempts=%d port=%d source=%s reason=%q at=%s",
		r.State, r.ReconnectAttempts, r.WSPort, r.WSPortSource, r.Reason, r.Timestamp))
	return nil
}

func (b *Backend) handleErrorReport(payload string) error {
	var r types.ErrorReport
	if err := codec.UnmarshalString(payload, &r); err != nil {
		b.log.Warn("Invalid error report", zap.Error(err))
		return fmt.Errorf("invalid error report: %w", err)
	}
	b.log.Info(fmt.Sprintf("WS frontend error | context=%s port=%d source=%s message=%q at=%s",
		r.Context, r.WSPort, r.WSPortSource, r.Message, r.Timestamp))
	return nil
}

func (b *Backend) handleHeartbeat(payload string) error {
	var r types.HeartbeatReport
	if err := codec.UnmarshalString(payload, &r); err != nil {
		b.log.Warn("Invalid heartbeat report", zap.Error(err))
		return fmt.Errorf("invalid heartbeat report: %w", err)
	}
	b.log.Debug(fmt.Sprintf("WS heartbeat | state=%s connected=%t queued=%d port=%d source=%s at=%s",
		r.State, r.Connected, r.QueuedLifecycleEvents, r.WSPort, r.WSPortSource, r.Timestamp))
	return nil
}

type systemInfo struct {
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	CPUs           int    `json:"cpus"`
	TotalMemKB     uint64 `json:"total_mem_kb"`
	AvailableMemKB uint64 `json:"available_mem_kb"`
}

// handleSystemInfo answers through the notifier rather than a return
// value; the bridge is fire-and-forget in both directions.
func (b *Backend) handleSystemInfo(payload string) error {
	info := systemInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, CPUs: runtime.NumCPU()}
	info.TotalMemKB, info.AvailableMemKB = readMeminfo()

	detail, err := codec.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode system info: %w", err)
	}
	if b.bus != nil {
		b.bus.Dispatch(EventSysInfoResponse, detail)
	}
	return nil
}

// readMeminfo pulls the two totals the original backend reported. On
// platforms without /proc the values stay zero.
func readMeminfo() (total, available uint64) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			available, _ = strconv.ParseUint(fields[1], 10, 64)
		}
	}
	return total, available
}
