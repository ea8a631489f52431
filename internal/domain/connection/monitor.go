package connection

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/shared/codec"
	"github.com/deskshell/deskshell/internal/shared/types"
)

const (
	// DefaultHeartbeatInterval is the reachability probe cadence.
	DefaultHeartbeatInterval = 1500 * time.Millisecond
	// DefaultHistoryCap bounds the transition history; oldest records
	// are evicted past it.
	DefaultHistoryCap = 200
	// DefaultRecentHistory is the slice size snapshots return when the
	// caller does not ask for more.
	DefaultRecentHistory = 6
)

// Caller pushes one report to the backend. Implemented by the bridge
// resolver; a false return means nothing was dispatched.
type Caller interface {
	Call(operation string, payload interface{}) bool
}

// Signals surfaces runtime connectivity callbacks to the monitor. The
// bridge event registration is the only one that can fail.
type Signals interface {
	OnOnline(fn func())
	OnOffline(fn func())
	OnBridgeEvent(fn func(connected bool)) error
	OnPortUpdate(fn func(port int))
	BridgeAvailable() bool
	QueryReachability() bool
}

// QueueDepth reports how many lifecycle payloads are waiting for
// delivery, for inclusion in heartbeat reports.
type QueueDepth interface {
	Len() int
}

// Notifier wakes the diagnostics surface after a state or metrics
// change. Implementations must not block.
type Notifier interface {
	Notify()
}

// Options configures a Monitor.
type Options struct {
	Environment       Environment
	Queue             QueueDepth
	Refresh           Notifier
	HeartbeatInterval time.Duration
	HistoryCap        int
	RecentHistory     int
	Logger            *logging.Logger
	Metrics           *monitoring.Metrics
}

// Monitor owns the connection state machine, its transition history, and
// the accumulated health counters. All mutation goes through the monitor;
// consumers read snapshots.
type Monitor struct {
	caller  Caller
	signals Signals
	env     Environment
	queue   QueueDepth
	refresh Notifier
	log     *logging.Logger
	metrics *monitoring.Metrics

	interval   time.Duration
	historyCap int
	recent     int

	mu              sync.Mutex
	state           types.ConnectionState
	history         []types.StateTransitionRecord
	attempts        int
	lastError       string
	lastHeartbeatAt string
	sendSuccesses   uint64
	sendFailures    uint64
	lastSuccessAt   string
	port            types.RuntimePort
	started         bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a Monitor in the initializing state. Start must be called
// to resolve the port, attach signal handlers, and begin probing.
func New(caller Caller, signals Signals, opts Options) *Monitor {
	interval := opts.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	historyCap := opts.HistoryCap
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	recent := opts.RecentHistory
	if recent <= 0 {
		recent = DefaultRecentHistory
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	return &Monitor{
		caller:     caller,
		signals:    signals,
		env:        opts.Environment,
		queue:      opts.Queue,
		refresh:    opts.Refresh,
		log:        log.Component("connection"),
		metrics:    opts.Metrics,
		interval:   interval,
		historyCap: historyCap,
		recent:     recent,
		state:      types.StateInitializing,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start resolves the runtime port, transitions out of initializing based
// on bridge presence, registers runtime signal handlers, and launches the
// heartbeat loop.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.port = ResolvePort(m.env)
	port := m.port
	m.mu.Unlock()

	m.log.Info("Runtime port resolved",
		zap.Int("ws_port", port.Port),
		zap.String("source", string(port.Source)))

	if m.signals.BridgeAvailable() {
		m.toConnected("bridge present at startup")
	} else {
		m.transition(types.StateBridgeMissing, "bridge primitive absent")
	}

	m.registerSignals()

	go m.run()
}

// Stop cancels the heartbeat loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(m.stop) })
	if started {
		<-m.done
	}
}

// registerSignals attaches the runtime connectivity handlers. A failing
// bridge event registration drives the machine to error without touching
// the reconnect counter; the heartbeat keeps probing for recovery.
func (m *Monitor) registerSignals() {
	m.signals.OnOnline(m.handleOnline)
	m.signals.OnOffline(m.handleOffline)
	m.signals.OnPortUpdate(m.handlePortUpdate)
	if err := m.signals.OnBridgeEvent(m.handleBridgeEvent); err != nil {
		m.log.Warn("Bridge event registration failed", zap.Error(err))
		m.transition(types.StateError, "event registration failed: "+err.Error())
	}
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.heartbeat()
		}
	}
}

// heartbeat probes reachability and drives edge transitions, then always
// pushes a ws_heartbeat report whether or not the probe succeeded. Report
// failures are absorbed by the resolver; a tick never raises.
func (m *Monitor) heartbeat() {
	reachable := m.signals.QueryReachability()
	now := codec.Now()

	m.mu.Lock()
	m.lastHeartbeatAt = now
	state := m.state
	m.mu.Unlock()

	if reachable {
		if state != types.StateConnected {
			m.toConnected("heartbeat probe succeeded")
		}
	} else {
		m.mu.Lock()
		m.attempts++
		attempts := m.attempts
		m.mu.Unlock()
		m.metrics.SetReconnectAttempts(attempts)
		m.transition(types.StateReconnecting, "heartbeat probe failed")
	}

	m.mu.Lock()
	state = m.state
	port := m.port
	m.mu.Unlock()

	queued := 0
	if m.queue != nil {
		queued = m.queue.Len()
	}

	m.metrics.RecordHeartbeat(reachable)
	m.push(types.OpHeartbeat, types.HeartbeatReport{
		State:                 state,
		Connected:             reachable,
		QueuedLifecycleEvents: queued,
		Timestamp:             now,
		WSPort:                port.Port,
		WSPortSource:          port.Source,
	})
	m.notifyRefresh()
}

func (m *Monitor) handleOnline() {
	m.toConnected("network online")
}

func (m *Monitor) handleOffline() {
	m.mu.Lock()
	m.attempts++
	attempts := m.attempts
	m.mu.Unlock()
	m.metrics.SetReconnectAttempts(attempts)
	m.transition(types.StateReconnecting, "network offline")
}

func (m *Monitor) handleBridgeEvent(connected bool) {
	if connected {
		m.toConnected("bridge event: connected")
		return
	}
	m.mu.Lock()
	m.attempts++
	attempts := m.attempts
	m.mu.Unlock()
	m.metrics.SetReconnectAttempts(attempts)
	m.transition(types.StateDisconnected, "bridge event: disconnected")
}

// handlePortUpdate overwrites the resolved port from an explicit backend
// notification. The source becomes injected and diagnostics refresh, but
// no state transition occurs.
func (m *Monitor) handlePortUpdate(port int) {
	m.mu.Lock()
	m.port = types.RuntimePort{Port: port, Source: types.PortSourceInjected}
	m.mu.Unlock()

	m.log.Info("Runtime port updated", zap.Int("ws_port", port))
	m.notifyRefresh()
}

// toConnected is the recovery path into connected: it resets the
// reconnect counter and clears the last error before transitioning.
func (m *Monitor) toConnected(reason string) {
	m.mu.Lock()
	m.attempts = 0
	m.lastError = ""
	m.mu.Unlock()
	m.metrics.SetReconnectAttempts(0)
	m.transition(types.StateConnected, reason)
}

// transition applies a state change. Same-state transitions are rejected
// regardless of reason, so the history never carries consecutive
// duplicates. An accepted transition appends to the bounded history,
// pushes a ws_state_change report, and wakes the diagnostics surface;
// the push and the wake cannot block each other.
func (m *Monitor) transition(next types.ConnectionState, reason string) {
	m.mu.Lock()
	if m.state == next {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = next
	record := types.StateTransitionRecord{
		State:  next,
		At:     codec.Now(),
		Reason: reason,
	}
	m.history = append(m.history, record)
	if len(m.history) > m.historyCap {
		m.history = append(m.history[:0], m.history[len(m.history)-m.historyCap:]...)
	}
	attempts := m.attempts
	port := m.port
	m.mu.Unlock()

	m.log.Info("Connection state changed",
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("reason", reason),
		zap.Int("reconnect_attempts", attempts))
	m.metrics.RecordTransition(next)

	m.push(types.OpStateChange, types.StateChangeReport{
		State:             next,
		Reason:            reason,
		Timestamp:         record.At,
		ReconnectAttempts: attempts,
		WSPort:            port.Port,
		WSPortSource:      port.Source,
	})
	m.notifyRefresh()
}

// ReportError forwards a caught frontend error to the backend with the
// resolved port attached for correlation.
func (m *Monitor) ReportError(context, message, stack string) {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()

	m.metrics.RecordErrorReport()
	m.push(types.OpErrorReport, types.ErrorReport{
		Context:      context,
		Message:      message,
		Stack:        stack,
		Timestamp:    codec.Now(),
		WSPort:       port.Port,
		WSPortSource: port.Source,
	})
}

// RecordDispatchSuccess implements the resolver's dispatch recorder.
func (m *Monitor) RecordDispatchSuccess(operation string) {
	m.mu.Lock()
	m.sendSuccesses++
	m.lastSuccessAt = codec.Now()
	m.mu.Unlock()
	m.notifyRefresh()
}

// RecordDispatchFailure implements the resolver's dispatch recorder. The
// failure is kept as the last error until the next connected transition.
func (m *Monitor) RecordDispatchFailure(operation string, err error) {
	m.mu.Lock()
	m.sendFailures++
	if err != nil {
		m.lastError = operation + ": " + err.Error()
	}
	m.mu.Unlock()
	m.notifyRefresh()
}

// push dispatches a report through the resolver. The resolver absorbs
// every failure mode, so pushing never raises. Must not be called with
// the monitor lock held: the resolver reports the outcome back through
// the dispatch recorder, which takes the lock again.
func (m *Monitor) push(operation string, payload interface{}) {
	if m.caller == nil {
		return
	}
	m.caller.Call(operation, payload)
}

func (m *Monitor) notifyRefresh() {
	if m.refresh == nil {
		return
	}
	m.refresh.Notify()
}

// State returns the current connection state.
func (m *Monitor) State() types.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Port returns the resolved runtime port.
func (m *Monitor) Port() types.RuntimePort {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

// HistoryCap returns the bounded history size.
func (m *Monitor) HistoryCap() int {
	return m.historyCap
}

// Snapshot captures state, port, metrics, and the most recent transition
// records. A limit of zero or less falls back to the configured recent
// size; passing the history cap returns the full bounded history.
func (m *Monitor) Snapshot(limit int) types.ConnectionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = m.recent
	}
	start := len(m.history) - limit
	if start < 0 {
		start = 0
	}
	history := make([]types.StateTransitionRecord, len(m.history)-start)
	copy(history, m.history[start:])

	return types.ConnectionSnapshot{
		State:       m.state,
		RuntimePort: m.port,
		Metrics: types.ConnectionMetrics{
			ReconnectAttempts: m.attempts,
			LastError:         m.lastError,
			LastHeartbeatAt:   m.lastHeartbeatAt,
			SendSuccesses:     m.sendSuccesses,
			SendFailures:      m.sendFailures,
			LastSuccessAt:     m.lastSuccessAt,
		},
		History: history,
	}
}
