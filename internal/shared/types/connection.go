package types

// ConnectionState represents bridge connection lifecycle states
type ConnectionState string

const (
	StateInitializing  ConnectionState = "initializing"
	StateConnected     ConnectionState = "connected"
	StateDisconnected  ConnectionState = "disconnected"
	StateReconnecting  ConnectionState = "reconnecting"
	StateBridgeMissing ConnectionState = "bridge_missing"
	StateError         ConnectionState = "error"
)

// Online reports whether the bridge is usable in this state
func (s ConnectionState) Online() bool {
	return s == StateConnected
}

// Degraded reports whether the state indicates a reachability problem
func (s ConnectionState) Degraded() bool {
	switch s {
	case StateDisconnected, StateReconnecting, StateBridgeMissing, StateError:
		return true
	}
	return false
}

// Valid reports whether s is one of the defined states
func (s ConnectionState) Valid() bool {
	switch s {
	case StateInitializing, StateConnected, StateDisconnected,
		StateReconnecting, StateBridgeMissing, StateError:
		return true
	}
	return false
}

// PortSource records where the runtime port value came from
type PortSource string

const (
	PortSourceInjected PortSource = "injected"
	PortSourceLocation PortSource = "location"
	PortSourceUnknown  PortSource = "unknown"
)

// RuntimePort is the backend port resolved once at startup. A later
// explicit port-update notification from the backend may overwrite it.
type RuntimePort struct {
	Port   int        `json:"ws_port"`
	Source PortSource `json:"ws_port_source"`
}

// StateTransitionRecord is one accepted state machine transition
type StateTransitionRecord struct {
	State  ConnectionState `json:"state"`
	At     string          `json:"at"`
	Reason string          `json:"reason,omitempty"`
}

// ConnectionMetrics accumulates bridge health counters. Owned exclusively
// by the connection monitor; consumers only ever see copies.
type ConnectionMetrics struct {
	ReconnectAttempts int    `json:"reconnect_attempts"`
	LastError         string `json:"last_error,omitempty"`
	LastHeartbeatAt   string `json:"last_heartbeat_at,omitempty"`
	SendSuccesses     uint64 `json:"send_successes"`
	SendFailures      uint64 `json:"send_failures"`
	LastSuccessAt     string `json:"last_success_at,omitempty"`
}

// ConnectionSnapshot is a point-in-time copy of the monitor's state for
// the diagnostics surface. History holds only the most recent records;
// the full bounded history is available on request.
type ConnectionSnapshot struct {
	State ConnectionState `json:"state"`
	RuntimePort
	Metrics ConnectionMetrics       `json:"metrics"`
	History []StateTransitionRecord `json:"history"`
}
