package types

// Fixed logical operation names every outbound report travels under.
const (
	OpLogWindowLifecycle = "log_window_lifecycle"
	OpStateChange        = "ws_state_change"
	OpErrorReport        = "ws_error_report"
	OpHeartbeat          = "ws_heartbeat"
)

// StateChangeReport is pushed to the backend on every accepted transition
type StateChangeReport struct {
	State             ConnectionState `json:"state"`
	Reason            string          `json:"reason"`
	Timestamp         string          `json:"timestamp"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
	WSPort            int             `json:"ws_port"`
	WSPortSource      PortSource      `json:"ws_port_source"`
}

// HeartbeatReport is pushed on every probe tick regardless of outcome
type HeartbeatReport struct {
	State                 ConnectionState `json:"state"`
	Connected             bool            `json:"connected"`
	QueuedLifecycleEvents int             `json:"queued_lifecycle_events"`
	Timestamp             string          `json:"timestamp"`
	WSPort                int             `json:"ws_port"`
	WSPortSource          PortSource      `json:"ws_port_source"`
}

// ErrorReport forwards a caught frontend error to the backend
type ErrorReport struct {
	Context      string     `json:"context"`
	Message      string     `json:"message"`
	Stack        string     `json:"stack"`
	Timestamp    string     `json:"timestamp"`
	WSPort       int        `json:"ws_port"`
	WSPortSource PortSource `json:"ws_port_source"`
}
