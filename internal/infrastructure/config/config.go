package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all shell configuration.
type Config struct {
	Server    ServerConfig
	Bridge    BridgeConfig
	Monitor   MonitorConfig
	Queue     QueueConfig
	Window    WindowConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the diagnostics HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"DIAG_PORT" default:"7420"`
	Host string `envconfig:"DIAG_HOST" default:"127.0.0.1"`
}

// BridgeConfig selects and configures the backend gateway.
type BridgeConfig struct {
	// Mode is one of "loopback", "ws", "rest".
	Mode    string `envconfig:"BRIDGE_MODE" default:"loopback"`
	WSURL   string `envconfig:"BRIDGE_WS_URL" default:"ws://127.0.0.1:0/bridge"`
	RESTURL string `envconfig:"BRIDGE_REST_URL" default:"http://127.0.0.1:0"`
	// PageURL is the location the webview was pointed at; its ws_port
	// query parameter is the fallback runtime port source.
	PageURL string `envconfig:"BRIDGE_PAGE_URL" default:""`
	// BindingsFile optionally reorders name strategies and sets log
	// mute patterns (.yaml or .toml).
	BindingsFile string `envconfig:"BRIDGE_BINDINGS_FILE" default:""`
}

// MonitorConfig holds connection monitor tuning.
type MonitorConfig struct {
	HeartbeatInterval time.Duration `envconfig:"MONITOR_HEARTBEAT_INTERVAL" default:"1500ms"`
	HistoryCap        int           `envconfig:"MONITOR_HISTORY_CAP" default:"200"`
	RecentHistory     int           `envconfig:"MONITOR_RECENT_HISTORY" default:"6"`
}

// QueueConfig holds lifecycle queue tuning.
type QueueConfig struct {
	Capacity      int           `envconfig:"QUEUE_CAPACITY" default:"256"`
	FlushInterval time.Duration `envconfig:"QUEUE_FLUSH_INTERVAL" default:"1s"`
}

// WindowConfig holds window registry tuning.
type WindowConfig struct {
	FocusDebounce time.Duration `envconfig:"WINDOW_FOCUS_DEBOUNCE" default:"120ms"`
	DedupeWindow  time.Duration `envconfig:"WINDOW_DEDUPE_WINDOW" default:"250ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds diagnostics endpoint rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7420",
			Host: "127.0.0.1",
		},
		Bridge: BridgeConfig{
			Mode: "loopback",
		},
		Monitor: MonitorConfig{
			HeartbeatInterval: 1500 * time.Millisecond,
			HistoryCap:        200,
			RecentHistory:     6,
		},
		Queue: QueueConfig{
			Capacity:      256,
			FlushInterval: time.Second,
		},
		Window: WindowConfig{
			FocusDebounce: 120 * time.Millisecond,
			DedupeWindow:  250 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
