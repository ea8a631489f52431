package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "loopback", cfg.Bridge.Mode)
	assert.Equal(t, 1500*time.Millisecond, cfg.Monitor.HeartbeatInterval)
	assert.Equal(t, 200, cfg.Monitor.HistoryCap)
	assert.Equal(t, 256, cfg.Queue.Capacity)
	assert.Equal(t, time.Second, cfg.Queue.FlushInterval)
	assert.Equal(t, 120*time.Millisecond, cfg.Window.FocusDebounce)
	assert.Equal(t, 250*time.Millisecond, cfg.Window.DedupeWindow)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BRIDGE_MODE", "ws")
	t.Setenv("MONITOR_HEARTBEAT_INTERVAL", "500ms")
	t.Setenv("QUEUE_CAPACITY", "32")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws", cfg.Bridge.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.HeartbeatInterval)
	assert.Equal(t, 32, cfg.Queue.Capacity)
	// Untouched sections keep defaults
	assert.Equal(t, 200, cfg.Monitor.HistoryCap)
}

func TestDefaultBindings(t *testing.T) {
	b := DefaultBindings()

	assert.Equal(t, []string{"literal", "camel", "snake"}, b.Strategies)
	assert.Contains(t, b.Mute, "ws_heartbeat")
}

func TestLoadBindingsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	content := "strategies:\n  - snake\n  - literal\nmute:\n  - \"ws_*\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := LoadBindings(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"snake", "literal"}, b.Strategies)
	assert.Equal(t, []string{"ws_*"}, b.Mute)
}

func TestLoadBindingsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.toml")
	content := "strategies = [\"camel\"]\nmute = [\"ws_heartbeat\", \"log_*\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := LoadBindings(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"camel"}, b.Strategies)
	assert.Len(t, b.Mute, 2)
}

func TestLoadBindingsEmptyPathUsesDefaults(t *testing.T) {
	b, err := LoadBindings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBindings(), b)
}

func TestLoadBindingsUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	_, err := LoadBindings(path)
	assert.Error(t, err)
}

func TestLoadBindingsMissingStrategiesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mute:\n  - \"ws_*\"\n"), 0o644))

	b, err := LoadBindings(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBindings().Strategies, b.Strategies)
}
