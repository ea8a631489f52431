package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"log_window_lifecycle", "logWindowLifecycle"},
		{"ws_state_change", "wsStateChange"},
		{"ws_heartbeat", "wsHeartbeat"},
		{"already", "already"},
		{"alreadyCamel", "alreadyCamel"},
		{"trailing_", "trailing"},
		{"a_b_c", "aBC"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCamel(tt.in))
		})
	}
}

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"logWindowLifecycle", "log_window_lifecycle"},
		{"wsStateChange", "ws_state_change"},
		{"already_snake", "already_snake"},
		{"plain", "plain"},
		{"A", "a"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnake(tt.in))
		})
	}
}

func TestCamelSnakeRoundTrip(t *testing.T) {
	assert.Equal(t, "log_window_lifecycle", ToSnake(ToCamel("log_window_lifecycle")))
}

func TestDefaultStrategiesOrder(t *testing.T) {
	s := DefaultStrategies()

	require.Len(t, s, 3)
	assert.Equal(t, StrategyLiteral, s[0].Name)
	assert.Equal(t, StrategyCamel, s[1].Name)
	assert.Equal(t, StrategySnake, s[2].Name)
}

func TestStrategiesByName(t *testing.T) {
	s, err := StrategiesByName([]string{"snake", "literal"})
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, StrategySnake, s[0].Name)
	assert.Equal(t, StrategyLiteral, s[1].Name)
}

func TestStrategiesByNameUnknown(t *testing.T) {
	_, err := StrategiesByName([]string{"literal", "kebab"})
	assert.ErrorContains(t, err, "kebab")
}

func TestStrategiesByNameEmptyUsesDefaults(t *testing.T) {
	s, err := StrategiesByName(nil)
	require.NoError(t, err)
	assert.Len(t, s, 3)
}
