package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Bindings configures how logical operation names are resolved and which
// operations are muted in per-dispatch debug logs. Loaded from a small
// .yaml or .toml file so backend naming drift can be handled without a
// rebuild.
type Bindings struct {
	// Strategies is the ordered list of name-spelling strategies the
	// resolver tries: "literal", "camel", "snake".
	Strategies []string `yaml:"strategies" toml:"strategies" json:"strategies"`
	// Mute holds glob patterns (doublestar syntax) of operation names
	// whose dispatches are not debug-logged. Metrics always record.
	Mute []string `yaml:"mute" toml:"mute" json:"mute"`
}

// DefaultBindings returns the resolution order the backend ships with.
func DefaultBindings() Bindings {
	return Bindings{
		Strategies: []string{"literal", "camel", "snake"},
		Mute:       []string{"ws_heartbeat"},
	}
}

// LoadBindings reads a bindings file, dispatching on extension. An empty
// path yields the defaults.
func LoadBindings(path string) (Bindings, error) {
	if path == "" {
		return DefaultBindings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Bindings{}, fmt.Errorf("failed to read bindings file: %w", err)
	}

	var b Bindings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return Bindings{}, fmt.Errorf("failed to parse yaml bindings: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &b); err != nil {
			return Bindings{}, fmt.Errorf("failed to parse toml bindings: %w", err)
		}
	default:
		return Bindings{}, fmt.Errorf("unsupported bindings format: %s", filepath.Ext(path))
	}

	if len(b.Strategies) == 0 {
		b.Strategies = DefaultBindings().Strategies
	}
	return b, nil
}
