package connection

import (
	"net/url"
	"strconv"

	"github.com/deskshell/deskshell/internal/shared/types"
)

// Environment exposes the two places a runtime port can be discovered at
// startup: a value injected into the runtime environment, and the page
// location the shell was loaded from.
type Environment interface {
	InjectedPort() (int, bool)
	Location() (*url.URL, bool)
}

// ResolvePort determines the backend port once at startup. An injected
// value in the valid port range wins; otherwise a numeric ws_port query
// parameter on the page location; otherwise the port is unknown. The
// source is recorded alongside the value for diagnostics.
func ResolvePort(env Environment) types.RuntimePort {
	if env == nil {
		return types.RuntimePort{Source: types.PortSourceUnknown}
	}

	if port, ok := env.InjectedPort(); ok && validPort(port) {
		return types.RuntimePort{Port: port, Source: types.PortSourceInjected}
	}

	if loc, ok := env.Location(); ok && loc != nil {
		if raw := loc.Query().Get("ws_port"); raw != "" {
			if port, err := strconv.Atoi(raw); err == nil && validPort(port) {
				return types.RuntimePort{Port: port, Source: types.PortSourceLocation}
			}
		}
	}

	return types.RuntimePort{Source: types.PortSourceUnknown}
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}
