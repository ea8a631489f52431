package platform

import (
	"net/url"
	"os"
	"strconv"
)

// EnvInjectedPort is the environment variable standing in for the
// integer the embedder injects into the UI runtime.
const EnvInjectedPort = "WEBUI_WS_PORT"

// Environment exposes the startup inputs the connection monitor resolves
// its runtime port from: the injected port and the page location.
type Environment struct {
	pageURL string
}

// NewEnvironment creates an environment whose location is the configured
// page URL. An empty URL means no location is available.
func NewEnvironment(pageURL string) *Environment {
	return &Environment{pageURL: pageURL}
}

// InjectedPort reads the embedder-injected port. The second return is
// false when nothing was injected or the value is not an integer; range
// validation is the caller's concern.
func (e *Environment) InjectedPort() (int, bool) {
	raw := os.Getenv(EnvInjectedPort)
	if raw == "" {
		return 0, false
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return port, true
}

// Location parses the page URL the shell was loaded from.
func (e *Environment) Location() (*url.URL, bool) {
	if e.pageURL == "" {
		return nil, false
	}
	u, err := url.Parse(e.pageURL)
	if err != nil {
		return nil, false
	}
	return u, true
}
