package loopback

import (
	"fmt"
	"sync"

	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
)

// Gateway is the in-process backend surface: a named function table plus
// a generic invoker over the same table. It stands in for the embedded
// runtime when the shell runs self-contained, and its connectivity can
// be flipped to rehearse outages.
type Gateway struct {
	log *logging.Logger

	mu        sync.RWMutex
	bindings  map[string]bridge.Binding
	connected bool
	callback  func(bridge.Event)
}

// NewGateway creates an empty, connected gateway.
func NewGateway(log *logging.Logger) *Gateway {
	if log == nil {
		log = logging.NewNop()
	}
	return &Gateway{
		log:       log.Component("loopback"),
		bindings:  make(map[string]bridge.Binding),
		connected: true,
	}
}

// Register exposes a callable under an exact name, replacing any
// previous registration.
func (g *Gateway) Register(name string, binding bridge.Binding) {
	g.mu.Lock()
	g.bindings[name] = binding
	g.mu.Unlock()
}

// Binding implements bridge.Gateway.
func (g *Gateway) Binding(name string) (bridge.Binding, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	binding, ok := g.bindings[name]
	return binding, ok
}

// Invoker implements bridge.Gateway. The loopback table doubles as the
// generic primitive.
func (g *Gateway) Invoker() (bridge.Invoker, bool) {
	return g, true
}

// Call implements bridge.Invoker: the named handler runs off the
// caller's goroutine and settles the dispatch when it returns.
func (g *Gateway) Call(name, payload string) *bridge.Dispatch {
	d := bridge.NewDispatch(name)

	g.mu.RLock()
	binding, ok := g.bindings[name]
	connected := g.connected
	g.mu.RUnlock()

	if !connected {
		d.Complete(fmt.Errorf("loopback offline"))
		return d
	}
	if !ok {
		d.Complete(fmt.Errorf("no handler registered for %q", name))
		return d
	}

	go func() {
		d.Complete(invoke(binding, payload))
	}()
	return d
}

// Connected implements bridge.ConnectionProber.
func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// SetConnected flips the simulated link state, firing the corresponding
// connection event on an edge.
func (g *Gateway) SetConnected(connected bool) {
	g.mu.Lock()
	changed := g.connected != connected
	g.connected = connected
	callback := g.callback
	g.mu.Unlock()

	if !changed || callback == nil {
		return
	}
	if connected {
		callback(bridge.EventConnected)
	} else {
		callback(bridge.EventDisconnected)
	}
}

// SetEventCallback implements bridge.EventSource.
func (g *Gateway) SetEventCallback(fn func(bridge.Event)) error {
	g.mu.Lock()
	g.callback = fn
	g.mu.Unlock()
	return nil
}

func invoke(binding bridge.Binding, payload string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return binding(payload)
}
