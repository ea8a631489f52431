package platform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/shared/codec"
)

// EventRuntimePort is the inbound notification carrying a backend port
// update.
const EventRuntimePort = "webui_runtime_port"

type portDetail struct {
	Port int `json:"port"`
}

// Signals adapts the gateway's optional capabilities and the broadcast
// channel into the connection monitor's signal surface. Network
// online/offline transitions come from the embedder through the Fire
// methods.
type Signals struct {
	gateway bridge.Gateway
	bus     *Broadcaster
	log     *logging.Logger

	mu      sync.Mutex
	online  []func()
	offline []func()
}

// NewSignals wires a signal surface over the given gateway and
// broadcaster. Either may be nil; the corresponding signals simply never
// fire.
func NewSignals(gateway bridge.Gateway, bus *Broadcaster, log *logging.Logger) *Signals {
	if log == nil {
		log = logging.NewNop()
	}
	return &Signals{
		gateway: gateway,
		bus:     bus,
		log:     log.Component("platform"),
	}
}

// OnOnline registers a handler for the embedder's network-online signal.
func (s *Signals) OnOnline(fn func()) {
	s.mu.Lock()
	s.online = append(s.online, fn)
	s.mu.Unlock()
}

// OnOffline registers a handler for the embedder's network-offline
// signal.
func (s *Signals) OnOffline(fn func()) {
	s.mu.Lock()
	s.offline = append(s.offline, fn)
	s.mu.Unlock()
}

// OnBridgeEvent attaches fn to the gateway's connection event callback.
// A gateway without an event mechanism is not an error; the handler just
// never fires. A failing registration is reported to the caller.
func (s *Signals) OnBridgeEvent(fn func(connected bool)) error {
	source, ok := s.gateway.(bridge.EventSource)
	if !ok {
		return nil
	}
	return source.SetEventCallback(func(ev bridge.Event) {
		fn(ev == bridge.EventConnected)
	})
}

// OnPortUpdate subscribes fn to runtime port notifications from the
// backend. Broadcasts with an unreadable detail are dropped with a
// warning.
func (s *Signals) OnPortUpdate(fn func(port int)) {
	if s.bus == nil {
		return
	}
	s.bus.Subscribe(EventRuntimePort, func(detail []byte) {
		var d portDetail
		if err := codec.Unmarshal(detail, &d); err != nil {
			s.log.Warn("Unreadable port update detail", zap.Error(err))
			return
		}
		fn(d.Port)
	})
}

// BridgeAvailable reports whether the generic bridge invocation
// primitive is present.
func (s *Signals) BridgeAvailable() bool {
	if s.gateway == nil {
		return false
	}
	_, ok := s.gateway.Invoker()
	return ok
}

// QueryReachability probes the bridge. An explicit is-connected query on
// the gateway or its invoker is preferred; without one, primitive
// presence is the answer.
func (s *Signals) QueryReachability() bool {
	if s.gateway == nil {
		return false
	}
	if prober, ok := s.gateway.(bridge.ConnectionProber); ok {
		return prober.Connected()
	}
	invoker, ok := s.gateway.Invoker()
	if !ok {
		return false
	}
	if prober, ok := invoker.(bridge.ConnectionProber); ok {
		return prober.Connected()
	}
	return true
}

// FireOnline delivers the embedder's network-online signal.
func (s *Signals) FireOnline() {
	for _, fn := range s.handlers(&s.online) {
		fn()
	}
}

// FireOffline delivers the embedder's network-offline signal.
func (s *Signals) FireOffline() {
	for _, fn := range s.handlers(&s.offline) {
		fn()
	}
}

func (s *Signals) handlers(list *[]func()) []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(), len(*list))
	copy(out, *list)
	return out
}
