package bridge

// Binding is a directly-callable backend entry point. It accepts one
// JSON-text argument and may panic; the resolver isolates that.
type Binding func(payload string) error

// Gateway is the injected backend surface the resolver works against.
// Implementations: the in-process loopback table, the WebSocket client,
// and the REST client. Either lookup may come back empty; early in
// startup both often do.
type Gateway interface {
	// Binding looks up a direct callable under an exact name.
	Binding(name string) (Binding, bool)
	// Invoker returns the generic asynchronous call primitive, if the
	// runtime currently exposes one.
	Invoker() (Invoker, bool)
}

// Invoker is the generic bridge call primitive. Call never blocks on the
// backend; it returns a pending Dispatch that resolves when the
// underlying transport settles.
type Invoker interface {
	Call(name, payload string) *Dispatch
}

// ConnectionProber is an optional capability of a Gateway or Invoker:
// an explicit is-connected query, preferred by the heartbeat over bare
// invoker presence.
type ConnectionProber interface {
	Connected() bool
}

// Event is a connection event sentinel pushed by the runtime.
type Event int

const (
	EventConnected Event = iota + 1
	EventDisconnected
)

// String returns the string representation of the event
func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// EventSource is an optional capability of a Gateway: runtimes that push
// connection events expose a callback registration. Registration may
// fail; the monitor treats that as its error state.
type EventSource interface {
	SetEventCallback(fn func(Event)) error
}
