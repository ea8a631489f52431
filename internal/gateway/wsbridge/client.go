package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/platform"
	"github.com/deskshell/deskshell/internal/shared/codec"
)

// Envelope is the wire frame in both directions: outbound calls and
// inbound events share it.
type Envelope struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

// Envelope types.
const (
	TypeCall  = "call"
	TypeEvent = "event"
)

// Inbound event names carrying connection sentinels; any other name is
// forwarded to the broadcaster as a runtime notification.
const (
	eventConnected    = "connected"
	eventDisconnected = "disconnected"
)

const (
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultReconnectInterval = 2 * time.Second
)

// Options configures a Client.
type Options struct {
	URL               string
	HandshakeTimeout  time.Duration
	ReconnectInterval time.Duration
	Logger            *logging.Logger
	Broadcaster       *platform.Broadcaster
}

// Client is the WebSocket bridge transport. It implements the generic
// invoker, the is-connected probe, and the connection event source; it
// exposes no direct callables. The primitive exists from construction,
// so bridge presence is independent of socket state, exactly like the
// runtime object it stands for.
type Client struct {
	url       string
	handshake time.Duration
	reconnect time.Duration
	log       *logging.Logger
	bus       *platform.Broadcaster

	mu       sync.Mutex
	conn     *websocket.Conn
	callback func(bridge.Event)
}

// NewClient creates a client; Connect must be called to start the
// transport.
func NewClient(opts Options) *Client {
	handshake := opts.HandshakeTimeout
	if handshake <= 0 {
		handshake = DefaultHandshakeTimeout
	}
	reconnect := opts.ReconnectInterval
	if reconnect <= 0 {
		reconnect = DefaultReconnectInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	return &Client{
		url:       opts.URL,
		handshake: handshake,
		reconnect: reconnect,
		log:       log.Component("wsbridge"),
		bus:       opts.Broadcaster,
	}
}

// Connect dials the bridge and processes inbound events, redialing with
// a fixed backoff whenever the socket drops. It blocks until the context
// is cancelled.
func (c *Client) Connect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.connectOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.log.Warn("Bridge socket lost", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) connectOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.handshake}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("Bridge socket connected", zap.String("url", c.url))
	c.fire(bridge.EventConnected)

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.fire(bridge.EventDisconnected)
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
			return ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read envelope: %w", err)
		}

		var env Envelope
		if err := codec.Unmarshal(msg, &env); err != nil {
			c.log.Warn("Invalid envelope from bridge", zap.Error(err))
			continue
		}
		if env.Type != TypeEvent {
			continue
		}

		switch env.Name {
		case eventConnected:
			c.fire(bridge.EventConnected)
		case eventDisconnected:
			c.fire(bridge.EventDisconnected)
		default:
			if c.bus != nil {
				c.bus.Dispatch(env.Name, []byte(env.Payload))
			}
		}
	}
}

// Binding implements bridge.Gateway. A remote runtime exposes no direct
// in-process callables.
func (c *Client) Binding(name string) (bridge.Binding, bool) {
	return nil, false
}

// Invoker implements bridge.Gateway.
func (c *Client) Invoker() (bridge.Invoker, bool) {
	return c, true
}

// Call implements bridge.Invoker: the payload goes out as a call
// envelope, and the dispatch settles with the write result.
func (c *Client) Call(name, payload string) *bridge.Dispatch {
	d := bridge.NewDispatch(name)
	d.Complete(c.send(Envelope{Type: TypeCall, Name: name, Payload: payload}))
	return d
}

func (c *Client) send(env Envelope) error {
	data, err := codec.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("bridge socket not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Connected implements bridge.ConnectionProber.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetEventCallback implements bridge.EventSource.
func (c *Client) SetEventCallback(fn func(bridge.Event)) error {
	c.mu.Lock()
	c.callback = fn
	c.mu.Unlock()
	return nil
}

// Close tears down the current socket, if any. The Connect loop owns
// redialing; cancel its context to stop for good.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) fire(ev bridge.Event) {
	c.mu.Lock()
	fn := c.callback
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
