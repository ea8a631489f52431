package wsbridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/platform"
	"github.com/deskshell/deskshell/internal/shared/codec"
)

// bridgeServer upgrades inbound connections, records every envelope it
// reads, and lets tests push event envelopes back down the socket.
type bridgeServer struct {
	srv      *httptest.Server
	received chan Envelope

	mu   sync.Mutex
	conn *websocket.Conn
}

func newBridgeServer(t *testing.T) *bridgeServer {
	t.Helper()

	bs := &bridgeServer{received: make(chan Envelope, 16)}
	upgrader := websocket.Upgrader{}
	bs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		bs.mu.Lock()
		bs.conn = conn
		bs.mu.Unlock()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if err := codec.Unmarshal(msg, &env); err != nil {
				continue
			}
			bs.received <- env
		}
	}))
	t.Cleanup(bs.srv.Close)
	return bs
}

func (bs *bridgeServer) url() string {
	return "ws" + strings.TrimPrefix(bs.srv.URL, "http")
}

func (bs *bridgeServer) push(t *testing.T, env Envelope) {
	t.Helper()

	data, err := codec.Marshal(env)
	require.NoError(t, err)

	bs.mu.Lock()
	conn := bs.conn
	bs.mu.Unlock()
	require.NotNil(t, conn, "no client connected yet")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func (bs *bridgeServer) dropClient() {
	bs.mu.Lock()
	conn := bs.conn
	bs.conn = nil
	bs.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func startClient(t *testing.T, opts Options) *Client {
	t.Helper()

	if opts.ReconnectInterval == 0 {
		opts.ReconnectInterval = 20 * time.Millisecond
	}
	c := NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Connect(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("connect loop did not stop")
		}
	})
	return c
}

func TestCallWritesEnvelope(t *testing.T) {
	bs := newBridgeServer(t)
	c := startClient(t, Options{URL: bs.url()})

	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	d := c.Call("ws_heartbeat", `{"state":"connected"}`)
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatch did not settle")
	}
	require.NoError(t, d.Err())

	select {
	case env := <-bs.received:
		assert.Equal(t, TypeCall, env.Type)
		assert.Equal(t, "ws_heartbeat", env.Name)
		assert.Equal(t, `{"state":"connected"}`, env.Payload)
	case <-time.After(time.Second):
		t.Fatal("server never received the call envelope")
	}
}

func TestCallWhileDisconnectedFails(t *testing.T) {
	c := NewClient(Options{URL: "ws://127.0.0.1:1/bridge"})

	d := c.Call("ws_state_change", "{}")
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatch did not settle")
	}
	assert.ErrorContains(t, d.Err(), "not connected")
	assert.False(t, c.Connected())
}

func TestConnectionEdgesFireCallbacks(t *testing.T) {
	bs := newBridgeServer(t)

	events := make(chan bridge.Event, 8)
	c := NewClient(Options{URL: bs.url(), ReconnectInterval: 20 * time.Millisecond})
	require.NoError(t, c.SetEventCallback(func(ev bridge.Event) {
		events <- ev
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Connect(ctx)

	waitEvent := func(want bridge.Event) {
		t.Helper()
		select {
		case got := <-events:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	waitEvent(bridge.EventConnected)

	bs.dropClient()
	waitEvent(bridge.EventDisconnected)

	// The fixed backoff redials on its own.
	waitEvent(bridge.EventConnected)
	assert.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)
}

func TestNamedSentinelEventsMapToCallbacks(t *testing.T) {
	bs := newBridgeServer(t)

	events := make(chan bridge.Event, 8)
	c := startClient(t, Options{URL: bs.url()})
	require.NoError(t, c.SetEventCallback(func(ev bridge.Event) {
		events <- ev
	}))
	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	bs.push(t, Envelope{Type: TypeEvent, Name: "disconnected"})
	select {
	case got := <-events:
		assert.Equal(t, bridge.EventDisconnected, got)
	case <-time.After(time.Second):
		t.Fatal("sentinel event not delivered")
	}

	bs.push(t, Envelope{Type: TypeEvent, Name: "connected"})
	select {
	case got := <-events:
		assert.Equal(t, bridge.EventConnected, got)
	case <-time.After(time.Second):
		t.Fatal("sentinel event not delivered")
	}
}

func TestRuntimeNotificationsReachBroadcaster(t *testing.T) {
	bs := newBridgeServer(t)
	bus := platform.NewBroadcaster()

	details := make(chan []byte, 4)
	cancel := bus.Subscribe(platform.EventRuntimePort, func(detail []byte) {
		details <- detail
	})
	defer cancel()

	c := startClient(t, Options{URL: bs.url(), Broadcaster: bus})
	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	bs.push(t, Envelope{Type: TypeEvent, Name: platform.EventRuntimePort, Payload: `{"port":9201}`})

	select {
	case detail := <-details:
		assert.JSONEq(t, `{"port":9201}`, string(detail))
	case <-time.After(time.Second):
		t.Fatal("runtime notification never reached the broadcaster")
	}
}

func TestCallEnvelopesInboundAreIgnored(t *testing.T) {
	bs := newBridgeServer(t)
	bus := platform.NewBroadcaster()

	details := make(chan []byte, 4)
	cancel := bus.Subscribe(platform.EventRuntimePort, func(detail []byte) {
		details <- detail
	})
	defer cancel()

	c := startClient(t, Options{URL: bs.url(), Broadcaster: bus})
	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	bs.push(t, Envelope{Type: TypeCall, Name: platform.EventRuntimePort, Payload: `{"port":1}`})
	bs.push(t, Envelope{Type: TypeEvent, Name: platform.EventRuntimePort, Payload: `{"port":2}`})

	select {
	case detail := <-details:
		assert.JSONEq(t, `{"port":2}`, string(detail))
	case <-time.After(time.Second):
		t.Fatal("event envelope never arrived")
	}
	assert.Empty(t, details)
}

func TestGatewayShapeExposesNoDirectBindings(t *testing.T) {
	c := NewClient(Options{URL: "ws://127.0.0.1:1/bridge"})

	_, ok := c.Binding("ws_heartbeat")
	assert.False(t, ok)

	inv, ok := c.Invoker()
	assert.True(t, ok)
	assert.NotNil(t, inv)
}
