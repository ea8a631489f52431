package diagnostics

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
)

// Hub fans refresh ticks out to diagnostics stream subscribers. Producers
// signal it on every accepted state transition, heartbeat, port update,
// and dispatch bookkeeping change; subscribers re-read the snapshot when
// a tick arrives. Notify never blocks: each subscriber holds a buffer of
// one, so ticks coalesce while a consumer is slow.
type Hub struct {
	log *logging.Logger

	mu   sync.RWMutex
	subs map[string]chan struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		log:  log.Component("diagnostics"),
		subs: make(map[string]chan struct{}),
	}
}

// Subscribe registers a consumer and returns its token, tick channel, and
// cancel function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (string, <-chan struct{}, func()) {
	token := uuid.NewString()
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[token] = ch
	h.mu.Unlock()

	h.log.Debug("Diagnostics subscriber added", zap.String("token", token))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, token)
			close(ch)
			h.mu.Unlock()
			h.log.Debug("Diagnostics subscriber removed", zap.String("token", token))
		})
	}
	return token, ch, cancel
}

// Notify wakes every subscriber without blocking. A tick already pending
// for a subscriber is enough; extra ones are dropped.
func (h *Hub) Notify() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports the current consumer count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
