package platform

import "sync"

// Broadcaster is the runtime-level notification channel: broadcasts are
// addressed by name and carry an opaque detail payload. The backend uses
// it for inbound notifications like runtime port updates and domain
// responses; subscribers never block each other.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]func(detail []byte)
	next uint64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[uint64]func(detail []byte))}
}

// Subscribe registers fn for broadcasts under name and returns a cancel
// function. Cancelling twice is harmless.
func (b *Broadcaster) Subscribe(name string, fn func(detail []byte)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	token := b.next
	if b.subs[name] == nil {
		b.subs[name] = make(map[uint64]func(detail []byte))
	}
	b.subs[name][token] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.subs[name]; ok {
			delete(handlers, token)
			if len(handlers) == 0 {
				delete(b.subs, name)
			}
		}
	}
}

// Dispatch delivers detail to every current subscriber of name. Handlers
// run on the caller's goroutine; a broadcast with no subscribers is
// dropped silently.
func (b *Broadcaster) Dispatch(name string, detail []byte) {
	b.mu.RLock()
	handlers := make([]func(detail []byte), 0, len(b.subs[name]))
	for _, fn := range b.subs[name] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(detail)
	}
}
