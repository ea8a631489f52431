package types

// LifecycleEvent identifies a window visual-state change
type LifecycleEvent string

const (
	EventOpened    LifecycleEvent = "opened"
	EventFocused   LifecycleEvent = "focused"
	EventActive    LifecycleEvent = "active"
	EventMinimized LifecycleEvent = "minimized"
	EventRestored  LifecycleEvent = "restored"
	EventClosed    LifecycleEvent = "closed"
)

// LifecyclePayload is one window lifecycle notification. Immutable once
// created; produced by the window registry, consumed by the event queue.
type LifecyclePayload struct {
	Event     LifecycleEvent `json:"event"`
	WindowID  string         `json:"window_id"`
	Title     string         `json:"title"`
	Timestamp string         `json:"timestamp"`
}

// QueueStats describes the lifecycle queue for diagnostics
type QueueStats struct {
	Depth     int    `json:"depth"`
	Capacity  int    `json:"capacity"`
	Enqueued  uint64 `json:"enqueued"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Requeued  uint64 `json:"requeued"`
}
