package window

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/shared/codec"
	"github.com/deskshell/deskshell/internal/shared/id"
	"github.com/deskshell/deskshell/internal/shared/types"
)

const (
	// DefaultFocusDebounce delays the active emission so refocus churn
	// during window manager animations collapses to one event.
	DefaultFocusDebounce = 120 * time.Millisecond
	// DefaultDedupeWindow suppresses an identical (window, event) pair
	// repeated inside it.
	DefaultDedupeWindow = 250 * time.Millisecond
	// restoreSettleDelay is one display frame; the deferred focus after
	// a restore waits this long for the restore animation to begin.
	restoreSettleDelay = 16 * time.Millisecond
)

// ErrShutdown is returned by Open once the registry has been torn down.
var ErrShutdown = errors.New("window registry is shut down")

// Sink receives lifecycle payloads for eventual delivery. Implemented by
// the lifecycle queue.
type Sink interface {
	Enqueue(p types.LifecyclePayload)
}

// Options configures a Registry.
type Options struct {
	FocusDebounce time.Duration
	DedupeWindow  time.Duration
	Logger        *logging.Logger
	Metrics       *monitoring.Metrics
}

type record struct {
	id        string
	title     string
	minimized bool
	maximized bool
	active    bool
	frame     Frame
}

type emitStamp struct {
	event types.LifecycleEvent
	at    time.Time
}

// Registry is the single source of truth for open windows and their
// visual state. External callbacks mutate records only through the
// registry's own transition handlers; at most one record is active at a
// time.
type Registry struct {
	factory Factory
	sink    Sink
	log     *logging.Logger
	metrics *monitoring.Metrics

	focusDebounce time.Duration
	dedupeWindow  time.Duration

	mu       sync.Mutex
	records  []*record
	debounce map[string]*time.Timer
	deferred map[string]*time.Timer
	lastEmit map[string]emitStamp
	shutdown bool
}

// NewRegistry creates a registry building windows through the given
// factory and emitting lifecycle payloads into the given sink.
func NewRegistry(factory Factory, sink Sink, opts Options) *Registry {
	focusDebounce := opts.FocusDebounce
	if focusDebounce <= 0 {
		focusDebounce = DefaultFocusDebounce
	}
	dedupeWindow := opts.DedupeWindow
	if dedupeWindow <= 0 {
		dedupeWindow = DefaultDedupeWindow
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	return &Registry{
		factory:       factory,
		sink:          sink,
		log:           log.Component("window"),
		metrics:       opts.Metrics,
		focusDebounce: focusDebounce,
		dedupeWindow:  dedupeWindow,
		debounce:      make(map[string]*time.Timer),
		deferred:      make(map[string]*time.Timer),
		lastEmit:      make(map[string]emitStamp),
	}
}

// Open creates a window, or refocuses an existing one when the title is
// already taken. The reuse path restores a minimized match, never
// creates a second record, and never emits a second opened event. The
// new window's id is returned either way.
func (r *Registry) Open(title string, content ContentBuilder, placement Placement) (string, error) {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return "", ErrShutdown
	}
	if rec := r.findByTitleLocked(title); rec != nil {
		existing := rec.id
		r.mu.Unlock()
		r.log.Debug("Window title reused", zap.String("window_id", existing), zap.String("title", title))
		r.Focus(existing)
		return existing, nil
	}
	r.mu.Unlock()

	wid := id.NewWindowID().String()
	frame, err := r.factory.Build(title, content, placement, Hooks{
		OnMinimize: func() { r.handleMinimize(wid) },
		OnRestore:  func() { r.handleRestore(wid) },
		OnMaximize: func() { r.handleMaximize(wid) },
		OnFocus:    func() { r.handleFocus(wid) },
		OnBlur:     func() { r.handleBlur(wid) },
		OnClose:    func() { r.handleClose(wid) },
	})
	if err != nil {
		return "", fmt.Errorf("build window %q: %w", title, err)
	}

	// The record is marked active before the window manager confirms
	// focus. A construction that fails to focus asynchronously leaves a
	// record active with no focused window; accepted limitation.
	r.mu.Lock()
	for _, other := range r.records {
		other.active = false
	}
	r.records = append(r.records, &record{id: wid, title: title, active: true, frame: frame})
	open := len(r.records)
	r.mu.Unlock()

	r.metrics.SetWindowsOpen(open)
	r.log.Info("Window opened", zap.String("window_id", wid), zap.String("title", title))
	r.emit(wid, title, types.EventOpened)
	r.scheduleFocusEmit(wid)
	return wid, nil
}

// Focus activates a window. A minimized window is restored first with
// the focus call deferred a tick, tolerating asynchronous restore
// animations in the window manager.
func (r *Registry) Focus(windowID string) {
	r.mu.Lock()
	rec := r.findLocked(windowID)
	if rec == nil || r.shutdown {
		r.mu.Unlock()
		return
	}
	minimized := rec.minimized
	frame := rec.frame
	r.mu.Unlock()

	if minimized {
		frame.Restore()
		r.deferFocus(windowID, frame)
		return
	}
	frame.Focus()
	r.handleFocus(windowID)
}

// CloseAll tears down every window. Close callbacks echoing back from
// the frames are absorbed by the record-removal guard.
func (r *Registry) CloseAll() {
	for _, h := range r.handles() {
		h.frame.Close()
		r.handleClose(h.id)
	}
}

// HideAll minimizes every window in one batch, keeping records alive so
// a later focus restores them. Used by the home affordance.
func (r *Registry) HideAll() {
	for _, h := range r.handles() {
		h.frame.Minimize()
		r.handleMinimize(h.id)
	}
}

// Shutdown stops all pending debounce and deferred-focus timers and
// refuses further opens. Windows themselves are left to the process
// teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = true
	for wid, t := range r.debounce {
		t.Stop()
		delete(r.debounce, wid)
	}
	for wid, t := range r.deferred {
		t.Stop()
		delete(r.deferred, wid)
	}
}

type handle struct {
	id    string
	frame Frame
}

func (r *Registry) handles() []handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]handle, len(r.records))
	for i, rec := range r.records {
		out[i] = handle{id: rec.id, frame: rec.frame}
	}
	return out
}

func (r *Registry) findLocked(windowID string) *record {
	for _, rec := range r.records {
		if rec.id == windowID {
			return rec
		}
	}
	return nil
}

func (r *Registry) findByTitleLocked(title string) *record {
	for _, rec := range r.records {
		if rec.title == title {
			return rec
		}
	}
	return nil
}

func (r *Registry) handleMinimize(windowID string) {
	r.mu.Lock()
	rec := r.findLocked(windowID)
	if rec == nil {
		r.mu.Unlock()
		return
	}
	rec.minimized = true
	rec.active = false
	title := rec.title
	r.mu.Unlock()

	r.emit(windowID, title, types.EventMinimized)
}

func (r *Registry) handleRestore(windowID string) {
	r.mu.Lock()
	rec := r.findLocked(windowID)
	if rec == nil {
		r.mu.Unlock()
		return
	}
	rec.minimized = false
	rec.maximized = false
	title := rec.title
	r.mu.Unlock()

	r.emit(windowID, title, types.EventRestored)
}

// handleMaximize is a pure state change; no lifecycle event is defined
// for it.
func (r *Registry) handleMaximize(windowID string) {
	r.mu.Lock()
	if rec := r.findLocked(windowID); rec != nil {
		rec.maximized = true
		rec.minimized = false
	}
	r.mu.Unlock()
}

func (r *Registry) handleFocus(windowID string) {
	r.mu.Lock()
	rec := r.findLocked(windowID)
	if rec == nil {
		r.mu.Unlock()
		return
	}
	for _, other := range r.records {
		other.active = false
	}
	rec.active = true
	r.mu.Unlock()

	r.scheduleFocusEmit(windowID)
}

// handleBlur is a pure state change; the next focus decides who is
// active.
func (r *Registry) handleBlur(windowID string) {
	r.mu.Lock()
	if rec := r.findLocked(windowID); rec != nil {
		rec.active = false
	}
	r.mu.Unlock()
}

// handleClose removes the record, cancels its timers, and emits closed.
// A second call for the same id is a no-op, so frame callbacks echoing
// CloseAll never double-emit.
func (r *Registry) handleClose(windowID string) {
	r.mu.Lock()
	idx := -1
	for i, rec := range r.records {
		if rec.id == windowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	title := r.records[idx].title
	r.records = append(r.records[:idx], r.records[idx+1:]...)
	if t, ok := r.debounce[windowID]; ok {
		t.Stop()
		delete(r.debounce, windowID)
	}
	if t, ok := r.deferred[windowID]; ok {
		t.Stop()
		delete(r.deferred, windowID)
	}
	delete(r.lastEmit, windowID)
	open := len(r.records)
	r.mu.Unlock()

	r.metrics.SetWindowsOpen(open)
	r.log.Info("Window closed", zap.String("window_id", windowID), zap.String("title", title))
	// Closed bypasses the dedupe memory: the record removal above is
	// the only guard it needs, and the id must not linger in lastEmit.
	r.enqueue(windowID, title, types.EventClosed)
}

// scheduleFocusEmit arms the debounced active emission. A newer focus
// request for the same window resets the timer.
func (r *Registry) scheduleFocusEmit(windowID string) {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	if t, ok := r.debounce[windowID]; ok {
		t.Stop()
	}
	r.debounce[windowID] = time.AfterFunc(r.focusDebounce, func() {
		r.fireFocusEmit(windowID)
	})
	r.mu.Unlock()
}

func (r *Registry) fireFocusEmit(windowID string) {
	r.mu.Lock()
	delete(r.debounce, windowID)
	rec := r.findLocked(windowID)
	if rec == nil || r.shutdown {
		r.mu.Unlock()
		return
	}
	title := rec.title
	r.mu.Unlock()

	r.emit(windowID, title, types.EventActive)
}

// deferFocus issues the focus one display frame after a restore.
func (r *Registry) deferFocus(windowID string, frame Frame) {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	if t, ok := r.deferred[windowID]; ok {
		t.Stop()
	}
	r.deferred[windowID] = time.AfterFunc(restoreSettleDelay, func() {
		r.mu.Lock()
		delete(r.deferred, windowID)
		rec := r.findLocked(windowID)
		dead := rec == nil || r.shutdown
		r.mu.Unlock()
		if dead {
			return
		}
		frame.Focus()
		r.handleFocus(windowID)
	})
	r.mu.Unlock()
}

// emit enqueues a lifecycle payload unless the identical (window, event)
// pair was emitted inside the dedupe window. Only the last emission per
// window is remembered; a different event in between resets the memory.
func (r *Registry) emit(windowID, title string, event types.LifecycleEvent) {
	now := time.Now()
	r.mu.Lock()
	last, seen := r.lastEmit[windowID]
	if seen && last.event == event && now.Sub(last.at) < r.dedupeWindow {
		r.mu.Unlock()
		r.log.Debug("Lifecycle event suppressed",
			zap.String("window_id", windowID),
			zap.String("event", string(event)))
		return
	}
	r.lastEmit[windowID] = emitStamp{event: event, at: now}
	r.mu.Unlock()

	r.enqueue(windowID, title, event)
}

func (r *Registry) enqueue(windowID, title string, event types.LifecycleEvent) {
	r.metrics.RecordWindowEvent(event)
	if r.sink != nil {
		r.sink.Enqueue(types.LifecyclePayload{
			Event:     event,
			WindowID:  windowID,
			Title:     title,
			Timestamp: codec.Now(),
		})
	}
}

// Windows returns a snapshot of every record in open order.
func (r *Registry) Windows() []types.WindowSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.WindowSnapshot, len(r.records))
	for i, rec := range r.records {
		out[i] = types.WindowSnapshot{
			ID:        rec.id,
			Title:     rec.title,
			Minimized: rec.minimized,
			Maximized: rec.maximized,
			Active:    rec.active,
		}
	}
	return out
}

// Stats summarizes the registry for diagnostics.
func (r *Registry) Stats() types.WindowStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := types.WindowStats{Open: len(r.records)}
	for _, rec := range r.records {
		if rec.minimized {
			stats.Minimized++
		}
		if rec.active {
			activeID := rec.id
			stats.ActiveID = &activeID
		}
	}
	return stats
}

// Len returns the number of open windows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
