package platform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/domain/window"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
)

// HeadlessFactory builds windows with no display attached. Frames echo
// every capability call back through the registry hooks synchronously,
// standing in for a real window manager in development runs and tests.
type HeadlessFactory struct {
	log *logging.Logger

	mu     sync.Mutex
	frames map[string]*HeadlessFrame
}

// NewHeadlessFactory creates an empty factory.
func NewHeadlessFactory(log *logging.Logger) *HeadlessFactory {
	if log == nil {
		log = logging.NewNop()
	}
	return &HeadlessFactory{
		log:    log.Component("headless"),
		frames: make(map[string]*HeadlessFrame),
	}
}

// Build renders the content once and returns a frame wired to the given
// hooks.
func (f *HeadlessFactory) Build(title string, content window.ContentBuilder, placement window.Placement, hooks window.Hooks) (window.Frame, error) {
	document := ""
	if content != nil {
		document = content()
	}

	frame := &HeadlessFrame{
		title:    title,
		document: document,
		hooks:    hooks,
		width:    placement.Width,
		height:   placement.Height,
		x:        placement.X,
		y:        placement.Y,
	}

	f.mu.Lock()
	f.frames[title] = frame
	f.mu.Unlock()

	f.log.Debug("Headless window built",
		zap.String("title", title),
		zap.Int("width", placement.Width),
		zap.Int("height", placement.Height))
	return frame, nil
}

// Frame returns the most recently built frame for a title, for scripted
// scenarios that drive window manager behavior by hand.
func (f *HeadlessFactory) Frame(title string) (*HeadlessFrame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	frame, ok := f.frames[title]
	return frame, ok
}

// HeadlessFrame tracks geometry and visibility without a display.
type HeadlessFrame struct {
	title    string
	document string
	hooks    window.Hooks

	mu        sync.Mutex
	width     int
	height    int
	x         int
	y         int
	minimized bool
}

func (w *HeadlessFrame) Restore() {
	w.mu.Lock()
	w.minimized = false
	w.mu.Unlock()
	if w.hooks.OnRestore != nil {
		w.hooks.OnRestore()
	}
}

func (w *HeadlessFrame) Focus() {
	if w.hooks.OnFocus != nil {
		w.hooks.OnFocus()
	}
}

func (w *HeadlessFrame) Minimize() {
	w.mu.Lock()
	w.minimized = true
	w.mu.Unlock()
	if w.hooks.OnMinimize != nil {
		w.hooks.OnMinimize()
	}
}

func (w *HeadlessFrame) Resize(width, height int) {
	w.mu.Lock()
	w.width = width
	w.height = height
	w.mu.Unlock()
}

func (w *HeadlessFrame) Move(x, y int) {
	w.mu.Lock()
	w.x = x
	w.y = y
	w.mu.Unlock()
}

func (w *HeadlessFrame) Close() {
	if w.hooks.OnClose != nil {
		w.hooks.OnClose()
	}
}

// Minimized reports the frame's own idea of its visibility.
func (w *HeadlessFrame) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

// Bounds returns the tracked geometry.
func (w *HeadlessFrame) Bounds() (x, y, width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y, w.width, w.height
}

// Document returns the rendered content.
func (w *HeadlessFrame) Document() string {
	return w.document
}
