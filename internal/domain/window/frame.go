package window

// Frame is the narrow capability handle the registry needs on a native
// window. Implemented by an adapter around the concrete windowing
// library; the registry never sees anything wider.
type Frame interface {
	Restore()
	Focus()
	Minimize()
	Resize(width, height int)
	Move(x, y int)
	Close()
}

// Hooks carries the window manager callbacks the registry wires into
// record mutations. The factory must deliver every callback the
// underlying window manager fires; unset fields are skipped.
type Hooks struct {
	OnMinimize func()
	OnRestore  func()
	OnMaximize func()
	OnFocus    func()
	OnBlur     func()
	OnClose    func()
}

// Placement is the initial geometry for a new window. Zero values let
// the window manager pick.
type Placement struct {
	Width  int
	Height int
	X      int
	Y      int
}

// ContentBuilder produces the document a new window renders. It runs
// once, inside the window manager's construction path.
type ContentBuilder func() string

// Factory constructs native windows and binds their callbacks to the
// supplied hooks.
type Factory interface {
	Build(title string, content ContentBuilder, placement Placement, hooks Hooks) (Frame, error)
}
