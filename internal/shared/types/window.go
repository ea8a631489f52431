package types

// WindowSnapshot is a read-only copy of one window record
type WindowSnapshot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Minimized bool   `json:"minimized"`
	Maximized bool   `json:"maximized"`
	Active    bool   `json:"active"`
}

// WindowStats summarizes the registry for diagnostics
type WindowStats struct {
	Open      int     `json:"open"`
	Minimized int     `json:"minimized"`
	ActiveID  *string `json:"active_id,omitempty"`
}
