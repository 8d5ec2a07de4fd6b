// Package window adapts top-level desktop windows to the navigator: each
// window whose class or title matches a watch pattern is a watchable element,
// and focus moves by giving it the X input focus.
package window

import (
	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
)

// Info describes one top-level window.
type Info struct {
	ID       uint32        `json:"id"`
	Title    string        `json:"title"`
	Class    string        `json:"class"`
	PID      int           `json:"pid"`
	Geometry geometry.Rect `json:"geometry"`
}

// Backend defines the interface to the display server.
type Backend interface {
	// ListWindows returns all application windows in stacking order.
	ListWindows() ([]Info, error)

	// Geometry returns a window's rect in root coordinates.
	Geometry(id uint32) (geometry.Rect, error)

	// SetFocus gives a window the input focus.
	SetFocus(id uint32) error

	// Raise puts a window on top of the stack.
	Raise(id uint32) error

	// Close closes the connection to the display server
	Close() error

	// Name returns the backend name (e.g., "x11")
	Name() string
}
