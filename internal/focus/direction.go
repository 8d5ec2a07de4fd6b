package focus

import (
	"fmt"
	"strings"
	"time"
)

// Direction is a navigation action. Left, right, up and down move focus;
// enter activates the focused element.
type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirEnter Direction = "enter"
)

// Directions lists every direction in key-lookup order.
var Directions = []Direction{DirLeft, DirRight, DirUp, DirDown, DirEnter}

// ParseDirection converts a config name to a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Directions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Spatial reports whether d moves focus (as opposed to activating).
func (d Direction) Spatial() bool {
	switch d {
	case DirLeft, DirRight, DirUp, DirDown:
		return true
	}
	return false
}

// horizontal reports whether d searches along the x axis.
func (d Direction) horizontal() bool {
	return d == DirLeft || d == DirRight
}

// KeyMap maps each direction to the key codes that trigger it. Key codes
// are KeyboardEvent.code names such as "ArrowLeft" or "KeyA".
type KeyMap map[Direction][]string

// DefaultKeyMap is used when no mapping is configured.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		DirLeft:  {"ArrowLeft", "KeyA", "Numpad4"},
		DirRight: {"ArrowRight", "KeyD", "Numpad6"},
		DirUp:    {"ArrowUp", "KeyW", "Numpad8"},
		DirDown:  {"ArrowDown", "KeyS", "Numpad2"},
		DirEnter: {"Enter", "Space", "NumpadEnter"},
	}
}

// Lookup returns the direction bound to code. When a code is bound to
// several directions the first one in Directions order wins.
func (m KeyMap) Lookup(code string) (Direction, bool) {
	for _, d := range Directions {
		for _, c := range m[d] {
			if c == code {
				return d, true
			}
		}
	}
	return "", false
}

// Settings is the navigator's read-only view of the application settings.
type Settings struct {
	// KeyboardActivation enables HandleKey at all.
	KeyboardActivation bool
	// DirectionalEnabled enables left/right/up/down movement.
	DirectionalEnabled bool
	KeyMap             KeyMap
	// DwellTimeout and ExitTimeout are forwarded to the gaze tracker; the
	// navigator itself enforces no timeouts.
	DwellTimeout time.Duration
	ExitTimeout  time.Duration
}

// DefaultExitTimeout is the tracker's grace period before reporting exit.
const DefaultExitTimeout = 150 * time.Millisecond

// DefaultSettings returns settings with keyboard navigation enabled.
func DefaultSettings() Settings {
	return Settings{
		KeyboardActivation: true,
		DirectionalEnabled: true,
		KeyMap:             DefaultKeyMap(),
		DwellTimeout:       time.Second,
		ExitTimeout:        DefaultExitTimeout,
	}
}
