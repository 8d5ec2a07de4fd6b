// Package focus implements the focus state machine shared by gaze and
// keyboard input: the gaze event bridge (Enter, Exit, Stay) and the
// directional keyboard navigator (HandleKey).
package focus

import (
	"errors"
	"sync"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// Elements is the part of the registry the navigator reads.
type Elements interface {
	Lookup(id string, index int) (registry.Element, error)
	Current() *registry.WatchSet
}

// KeyEvent is a key-down delivered to the keyboard navigator.
type KeyEvent struct {
	Code          string `json:"code"`
	FromTextInput bool   `json:"text_input"`
}

// Navigator owns the focus state. All entry points serialise on one mutex,
// so each handler runs to completion before the next starts.
type Navigator struct {
	elements Elements
	sink     Sink
	now      func() time.Time

	mu        sync.Mutex
	settings  Settings
	focused   registry.Element
	lastSeen  time.Time
	enterAt   time.Time
	exitAt    time.Time
	lastInput time.Time
}

// NewNavigator creates a navigator with no focused element.
func NewNavigator(elements Elements, sink Sink, settings Settings) *Navigator {
	return &Navigator{
		elements: elements,
		sink:     sink,
		settings: settings,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for state timestamps.
func (n *Navigator) SetClock(now func() time.Time) {
	n.mu.Lock()
	n.now = now
	n.mu.Unlock()
}

// SetSettings swaps the settings, e.g. after a config reload.
func (n *Navigator) SetSettings(s Settings) {
	n.mu.Lock()
	n.settings = s
	n.mu.Unlock()
}

// Settings returns the current settings.
func (n *Navigator) Settings() Settings {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.settings
}

// Focused returns the focused element, or nil.
func (n *Navigator) Focused() registry.Element {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focused
}

// Enter handles a gaze enter on element index of WatchSet id. A different
// focused element is exited first; acquisition is skipped while anything
// is still focused.
func (n *Navigator) Enter(id string, index int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	el, ok := n.resolve("enter", id, index)
	if !ok {
		return
	}
	n.lastSeen = n.now()

	if n.focused != nil && n.focused != el {
		n.exit(n.focused, SourceGaze)
	}
	n.acquire(el, SourceGaze)
}

// Exit handles a gaze exit. The resolved element receives the exit and
// focus is cleared whichever element held it.
func (n *Navigator) Exit(id string, index int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	el, ok := n.resolve("exit", id, index)
	if !ok {
		return
	}
	n.lastSeen = n.now()
	n.exit(el, SourceGaze)
}

// Stay forwards the tracker's dwell time to the resolved element. Focus is
// not changed.
func (n *Navigator) Stay(id string, index int, dwell time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	el, ok := n.resolve("stay", id, index)
	if !ok {
		return
	}
	n.lastSeen = n.now()
	n.sink.Stay(el, dwell)
}

// HandleKey runs the keyboard navigator. It returns true when the key was
// consumed and the platform's default handling should be suppressed.
func (n *Navigator) HandleKey(ev KeyEvent) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ev.FromTextInput || !n.settings.KeyboardActivation {
		metricKeys.WithLabelValues("ignored").Inc()
		return false
	}
	dir, ok := n.settings.KeyMap.Lookup(ev.Code)
	if !ok {
		metricKeys.WithLabelValues("unmapped").Inc()
		return false
	}
	n.lastInput = n.now()

	if n.focused != nil && n.focused.Bounds().Collapsed() {
		n.focused = nil
	}

	ws := n.elements.Current()
	if n.focused == nil {
		if ws.Len() > 0 {
			n.acquire(ws.Elements[0], SourceKeyboard)
			metricKeys.WithLabelValues("initial").Inc()
			return true
		}
		metricKeys.WithLabelValues("empty").Inc()
		return true
	}

	if dir == DirEnter {
		n.sink.Activate(n.focused)
		metricKeys.WithLabelValues("activate").Inc()
		return true
	}

	if !n.settings.DirectionalEnabled {
		metricKeys.WithLabelValues("disabled").Inc()
		return false
	}

	next := findNear(n.focused, ws.Elements, dir)
	if next == nil || next == n.focused {
		metricKeys.WithLabelValues("blocked").Inc()
		return true
	}

	n.exit(n.focused, SourceKeyboard)
	n.acquire(next, SourceKeyboard)
	metricKeys.WithLabelValues("moved").Inc()
	return true
}

func (n *Navigator) resolve(kind, id string, index int) (registry.Element, bool) {
	el, err := n.elements.Lookup(id, index)
	if err != nil {
		result := "stale"
		if errors.Is(err, registry.ErrIndexOutOfRange) {
			result = "out_of_range"
		}
		metricGazeEvents.WithLabelValues(kind, result).Inc()
		logger.WithComponent("navigator").Debug().
			Err(err).
			Str("kind", kind).
			Str("id", id).
			Int("index", index).
			Msg("Dropping gaze event")
		return nil, false
	}
	metricGazeEvents.WithLabelValues(kind, "applied").Inc()
	return el, true
}

// acquire focuses el unless an element is already focused.
func (n *Navigator) acquire(el registry.Element, src Source) {
	if n.focused != nil {
		return
	}
	n.focused = el
	n.enterAt = n.now()
	metricTransitions.WithLabelValues(string(src)).Inc()
	n.sink.Enter(el, src)
}

func (n *Navigator) exit(el registry.Element, src Source) {
	n.sink.Exit(el, src)
	n.focused = nil
	n.exitAt = n.now()
}

// FocusedElement describes the focused element in a Snapshot.
type FocusedElement struct {
	Key    string        `json:"key"`
	Index  int           `json:"index"`
	Bounds geometry.Rect `json:"bounds"`
}

// Snapshot is a point-in-time view of the focus state.
type Snapshot struct {
	RegistryID string          `json:"registry_id"`
	Elements   int             `json:"elements"`
	Focused    *FocusedElement `json:"focused,omitempty"`
	LastSeen   time.Time       `json:"last_seen"`
	EnterAt    time.Time       `json:"enter_at"`
	ExitAt     time.Time       `json:"exit_at"`
	LastInput  time.Time       `json:"last_input"`
}

// Snapshot returns the current focus state. Index is -1 when the focused
// element is not part of the current WatchSet.
func (n *Navigator) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	ws := n.elements.Current()
	s := Snapshot{
		RegistryID: ws.ID,
		Elements:   ws.Len(),
		LastSeen:   n.lastSeen,
		EnterAt:    n.enterAt,
		ExitAt:     n.exitAt,
		LastInput:  n.lastInput,
	}
	if n.focused != nil {
		s.Focused = &FocusedElement{
			Key:    n.focused.Key(),
			Index:  ws.IndexOf(n.focused),
			Bounds: n.focused.Bounds(),
		}
	}
	return s
}
