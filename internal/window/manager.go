package window

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// DefaultPollInterval is how often Start checks the window list.
const DefaultPollInterval = 500 * time.Millisecond

// Window is a watchable top-level window. The same *Window is returned for
// an X window id for as long as the Manager lives.
type Window struct {
	mgr   *Manager
	id    uint32
	key   string
	title string
}

// Key returns "<class>:0x<id>".
func (w *Window) Key() string {
	return w.key
}

// ID returns the X window id.
func (w *Window) ID() uint32 {
	return w.id
}

// Title returns the title seen at the last scan.
func (w *Window) Title() string {
	return w.title
}

// Bounds queries the display server. A window that is gone reports a zero rect.
func (w *Window) Bounds() geometry.Rect {
	rect, err := w.mgr.backend.Geometry(w.id)
	if err != nil {
		return geometry.Rect{}
	}
	return rect
}

// Manager turns matching windows into watchable elements and polls the
// window list for changes.
type Manager struct {
	backend  Backend
	patterns []*regexp.Regexp

	mu       sync.Mutex
	windows  map[uint32]*Window
	lastScan string
	stopChan chan struct{}
	done     chan struct{}
}

// NewManager compiles the watch patterns. Each pattern is matched against
// both the window class and the title. No patterns match every window.
func NewManager(backend Backend, patterns []string) (*Manager, error) {
	m := &Manager{
		backend: backend,
		windows: make(map[uint32]*Window),
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Matches reports whether a window is watchable.
func (m *Manager) Matches(info Info) bool {
	if len(m.patterns) == 0 {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(info.Class) || re.MatchString(info.Title) {
			return true
		}
	}
	return false
}

// Watchables returns the matching windows in stacking order.
func (m *Manager) Watchables() ([]registry.Element, error) {
	windows, _, err := m.scan()
	if err != nil {
		return nil, err
	}
	out := make([]registry.Element, len(windows))
	for i, w := range windows {
		out[i] = w
	}
	return out, nil
}

// scan lists matching windows and returns a signature of ids and
// geometries, so callers can tell whether anything moved.
func (m *Manager) scan() ([]*Window, string, error) {
	infos, err := m.backend.ListWindows()
	if err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var sig strings.Builder
	seen := make(map[uint32]bool, len(infos))
	windows := make([]*Window, 0, len(infos))
	for _, info := range infos {
		if !m.Matches(info) {
			continue
		}
		w, ok := m.windows[info.ID]
		if !ok {
			w = &Window{mgr: m, id: info.ID, key: fmt.Sprintf("%s:0x%x", info.Class, info.ID)}
			m.windows[info.ID] = w
		}
		w.title = info.Title
		seen[info.ID] = true
		windows = append(windows, w)

		g := info.Geometry
		fmt.Fprintf(&sig, "%x@%g,%g,%g,%g;", info.ID, g.X, g.Y, g.Width, g.Height)
	}
	for id := range m.windows {
		if !seen[id] {
			delete(m.windows, id)
		}
	}
	return windows, sig.String(), nil
}

// Poll scans once and reports whether the matching windows changed since
// the previous Poll.
func (m *Manager) Poll() (bool, error) {
	_, sig, err := m.scan()
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	changed := sig != m.lastScan
	m.lastScan = sig
	return changed, nil
}

// Start polls every interval and calls onChange whenever the matching
// windows change.
func (m *Manager) Start(interval time.Duration, onChange func()) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m.stopChan = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		log := logger.WithComponent("window-manager")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopChan:
				return
			case <-ticker.C:
				changed, err := m.Poll()
				if err != nil {
					log.Warn().Err(err).Msg("Failed to poll windows")
					continue
				}
				if changed {
					log.Debug().Msg("Window layout changed")
					onChange()
				}
			}
		}
	}()
}

// Stop stops polling.
func (m *Manager) Stop() {
	if m.stopChan == nil {
		return
	}
	close(m.stopChan)
	<-m.done
	m.stopChan = nil
}

// FocusSink implements focus.Sink by moving the X input focus.
type FocusSink struct {
	backend Backend
}

// NewFocusSink creates a sink acting on backend.
func NewFocusSink(backend Backend) *FocusSink {
	return &FocusSink{backend: backend}
}

func (s *FocusSink) Enter(el registry.Element, src focus.Source) {
	w, ok := el.(*Window)
	if !ok {
		return
	}
	if err := s.backend.SetFocus(w.id); err != nil {
		logger.WithComponent("window-focus").Warn().Err(err).Str("window", w.key).Msg("Failed to focus window")
		return
	}
	logger.WithComponent("window-focus").Debug().Str("window", w.key).Str("source", string(src)).Msg("Focused window")
}

func (s *FocusSink) Exit(el registry.Element, src focus.Source) {
	logger.WithComponent("window-focus").Debug().Str("window", el.Key()).Str("source", string(src)).Msg("Left window")
}

func (s *FocusSink) Stay(el registry.Element, dwell time.Duration) {
	logger.WithComponent("window-focus").Debug().Str("window", el.Key()).Dur("dwell", dwell).Msg("Dwelling on window")
}

// Activate raises the window and focuses it.
func (s *FocusSink) Activate(el registry.Element) {
	w, ok := el.(*Window)
	if !ok {
		return
	}
	log := logger.WithComponent("window-focus")
	if err := s.backend.Raise(w.id); err != nil {
		log.Warn().Err(err).Str("window", w.key).Msg("Failed to raise window")
	}
	if err := s.backend.SetFocus(w.id); err != nil {
		log.Warn().Err(err).Str("window", w.key).Msg("Failed to focus window")
	}
}
