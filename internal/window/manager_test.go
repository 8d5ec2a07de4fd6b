package window

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	windows []Info
	listErr error
	calls   []string
}

func (f *fakeBackend) set(windows ...Info) {
	f.mu.Lock()
	f.windows = windows
	f.mu.Unlock()
}

func (f *fakeBackend) ListWindows() ([]Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Info(nil), f.windows...), nil
}

func (f *fakeBackend) Geometry(id uint32) (geometry.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.windows {
		if w.ID == id {
			return w.Geometry, nil
		}
	}
	return geometry.Rect{}, errors.New("bad window")
}

func (f *fakeBackend) SetFocus(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("focus:%d", id))
	return nil
}

func (f *fakeBackend) Raise(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("raise:%d", id))
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) Name() string { return "fake" }

func win(id uint32, class, title string, x, y float64) Info {
	return Info{ID: id, Class: class, Title: title, Geometry: geometry.Rect{X: x, Y: y, Width: 400, Height: 300}}
}

func keys(t *testing.T, m *Manager) []string {
	t.Helper()
	els, err := m.Watchables()
	require.NoError(t, err)
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Key()
	}
	return out
}

func TestManager_Matches(t *testing.T) {
	m, err := NewManager(&fakeBackend{}, []string{"(?i)firefox", "^Terminal"})
	require.NoError(t, err)

	assert.True(t, m.Matches(Info{Class: "Firefox"}))
	assert.True(t, m.Matches(Info{Class: "xterm", Title: "Terminal - vim"}))
	assert.False(t, m.Matches(Info{Class: "Slack", Title: "general"}))

	all, err := NewManager(&fakeBackend{}, nil)
	require.NoError(t, err)
	assert.True(t, all.Matches(Info{Class: "anything"}))
}

func TestNewManager_InvalidPattern(t *testing.T) {
	_, err := NewManager(&fakeBackend{}, []string{"("})
	assert.Error(t, err)
}

func TestManager_Watchables(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(
		win(0x10, "Firefox", "docs", 0, 0),
		win(0x20, "Slack", "chat", 500, 0),
		win(0x30, "firefox", "mail", 1000, 0),
	)
	m, err := NewManager(backend, []string{"(?i)firefox"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Firefox:0x10", "firefox:0x30"}, keys(t, m))

	els, _ := m.Watchables()
	assert.Equal(t, 1000.0, els[1].Bounds().X, "bounds are read live")

	backend.set(win(0x30, "firefox", "mail", 1200, 50))
	assert.Equal(t, 1200.0, els[1].Bounds().X)
	assert.True(t, els[0].Bounds().Collapsed(), "closed window reports a zero rect")
}

func TestManager_KeepsIdentity(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(win(1, "a", "", 0, 0), win(2, "b", "", 500, 0))
	m, err := NewManager(backend, nil)
	require.NoError(t, err)

	first, _ := m.Watchables()
	second, _ := m.Watchables()
	assert.True(t, first[1] == second[1])

	backend.set(win(2, "b", "renamed", 500, 0))
	third, _ := m.Watchables()
	assert.True(t, first[1] == third[0])
	assert.Equal(t, "renamed", third[0].(*Window).Title())
	assert.Len(t, third, 1)
}

func TestManager_ScanError(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("no display")}
	m, err := NewManager(backend, nil)
	require.NoError(t, err)

	reg := registry.New(m)
	ws, err := reg.Rebuild()
	assert.Error(t, err)
	assert.Equal(t, 0, ws.Len())
}

func TestManager_Poll(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(win(1, "a", "", 0, 0))
	m, err := NewManager(backend, nil)
	require.NoError(t, err)

	changed, err := m.Poll()
	require.NoError(t, err)
	assert.True(t, changed, "first poll always reports a change")

	changed, _ = m.Poll()
	assert.False(t, changed)

	backend.set(win(1, "a", "", 10, 0))
	changed, _ = m.Poll()
	assert.True(t, changed, "moved window")

	backend.set(win(1, "a", "", 10, 0), win(2, "b", "", 600, 0))
	changed, _ = m.Poll()
	assert.True(t, changed, "new window")
}

func TestManager_StartInvalidates(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(win(1, "a", "", 0, 0))
	m, err := NewManager(backend, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	m.Start(5*time.Millisecond, func() { calls.Add(1) })
	defer m.Stop()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	backend.set(win(1, "a", "", 0, 0), win(2, "b", "", 600, 0))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFocusSink_WithNavigator(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(win(1, "left", "", 0, 0), win(2, "right", "", 800, 0))
	m, err := NewManager(backend, nil)
	require.NoError(t, err)

	reg := registry.New(m)
	_, err = reg.Rebuild()
	require.NoError(t, err)

	nav := focus.NewNavigator(reg, NewFocusSink(backend), focus.DefaultSettings())

	assert.True(t, nav.HandleKey(focus.KeyEvent{Code: "ArrowDown"}))
	assert.True(t, nav.HandleKey(focus.KeyEvent{Code: "ArrowRight"}))
	assert.True(t, nav.HandleKey(focus.KeyEvent{Code: "Enter"}))

	assert.Equal(t, []string{"focus:1", "focus:2", "raise:2", "focus:2"}, backend.calls)
}

func TestParseWMClass(t *testing.T) {
	assert.Equal(t, "Firefox", parseWMClass("Navigator\x00Firefox\x00"))
	assert.Equal(t, "xterm", parseWMClass("xterm\x00\x00"))
	assert.Equal(t, "solo", parseWMClass("solo"))
}
