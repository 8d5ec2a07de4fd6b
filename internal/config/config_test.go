package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	cfg := m.Get()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 150, cfg.Button.ExitTimeout)
	assert.Equal(t, "eye", cfg.MarkerClass)
	assert.Equal(t, BackendPage, cfg.Backend)
	assert.Equal(t, TransportWebSocket, cfg.Transport.Kind)
	assert.Equal(t, path, m.GetConfigPath())
}

func TestNewManager_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server_port: 9191
log_level: debug
button:
  timeout: 800
  keyboard_activation: false
key_mapping:
  left: [KeyH]
  right: [KeyL]
backend: x11
watch_patterns: ["(?i)firefox"]
transport:
  kind: nats
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, 9191, cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Button.Timeout)
	assert.Equal(t, 150, cfg.Button.ExitTimeout, "unset keys keep their defaults")
	assert.False(t, cfg.Button.KeyboardActivation)
	assert.Equal(t, []string{"KeyH"}, cfg.KeyMapping["left"])
	assert.Equal(t, []string{"ArrowUp", "KeyW", "Numpad8"}, cfg.KeyMapping["up"])
	assert.Equal(t, BackendX11, cfg.Backend)
	assert.Equal(t, []string{"(?i)firefox"}, cfg.WatchPatterns)
	assert.Equal(t, TransportNATS, cfg.Transport.Kind)
	assert.Equal(t, "eyefocus", cfg.Transport.SubjectPrefix)
}

func TestNewManager_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: wayland\n"), 0644))

	_, err := NewManager(path)
	assert.Error(t, err)
}

func TestSave_PersistsViperChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	m.GetViper().Set("button.timeout", 1500)
	require.NoError(t, m.Save())
	assert.Equal(t, 1500, m.Get().Button.Timeout)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 1500, reloaded.Get().Button.Timeout)
}

func TestSave_RejectsInvalidValue(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	m.GetViper().Set("transport.kind", "carrier-pigeon")
	assert.Error(t, m.Save())
	assert.Equal(t, TransportWebSocket, m.Get().Transport.Kind)
}

func TestOverrides(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	m.SetPort(7000)
	m.SetLogLevel("warn")

	assert.Equal(t, 7000, m.Get().ServerPort)
	assert.Equal(t, "warn", m.Get().LogLevel)
}

func TestGet_ReturnsCopy(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg := m.Get()
	cfg.ServerPort = 1
	assert.Equal(t, 8080, m.Get().ServerPort)
}

func TestNavigation(t *testing.T) {
	cfg := Defaults()
	cfg.Button.Timeout = 600
	cfg.Button.Enabled = false
	cfg.KeyMapping = map[string][]string{
		"left":  {"KeyH"},
		"Enter": {"KeyO"},
	}

	s, err := cfg.Navigation()
	require.NoError(t, err)

	assert.True(t, s.KeyboardActivation)
	assert.False(t, s.DirectionalEnabled)
	assert.Equal(t, 600*time.Millisecond, s.DwellTimeout)
	assert.Equal(t, focus.DefaultExitTimeout, s.ExitTimeout)

	d, ok := s.KeyMap.Lookup("KeyO")
	assert.True(t, ok)
	assert.Equal(t, focus.DirEnter, d)
}

func TestNavigation_UnknownDirection(t *testing.T) {
	cfg := Defaults()
	cfg.KeyMapping["diagonal"] = []string{"KeyQ"}

	_, err := cfg.Navigation()
	assert.ErrorIs(t, err, ErrUnknownDirection)
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownDirection)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.ServerPort = 70000 }},
		{"timeout", func(c *Config) { c.Button.Timeout = -1 }},
		{"exit timeout", func(c *Config) { c.Button.ExitTimeout = -5 }},
		{"backend", func(c *Config) { c.Backend = "wayland" }},
		{"transport", func(c *Config) { c.Transport.Kind = "grpc" }},
		{"pattern", func(c *Config) { c.WatchPatterns = []string{"(unclosed"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Defaults().Validate())
}

func TestPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, m.AddPattern("(?i)firefox"))
	require.NoError(t, m.AddPattern("^xterm$"))
	assert.Error(t, m.AddPattern("^xterm$"), "duplicates are rejected")
	assert.Error(t, m.AddPattern("[bad"))
	assert.Equal(t, []string{"(?i)firefox", "^xterm$"}, m.Get().WatchPatterns)

	require.NoError(t, m.RemovePattern("(?i)firefox"))
	assert.Error(t, m.RemovePattern("missing"))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"^xterm$"}, reloaded.Get().WatchPatterns)
}
