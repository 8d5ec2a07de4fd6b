package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
)

// ErrUnknownDirection is returned when key_mapping names a direction that
// does not exist.
var ErrUnknownDirection = errors.New("unknown direction in key_mapping")

// Backend names
const (
	BackendPage = "page"
	BackendX11  = "x11"
)

// Transport kinds
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

// ButtonConfig holds the gaze button settings shared with the tracker.
type ButtonConfig struct {
	// Timeout is the dwell time in milliseconds before a gaze "click".
	Timeout int `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// ExitTimeout is the grace period in milliseconds before a gaze exit.
	ExitTimeout        int  `json:"exit_timeout" yaml:"exit_timeout" mapstructure:"exit_timeout"`
	KeyboardActivation bool `json:"keyboard_activation" yaml:"keyboard_activation" mapstructure:"keyboard_activation"`
	// Enabled turns directional keyboard movement on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// TransportConfig selects how the tracker process is reached.
type TransportConfig struct {
	Kind          string `json:"kind" yaml:"kind" mapstructure:"kind"`
	NATSURL       string `json:"nats_url" yaml:"nats_url" mapstructure:"nats_url"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix" mapstructure:"subject_prefix"`
	// DBusSignals also emits focus changes as session bus signals.
	DBusSignals bool `json:"dbus_signals" yaml:"dbus_signals" mapstructure:"dbus_signals"`
}

// Config represents the application configuration
type Config struct {
	ServerPort int    `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel   string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Button     ButtonConfig        `json:"button" yaml:"button" mapstructure:"button"`
	KeyMapping map[string][]string `json:"key_mapping" yaml:"key_mapping" mapstructure:"key_mapping"`

	// MarkerClass is the CSS class that makes a page element watchable.
	MarkerClass string `json:"marker_class" yaml:"marker_class" mapstructure:"marker_class"`
	Backend     string `json:"backend" yaml:"backend" mapstructure:"backend"`
	PagePath    string `json:"page_path" yaml:"page_path" mapstructure:"page_path"`
	// WatchPatterns select watchable windows by WM_CLASS or title (x11 backend).
	WatchPatterns []string `json:"watch_patterns" yaml:"watch_patterns" mapstructure:"watch_patterns"`

	Transport TransportConfig `json:"transport" yaml:"transport" mapstructure:"transport"`
}

// Defaults returns the default configuration
func Defaults() *Config {
	keys := make(map[string][]string)
	for dir, codes := range focus.DefaultKeyMap() {
		keys[string(dir)] = append([]string(nil), codes...)
	}

	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Button: ButtonConfig{
			Timeout:            1000,
			ExitTimeout:        int(focus.DefaultExitTimeout / time.Millisecond),
			KeyboardActivation: true,
			Enabled:            true,
		},
		KeyMapping:    keys,
		MarkerClass:   "eye",
		Backend:       BackendPage,
		PagePath:      "",
		WatchPatterns: []string{},
		Transport: TransportConfig{
			Kind:          TransportWebSocket,
			NATSURL:       "nats://127.0.0.1:4222",
			SubjectPrefix: "eyefocus",
		},
	}
}

// Validate checks the configuration for values the navigator cannot use.
func (c *Config) Validate() error {
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port: %d", c.ServerPort)
	}
	if c.Button.Timeout < 0 {
		return fmt.Errorf("invalid button.timeout: %d", c.Button.Timeout)
	}
	if c.Button.ExitTimeout < 0 {
		return fmt.Errorf("invalid button.exit_timeout: %d", c.Button.ExitTimeout)
	}
	switch c.Backend {
	case BackendPage, BackendX11:
	default:
		return fmt.Errorf("invalid backend: %q (use %q or %q)", c.Backend, BackendPage, BackendX11)
	}
	switch c.Transport.Kind {
	case TransportWebSocket, TransportNATS:
	default:
		return fmt.Errorf("invalid transport.kind: %q (use %q or %q)", c.Transport.Kind, TransportWebSocket, TransportNATS)
	}
	for _, p := range c.WatchPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
	}
	if _, err := c.Navigation(); err != nil {
		return err
	}
	return nil
}

// Navigation converts the config into navigator settings.
func (c *Config) Navigation() (focus.Settings, error) {
	keys := make(focus.KeyMap, len(c.KeyMapping))

	// Sorted so the reported error is stable.
	names := make([]string, 0, len(c.KeyMapping))
	for name := range c.KeyMapping {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir, err := focus.ParseDirection(name)
		if err != nil {
			return focus.Settings{}, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
		}
		keys[dir] = append(keys[dir], c.KeyMapping[name]...)
	}

	return focus.Settings{
		KeyboardActivation: c.Button.KeyboardActivation,
		DirectionalEnabled: c.Button.Enabled,
		KeyMap:             keys,
		DwellTimeout:       time.Duration(c.Button.Timeout) * time.Millisecond,
		ExitTimeout:        time.Duration(c.Button.ExitTimeout) * time.Millisecond,
	}, nil
}
