package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/eyefocus/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "eyefocus", "config.yaml"), nil
}

// NewManager creates a new configuration manager. An empty configFile
// selects the default path; a missing file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	if err := os.MkdirAll(filepath.Dir(actualConfigPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(actualConfigPath)
	v.SetConfigType("yaml")
	setDefaults(v, Defaults())

	m := &Manager{
		configPath: actualConfigPath,
		v:          v,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("backend", m.config.Backend).
		Msg("Config loaded")

	return m, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("button.timeout", d.Button.Timeout)
	v.SetDefault("button.exit_timeout", d.Button.ExitTimeout)
	v.SetDefault("button.keyboard_activation", d.Button.KeyboardActivation)
	v.SetDefault("button.enabled", d.Button.Enabled)
	// Per direction, so a file that remaps one direction keeps the others.
	for dir, codes := range d.KeyMapping {
		v.SetDefault("key_mapping."+dir, codes)
	}
	v.SetDefault("marker_class", d.MarkerClass)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("page_path", d.PagePath)
	v.SetDefault("watch_patterns", d.WatchPatterns)
	v.SetDefault("transport.kind", d.Transport.Kind)
	v.SetDefault("transport.nats_url", d.Transport.NATSURL)
	v.SetDefault("transport.subject_prefix", d.Transport.SubjectPrefix)
	v.SetDefault("transport.dbus_signals", d.Transport.DBusSignals)
}

// load reads the configuration from disk
func (m *Manager) load() error {
	if _, err := os.Stat(m.configPath); err != nil {
		return err
	}
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	cfg, err := m.decode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) decode() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.WatchPatterns == nil {
		cfg.WatchPatterns = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// GetViper returns the viper instance backing the manager. Values changed
// through it are persisted by Save.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Save validates the viper state and writes it to disk
func (m *Manager) Save() error {
	log := logger.WithComponent("config")

	cfg, err := m.decode()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		log.Error().Err(err).Str("path", m.configPath).Msg("Failed to write config")
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	log.Debug().Str("path", m.configPath).Msg("Config saved")
	return nil
}

// SetPort overrides the server port for this process without saving
func (m *Manager) SetPort(port int) {
	m.v.Set("server_port", port)
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
}

// SetLogLevel overrides the log level for this process without saving
func (m *Manager) SetLogLevel(level string) {
	m.v.Set("log_level", level)
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
}

// AddPattern adds a watch pattern and saves
func (m *Manager) AddPattern(pattern string) error {
	patterns := m.Get().WatchPatterns
	for _, p := range patterns {
		if p == pattern {
			return fmt.Errorf("pattern already exists: %s", pattern)
		}
	}
	m.v.Set("watch_patterns", append(append([]string(nil), patterns...), pattern))
	return m.saveOrRevert("watch_patterns", patterns)
}

// RemovePattern removes a watch pattern and saves
func (m *Manager) RemovePattern(pattern string) error {
	patterns := m.Get().WatchPatterns
	kept := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != pattern {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(patterns) {
		return fmt.Errorf("pattern not found: %s", pattern)
	}
	m.v.Set("watch_patterns", kept)
	return m.saveOrRevert("watch_patterns", patterns)
}

// saveOrRevert saves, restoring key to old if the new state is rejected.
func (m *Manager) saveOrRevert(key string, old any) error {
	if err := m.Save(); err != nil {
		m.v.Set(key, old)
		return err
	}
	return nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Watch reloads the config when the file changes and passes each valid
// reload to fn. Invalid edits are logged and ignored.
func (m *Manager) Watch(fn func(*Config)) {
	m.v.OnConfigChange(func(e fsnotify.Event) {
		log := logger.WithComponent("config")
		cfg, err := m.decode()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		m.mu.Lock()
		m.config = cfg
		m.mu.Unlock()

		log.Info().Str("file", e.Name).Msg("Config reloaded")
		if fn != nil {
			fn(m.Get())
		}
	})
	m.v.WatchConfig()
}
