package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	// Host application and add-in identity
	Host HostConfig `toml:"host"`

	// Focus polling
	Watcher WatcherConfig `toml:"watcher"`

	// Overlay popup settings
	Overlay OverlayConfig `toml:"overlay"`

	// Logging
	Log LogConfig `toml:"log"`
}

// HostConfig describes which native windows belong to the host editor
type HostConfig struct {
	AddInPath   string   `toml:"addin_path"`
	MainClass   string   `toml:"main_class"`
	EditClasses []string `toml:"edit_classes"` // formula bar and in-cell edit controls
}

// WatcherConfig holds focus polling settings
type WatcherConfig struct {
	PollInterval         Duration `toml:"poll_interval"`
	MaxInterval          Duration `toml:"max_interval"`
	ClassCacheSize       int      `toml:"class_cache_size"`
	ClassCacheTTL        Duration `toml:"class_cache_ttl"`
	HidePopupOnFocusLoss bool     `toml:"hide_popup_on_focus_loss"`
	EventBuffer          int      `toml:"event_buffer"`
}

// OverlayConfig holds overlay popup settings
type OverlayConfig struct {
	OffsetX int  `toml:"offset_x"`
	OffsetY int  `toml:"offset_y"` // added below the caret line
	Visible bool `toml:"visible"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Duration is a time.Duration that reads and writes as "250ms" in TOML
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Service manages configuration persistence
type Service struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// New creates a new config service backed by ~/.xlsense/config.toml
func New() (*Service, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewWithPath(path)
}

// DefaultPath returns the default configuration file location
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".xlsense", "config.toml"), nil
}

// NewWithPath creates a config service for an explicit file. A missing
// file is created with defaults.
func NewWithPath(configPath string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &Service{
		filePath: configPath,
		config:   getDefaultConfig(),
	}

	// Load existing config if it exists, otherwise create a default config file
	if _, err := os.Stat(configPath); err == nil {
		if err := service.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := service.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return service, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			MainClass:   "XLMAIN",
			EditClasses: []string{"EXCEL<", "EXCEL6"},
		},
		Watcher: WatcherConfig{
			PollInterval:         Duration{100 * time.Millisecond},
			MaxInterval:          Duration{2 * time.Second},
			ClassCacheSize:       256,
			ClassCacheTTL:        Duration{5 * time.Second},
			HidePopupOnFocusLoss: true,
			EventBuffer:          64,
		},
		Overlay: OverlayConfig{
			OffsetX: 0,
			OffsetY: 4,
			Visible: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Get returns a copy of the current configuration
func (s *Service) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.clone()
}

// Set updates the configuration
func (s *Service) Set(config *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config.clone()
}

// Load loads configuration from file. Keys missing from the file keep
// their default values.
func (s *Service) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	cfg := getDefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.filePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Save saves configuration to file
func (s *Service) Save() error {
	s.mu.RLock()
	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).Encode(s.config)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, buf.Bytes(), 0644)
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// UpdateOverlay updates overlay configuration
func (s *Service) UpdateOverlay(overlay OverlayConfig) error {
	s.mu.Lock()
	s.config.Overlay = overlay
	s.mu.Unlock()
	return s.Save()
}

// UpdateWatcher updates watcher configuration
func (s *Service) UpdateWatcher(watcher WatcherConfig) error {
	cfg := s.Get()
	cfg.Watcher = watcher
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config.Watcher = watcher
	s.mu.Unlock()
	return s.Save()
}

// Validate checks values that would make the watcher misbehave
func (c *Config) Validate() error {
	if c.Watcher.PollInterval.Duration <= 0 {
		return fmt.Errorf("watcher.poll_interval must be positive, got %s", c.Watcher.PollInterval)
	}
	if c.Watcher.MaxInterval.Duration < c.Watcher.PollInterval.Duration {
		return fmt.Errorf("watcher.max_interval (%s) must not be below poll_interval (%s)",
			c.Watcher.MaxInterval, c.Watcher.PollInterval)
	}
	if c.Watcher.ClassCacheSize < 0 {
		return fmt.Errorf("watcher.class_cache_size must not be negative")
	}
	if len(c.Host.EditClasses) == 0 {
		return fmt.Errorf("host.edit_classes must name at least one window class")
	}
	return nil
}

func (c *Config) clone() *Config {
	cp := *c
	cp.Host.EditClasses = append([]string(nil), c.Host.EditClasses...)
	return &cp
}
