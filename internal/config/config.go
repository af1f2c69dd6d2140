// Package config loads smarttodo settings from an optional YAML file and
// SMARTTODO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"smarttodo/internal/tasks"
)

// Remote drivers.
const (
	DriverNone     = ""
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EnvPrefix prefixes every environment override, e.g. SMARTTODO_DATA_FILE.
const EnvPrefix = "SMARTTODO"

// Config is the resolved application configuration.
type Config struct {
	DataFile      string       `mapstructure:"data_file" yaml:"data_file"`
	Port          int          `mapstructure:"port" yaml:"port"`
	Remote        RemoteConfig `mapstructure:"remote" yaml:"remote"`
	UpcomingDays  int          `mapstructure:"upcoming_days" yaml:"upcoming_days"`
	AnalyticsDays int          `mapstructure:"analytics_days" yaml:"analytics_days"`
	PreferLocal   bool         `mapstructure:"prefer_local" yaml:"prefer_local"`
}

// RemoteConfig selects the optional remote row store.
type RemoteConfig struct {
	Driver  string        `mapstructure:"driver" yaml:"driver"`
	DSN     string        `mapstructure:"dsn" yaml:"dsn"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Enabled reports whether a remote driver is configured.
func (r RemoteConfig) Enabled() bool {
	return r.Driver != DriverNone
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataFile: "./data/tasks.json",
		Port:     8080,
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		UpcomingDays:  7,
		AnalyticsDays: 14,
		PreferLocal:   true,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "smarttodo", "config.yaml")
}

// Load resolves the configuration. An explicit path must exist; without one
// the per-user file is read if present. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		if p := DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Remote.Driver = strings.ToLower(strings.TrimSpace(cfg.Remote.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_file", d.DataFile)
	v.SetDefault("port", d.Port)
	v.SetDefault("remote.driver", d.Remote.Driver)
	v.SetDefault("remote.dsn", d.Remote.DSN)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("upcoming_days", d.UpcomingDays)
	v.SetDefault("analytics_days", d.AnalyticsDays)
	v.SetDefault("prefer_local", d.PreferLocal)
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DataFile) == "" {
		errs = append(errs, errors.New("data_file is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.UpcomingDays < 0 || c.UpcomingDays > tasks.MaxWindowDays {
		errs = append(errs, fmt.Errorf("upcoming_days must be between 0 and %d", tasks.MaxWindowDays))
	}
	if c.AnalyticsDays <= 0 || c.AnalyticsDays > tasks.MaxWindowDays {
		errs = append(errs, fmt.Errorf("analytics_days must be between 1 and %d", tasks.MaxWindowDays))
	}

	switch c.Remote.Driver {
	case DriverNone:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.Remote.DSN) == "" {
			errs = append(errs, fmt.Errorf("remote.dsn is required for driver %q", c.Remote.Driver))
		}
		if c.Remote.Timeout <= 0 {
			errs = append(errs, errors.New("remote.timeout must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown remote driver %q", c.Remote.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteDefault writes a commented default config file to path.
func WriteDefault(path string) error {
	content := `# smarttodo configuration

# Local task file
data_file: ./data/tasks.json

# HTTP API port for "smarttodo serve"
port: 8080

# Optional remote row store
remote:
  driver: ""   # "", "sqlite" or "postgres"
  dsn: ""      # file path for sqlite, connection URL for postgres
  timeout: 10s

# Query windows in days
upcoming_days: 7
analytics_days: 14

# Keep local edits when syncing
prefer_local: true
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0644)
}
