package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/spf13/viper"
)

const envPrefix = "JELLYSHELF"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	View    ViewConfig    `mapstructure:"view"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds the Jellyfin server and the logged in user
type ServerConfig struct {
	URL      string `mapstructure:"url"`
	Token    string `mapstructure:"token"`
	UserID   string `mapstructure:"user_id"`
	Username string `mapstructure:"username"` // display only
	DeviceID string `mapstructure:"device_id"`
}

// CacheConfig tunes the local listing cache
type CacheConfig struct {
	Dir             string        `mapstructure:"dir"`
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	Retention       time.Duration `mapstructure:"retention"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	RefreshWorkers  int           `mapstructure:"refresh_workers"`
	RefreshQueue    int           `mapstructure:"refresh_queue"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	SweepAttempts   int           `mapstructure:"sweep_attempts"`
	SweepBackoff    time.Duration `mapstructure:"sweep_backoff"`
}

// ViewConfig controls how item names are rendered
type ViewConfig struct {
	NameFormat       string `mapstructure:"name_format"`
	NameFormatType   string `mapstructure:"name_format_type"`
	AddSeasonNumber  bool   `mapstructure:"add_season_number"`
	AddEpisodeNumber bool   `mapstructure:"add_episode_number"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the Prometheus listener; empty disables it
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:             defaultCachePath(),
			FreshnessWindow: 20 * time.Second,
			Retention:       7 * 24 * time.Hour,
			LockTimeout:     5 * time.Second,
			RefreshWorkers:  2,
			RefreshQueue:    16,
			SweepInterval:   time.Hour,
			SweepAttempts:   5,
			SweepBackoff:    time.Second,
		},
		View: ViewConfig{
			AddSeasonNumber:  true,
			AddEpisodeNumber: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("server.user_id", cfg.Server.UserID)
	v.SetDefault("server.username", cfg.Server.Username)
	v.SetDefault("server.device_id", cfg.Server.DeviceID)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.freshness_window", cfg.Cache.FreshnessWindow)
	v.SetDefault("cache.retention", cfg.Cache.Retention)
	v.SetDefault("cache.lock_timeout", cfg.Cache.LockTimeout)
	v.SetDefault("cache.refresh_workers", cfg.Cache.RefreshWorkers)
	v.SetDefault("cache.refresh_queue", cfg.Cache.RefreshQueue)
	v.SetDefault("cache.sweep_interval", cfg.Cache.SweepInterval)
	v.SetDefault("cache.sweep_attempts", cfg.Cache.SweepAttempts)
	v.SetDefault("cache.sweep_backoff", cfg.Cache.SweepBackoff)

	v.SetDefault("view.name_format", cfg.View.NameFormat)
	v.SetDefault("view.name_format_type", cfg.View.NameFormatType)
	v.SetDefault("view.add_season_number", cfg.View.AddSeasonNumber)
	v.SetDefault("view.add_episode_number", cfg.View.AddEpisodeNumber)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "jellyshelf", "jellyshelf.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "jellyshelf", "jellyshelf.log")
	}
}

// defaultConfigDir returns the default config directory for the current OS
func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "jellyshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "jellyshelf")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "jellyshelf", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".cache", "jellyshelf")
	}
}

// DefaultPath returns the config file used when none is given
func DefaultPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty) and applies
// JELLYSHELF_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable overrides, e.g. JELLYSHELF_CACHE_DIR
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// Save writes cfg to path (DefaultPath when empty). The file holds the
// access token, so it is only readable by the owner.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.token", cfg.Server.Token)
	v.Set("server.user_id", cfg.Server.UserID)
	v.Set("server.username", cfg.Server.Username)
	v.Set("server.device_id", cfg.Server.DeviceID)

	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.freshness_window", cfg.Cache.FreshnessWindow.String())
	v.Set("cache.retention", cfg.Cache.Retention.String())
	v.Set("cache.lock_timeout", cfg.Cache.LockTimeout.String())
	v.Set("cache.refresh_workers", cfg.Cache.RefreshWorkers)
	v.Set("cache.refresh_queue", cfg.Cache.RefreshQueue)
	v.Set("cache.sweep_interval", cfg.Cache.SweepInterval.String())
	v.Set("cache.sweep_attempts", cfg.Cache.SweepAttempts)
	v.Set("cache.sweep_backoff", cfg.Cache.SweepBackoff.String())

	v.Set("view.name_format", cfg.View.NameFormat)
	v.Set("view.name_format_type", cfg.View.NameFormatType)
	v.Set("view.add_season_number", cfg.View.AddSeasonNumber)
	v.Set("view.add_episode_number", cfg.View.AddEpisodeNumber)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	v.Set("metrics.addr", cfg.Metrics.Addr)

	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the server URL, token and user are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != "" && c.Server.UserID != ""
}

// Validate rejects settings the cache cannot run with
func (c *Config) Validate() error {
	var errs []error
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"cache.freshness_window", c.Cache.FreshnessWindow},
		{"cache.retention", c.Cache.Retention},
		{"cache.lock_timeout", c.Cache.LockTimeout},
		{"cache.sweep_interval", c.Cache.SweepInterval},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.key, d.value))
		}
	}
	if c.Cache.SweepBackoff < 0 {
		errs = append(errs, fmt.Errorf("cache.sweep_backoff must not be negative, got %s", c.Cache.SweepBackoff))
	}
	if c.Cache.SweepAttempts < 1 {
		errs = append(errs, fmt.Errorf("cache.sweep_attempts must be at least 1, got %d", c.Cache.SweepAttempts))
	}
	if c.Cache.RefreshWorkers < 1 {
		errs = append(errs, fmt.Errorf("cache.refresh_workers must be at least 1, got %d", c.Cache.RefreshWorkers))
	}
	if c.Cache.RefreshQueue < 1 {
		errs = append(errs, fmt.Errorf("cache.refresh_queue must be at least 1, got %d", c.Cache.RefreshQueue))
	}
	if c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir must be set"))
	}
	return errors.Join(errs...)
}

// ViewOptions returns the rendering options for listings from the configured server
func (c *Config) ViewOptions() domain.ViewOptions {
	opts := domain.ViewOptions{
		Server:           strings.TrimRight(c.Server.URL, "/"),
		NameFormat:       c.View.NameFormat,
		AddSeasonNumber:  c.View.AddSeasonNumber,
		AddEpisodeNumber: c.View.AddEpisodeNumber,
	}
	if c.View.NameFormatType != "" {
		opts.NameFormatType = domain.ParseItemType(c.View.NameFormatType)
	}
	return opts
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
