// Package config provides configuration management for the trade journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "forex-journal/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" json:"storage"`
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	UI      UIConfig      `mapstructure:"ui" json:"ui"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Audit   AuditConfig   `mapstructure:"audit" json:"audit"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-" json:"dir"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" json:"db_path"`
	Key    string `mapstructure:"key" json:"key"` // blob key holding the trade list
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" json:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled" json:"color_enabled"`
	RecentCount  int  `mapstructure:"recent_count" json:"recent_count"`
}

// LoggingConfig holds application log configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	File       string `mapstructure:"file" json:"file"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"` // days
}

// AuditConfig holds audit trail configuration.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Dir     string `mapstructure:"dir" json:"dir"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/forex-journal"
	}
	return filepath.Join(home, ".config", "forex-journal")
}

// ConfigFile returns the path of config.toml inside configDir.
func ConfigFile(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and loading continues.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{Dir: configDir}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v)
	cfg := &Config{Dir: configDir}
	_ = v.Unmarshal(cfg)
	cfg.resolvePaths()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.db_path", "journal.db")
	v.SetDefault("storage.key", "forexTrades")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.recent_count", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "logs/journal.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.dir", "audit")
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and fall back to defaults
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("JOURNAL_STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := os.Getenv("JOURNAL_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// resolvePaths makes relative file locations relative to the config dir.
func (c *Config) resolvePaths() {
	c.Storage.DBPath = c.resolve(c.Storage.DBPath)
	c.Logging.File = c.resolve(c.Logging.File)
	c.Audit.Dir = c.resolve(c.Audit.Dir)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return fmt.Errorf("%w: storage.db_path must not be empty", apperrors.ErrConfigInvalid)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("%w: storage.key must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.UI.RecentCount < 1 || c.UI.RecentCount > 100 {
		return fmt.Errorf("%w: ui.recent_count must be between 1 and 100", apperrors.ErrConfigInvalid)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid logging.level: %s (must be debug, info, warn or error)", apperrors.ErrConfigInvalid, c.Logging.Level)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAge < 0 {
		return fmt.Errorf("%w: logging rotation limits must be non-negative", apperrors.ErrConfigInvalid)
	}
	return nil
}
