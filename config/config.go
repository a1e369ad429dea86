// ABOUTME: Application configuration stored as TOML at the XDG config path
// ABOUTME: Loaded through viper with LEADENGINE_ environment overrides and a generated owner id
package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	AppName   = "leadengine"
	EnvPrefix = "LEADENGINE"

	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DBPath           string      `toml:"db_path" mapstructure:"db_path"`
	OwnerID          string      `toml:"owner_id" mapstructure:"owner_id"`
	LogLevel         string      `toml:"log_level" mapstructure:"log_level"`
	ExclusionBackend string      `toml:"exclusion_backend" mapstructure:"exclusion_backend"`
	Charm            CharmConfig `toml:"charm" mapstructure:"charm"`
	Gmail            GmailConfig `toml:"gmail" mapstructure:"gmail"`
}

type CharmConfig struct {
	Host     string `toml:"host" mapstructure:"host"`
	AutoSync bool   `toml:"auto_sync" mapstructure:"auto_sync"`
}

type GmailConfig struct {
	// LookbackDays bounds the first import; later runs start from the last sync.
	LookbackDays int `toml:"lookback_days" mapstructure:"lookback_days"`
}

// Dir returns the XDG config directory for the app.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath is where the config file lives unless overridden.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultDBPath is the SQLite database location under XDG data.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, AppName+".db")
}

func Default() *Config {
	return &Config{
		DBPath:           DefaultDBPath(),
		LogLevel:         "info",
		ExclusionBackend: BackendSQLite,
		Charm:            CharmConfig{Host: "charm.2389.dev", AutoSync: true},
		Gmail:            GmailConfig{LookbackDays: 30},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("owner_id", d.OwnerID)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("exclusion_backend", d.ExclusionBackend)
	v.SetDefault("charm.host", d.Charm.Host)
	v.SetDefault("charm.auto_sync", d.Charm.AutoSync)
	v.SetDefault("gmail.lookback_days", d.Gmail.LookbackDays)
}

// Load reads the config file at path (DefaultPath when empty). A missing file
// is not an error. Values from a local .env and LEADENGINE_* variables win
// over the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	if path == "" {
		path = DefaultPath()
	}

	_ = godotenv.Load()

	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ExclusionBackend = strings.ToLower(cfg.ExclusionBackend)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ExclusionBackend {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("%w: exclusion_backend must be %q or %q, got %q", ErrInvalidConfig, BackendSQLite, BackendCharm, c.ExclusionBackend)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is empty", ErrInvalidConfig)
	}
	if c.Gmail.LookbackDays < 0 {
		return fmt.Errorf("%w: gmail.lookback_days must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Save writes the config as TOML with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// EnsureOwnerID assigns a fresh owner id when none is set and saves the
// file. It reports whether an id was generated.
func (c *Config) EnsureOwnerID(path string) (bool, error) {
	if c.OwnerID != "" {
		return false, nil
	}
	c.OwnerID = NewOwnerID()
	if err := c.Save(path); err != nil {
		return true, err
	}
	return true, nil
}

// NewOwnerID generates a ULID.
func NewOwnerID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
