// Package config resolves the markwrite settings from defaults, a config
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "~/.config/markwrite/config.yaml"
	DefaultDataDir = "~/.local/share/markwrite"
	EnvPrefix      = "MARKWRITE_"
)

// Adapters and formats accepted by Validate.
var (
	Adapters = []string{"fs", "sqlite", "memory"}
	Formats  = []string{"json", "yaml"}
)

// Duration accepts "300ms"-style strings in every source.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the settings of a markwrite workspace.
type Config struct {
	DataDir      string   `yaml:"data_dir" toml:"data_dir" env:"DATA_DIR"`
	Adapter      string   `yaml:"adapter" toml:"adapter" env:"ADAPTER"`
	Format       string   `yaml:"format" toml:"format" env:"FORMAT"`
	Key          string   `yaml:"key" toml:"key" env:"KEY"`
	Versioning   bool     `yaml:"versioning" toml:"versioning" env:"VERSIONING"`
	ReadOnly     bool     `yaml:"read_only" toml:"read_only" env:"READ_ONLY"`
	AsyncSave    bool     `yaml:"async_save" toml:"async_save" env:"ASYNC_SAVE"`
	SaveDebounce Duration `yaml:"save_debounce" toml:"save_debounce" env:"SAVE_DEBOUNCE"`
	LogLevel     string   `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:  DefaultDataDir,
		Adapter:  "fs",
		Format:   "json",
		Key:      "markWriteState",
		LogLevel: "info",
	}
}

// Load layers defaults, the config file at path and MARKWRITE_* variables.
// An empty path selects DefaultPath, which may be absent; an explicit path
// must exist. Files ending in .toml are parsed as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := decodeFile(resolved, data, &cfg); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DataDir, err = ExpandPath(cfg.DataDir)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

// Validate rejects unknown adapters, formats and log levels.
func (c Config) Validate() error {
	if !contains(Adapters, c.Adapter) {
		return fmt.Errorf("unknown adapter %q (want one of %s)", c.Adapter, strings.Join(Adapters, ", "))
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("key must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.SaveDebounce.Duration < 0 {
		return fmt.Errorf("save_debounce must not be negative")
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ExpandPath resolves a leading "~" and makes path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
