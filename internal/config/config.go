// Package config loads focusx settings from defaults, an optional file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix prefixes environment overrides, e.g. FOCUSX_FOCUS_DWELL_THRESHOLD.
const EnvPrefix = "FOCUSX"

// Config holds application configuration.
type Config struct {
	Focus   FocusConfig   `mapstructure:"focus" toml:"focus"`
	Runtime RuntimeConfig `mapstructure:"runtime" toml:"runtime"`
	Log     LogConfig     `mapstructure:"log" toml:"log"`
	Demo    DemoConfig    `mapstructure:"demo" toml:"demo"`
}

// FocusConfig holds dispatcher settings.
type FocusConfig struct {
	DwellThreshold int `mapstructure:"dwell_threshold" toml:"dwell_threshold"`
}

// RuntimeConfig holds tick loop settings.
type RuntimeConfig struct {
	TickRate           time.Duration `mapstructure:"tick_rate" toml:"tick_rate"`
	MaxCommandsPerTick int           `mapstructure:"max_commands_per_tick" toml:"max_commands_per_tick"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// DemoConfig holds interactive demo settings.
type DemoConfig struct {
	Script     string `mapstructure:"script" toml:"script"`
	ShowCursor bool   `mapstructure:"show_cursor" toml:"show_cursor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("focus.dwell_threshold", 1)
	v.SetDefault("runtime.tick_rate", 16667*time.Microsecond)
	v.SetDefault("runtime.max_commands_per_tick", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("demo.script", "")
	v.SetDefault("demo.show_cursor", true)
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// DefaultPath is where Load looks when neither path nor FOCUSX_CONFIG is set.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "focusx", "config.toml")
}

// Load reads configuration. path wins over FOCUSX_CONFIG, which wins over
// DefaultPath. A missing default file is not an error; a missing explicit file is.
// The file format follows the extension (toml, yaml, json).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := true
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("toml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the dispatcher or runtime cannot use.
func (c Config) Validate() error {
	if c.Focus.DwellThreshold < 0 {
		return fmt.Errorf("%w: focus.dwell_threshold must be >= 0, got %d", ErrInvalid, c.Focus.DwellThreshold)
	}
	if c.Runtime.TickRate <= 0 {
		return fmt.Errorf("%w: runtime.tick_rate must be positive, got %v", ErrInvalid, c.Runtime.TickRate)
	}
	if c.Runtime.MaxCommandsPerTick <= 0 {
		return fmt.Errorf("%w: runtime.max_commands_per_tick must be positive, got %d", ErrInvalid, c.Runtime.MaxCommandsPerTick)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", s)
}

// Encode renders c as TOML. Durations are written as strings ("16.667ms").
func Encode(c Config) ([]byte, error) {
	type runtimeOut struct {
		TickRate           string `toml:"tick_rate"`
		MaxCommandsPerTick int    `toml:"max_commands_per_tick"`
	}
	out := struct {
		Focus   FocusConfig `toml:"focus"`
		Runtime runtimeOut  `toml:"runtime"`
		Log     LogConfig   `toml:"log"`
		Demo    DemoConfig  `toml:"demo"`
	}{
		Focus:   c.Focus,
		Runtime: runtimeOut{TickRate: c.Runtime.TickRate.String(), MaxCommandsPerTick: c.Runtime.MaxCommandsPerTick},
		Log:     c.Log,
		Demo:    c.Demo,
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes c as TOML to path, creating the directory if needed.
func Save(path string, c Config) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// NewLogger builds the slog logger described by c.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
