package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the client configuration read from config.toml.
type Config struct {
	Server      string `toml:"server" validate:"required"`
	LogLevel    string `toml:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFile     string `toml:"log_file" validate:"required"`
	MetricsAddr string `toml:"metrics_addr" validate:"omitempty,hostname_port"`

	Universe   UniverseConfig   `toml:"universe"`
	Palette    PaletteConfig    `toml:"palette"`
	Connection ConnectionConfig `toml:"connection"`
	Editor     EditorConfig     `toml:"editor"`
}

// UniverseConfig sizes new editable universes.
type UniverseConfig struct {
	Size int `toml:"size" validate:"oneof=20 50"`
}

// PaletteConfig selects how colours are allocated to new universes.
type PaletteConfig struct {
	Strategy     string  `toml:"strategy" validate:"oneof=general bright-band palette"`
	LuminanceMin float64 `toml:"luminance_min" validate:"gte=0,lte=1"`
	LuminanceMax float64 `toml:"luminance_max" validate:"gte=0,lte=1,gtfield=LuminanceMin"`
	MinDistance  float64 `toml:"min_distance" validate:"gt=0"`
	MaxAttempts  int     `toml:"max_attempts" validate:"gte=1"`
}

// ConnectionConfig tunes the update channel.
type ConnectionConfig struct {
	ReconnectDelay string        `toml:"reconnect_delay" validate:"required"`
	Delay          time.Duration `toml:"-"` // parsed ReconnectDelay
}

// EditorConfig controls the universe editor.
type EditorConfig struct {
	// Multi allows several editable universes at once. Off by default: one
	// editor, like the web client's wizard.
	Multi bool `toml:"multi"`
}

const (
	defaultConfigPath     = "~/.config/multiverse/config.toml"
	defaultServer         = "http://127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/state/multiverse/multiverse.log"
	defaultUniverseSize   = 50
	defaultStrategy       = "general"
	defaultLuminanceMin   = 0.1
	defaultLuminanceMax   = 0.9
	defaultMinDistance    = 100
	defaultMaxAttempts    = 10000
	defaultReconnectDelay = "1s"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their TOML keys.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:   defaultServer,
		LogLevel: defaultLogLevel,
		LogFile:  mustExpand(defaultLogFile),
		Universe: UniverseConfig{Size: defaultUniverseSize},
		Palette: PaletteConfig{
			Strategy:     defaultStrategy,
			LuminanceMin: defaultLuminanceMin,
			LuminanceMax: defaultLuminanceMax,
			MinDistance:  defaultMinDistance,
			MaxAttempts:  defaultMaxAttempts,
		},
		Connection: ConnectionConfig{ReconnectDelay: defaultReconnectDelay, Delay: time.Second},
	}
}

// DefaultPath returns the config location used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads and validates the config at path, falling back to defaults
// when the file is missing. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and parses derived values. Call it again after
// overriding fields, for example from command-line flags.
func (c *Config) Validate() error {
	c.normalize()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %s", describe(err))
	}
	delay, err := time.ParseDuration(c.Connection.ReconnectDelay)
	if err != nil {
		return fmt.Errorf("invalid config: connection.reconnect_delay: %w", err)
	}
	if delay <= 0 {
		return fmt.Errorf("invalid config: connection.reconnect_delay must be positive, got %s", delay)
	}
	c.Connection.Delay = delay
	return nil
}

func (c *Config) normalize() {
	c.Server = strings.TrimSpace(c.Server)
	if c.Server == "" {
		c.Server = defaultServer
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFile = strings.TrimSpace(c.LogFile)
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
	c.LogFile = mustExpand(c.LogFile)
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.Palette.Strategy = strings.ToLower(strings.TrimSpace(c.Palette.Strategy))
	c.Connection.ReconnectDelay = strings.TrimSpace(c.Connection.ReconnectDelay)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s=%s", field, fe.Value(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", field, fe.Value(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
