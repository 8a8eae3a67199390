// Package config loads tpsa settings from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	tpsa "github.com/njchilds90/gotpsa"
)

// Settings holds the complete configuration.
type Settings struct {
	Order  int          `toml:"-" yaml:"-"`
	RelTol float64      `toml:"rtol" yaml:"rtol"`
	AbsTol float64      `toml:"atol" yaml:"atol"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Output OutputConfig `toml:"output" yaml:"output"`
}

// ServerConfig holds HTTP tool server settings.
type ServerConfig struct {
	Port         int      `toml:"port" yaml:"port"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes" yaml:"max_body_bytes"`
	MaxOrder     int      `toml:"max_order" yaml:"max_order"`
}

// OutputConfig holds CLI rendering settings.
type OutputConfig struct {
	Color  string `toml:"color" yaml:"color"` // auto, always, never
	Taylor bool   `toml:"taylor" yaml:"taylor"`
}

// file mirrors Settings with a loosely typed order so that non-integer
// values are reported as order type errors.
type file struct {
	Order    interface{} `toml:"order" yaml:"order"`
	Settings `toml:",inline" yaml:",inline"`
}

// Duration wraps time.Duration for text parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// EnvOrder overrides the configured truncation order.
const EnvOrder = "TPSA_ORDER"

// EnvConfig names the settings file used by LoadFromEnv.
const EnvConfig = "TPSA_CONFIG"

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Order:  tpsa.DefaultOrder,
		RelTol: tpsa.DefaultRelTol,
		AbsTol: tpsa.DefaultAbsTol,
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
			MaxBodyBytes: 1 << 20,
			MaxOrder:     tpsa.DefaultMaxOrder,
		},
		Output: OutputConfig{Color: "auto"},
	}
}

// Load reads a settings file; the format follows the extension (.toml,
// .yaml, .yml). An empty path yields the defaults. TPSA_ORDER, when set,
// overrides the file.
func Load(path string) (Settings, error) {
	f := file{Settings: Default()}
	if path != "" {
		path = os.ExpandEnv(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("reading %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(data), &f); err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &f); err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		default:
			return Settings{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
		}
	}

	s := f.Settings
	if f.Order != nil {
		order, err := tpsa.OrderFromValue(f.Order)
		if err != nil {
			return Settings{}, err
		}
		s.Order = order
	}
	if env := os.Getenv(EnvOrder); env != "" {
		order, err := strconv.Atoi(env)
		if err != nil {
			return Settings{}, fmt.Errorf("%s=%q: %w", EnvOrder, env, tpsa.ErrOrderType)
		}
		s.Order = order
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFromEnv loads the file named by TPSA_CONFIG, or the defaults.
func LoadFromEnv() (Settings, error) {
	return Load(os.Getenv(EnvConfig))
}

// Validate checks ranges.
func (s Settings) Validate() error {
	if s.Order <= 1 {
		return fmt.Errorf("order %d: %w", s.Order, tpsa.ErrOrderValue)
	}
	if s.RelTol < 0 || s.AbsTol < 0 {
		return fmt.Errorf("tolerances must be non-negative (rtol=%g, atol=%g)", s.RelTol, s.AbsTol)
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", s.Server.Port)
	}
	if s.Server.MaxOrder <= 1 {
		return fmt.Errorf("server.max_order %d: %w", s.Server.MaxOrder, tpsa.ErrOrderValue)
	}
	switch s.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", s.Output.Color)
	}
	return nil
}

// TPSA builds a series configuration for the settings' order.
func (s Settings) TPSA() (*tpsa.Config, error) {
	return tpsa.NewConfig(s.Order)
}
