// Package config loads and validates the daemon configuration and watches
// it for changes so the arbitration constants can be re-derived at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/manual-control/internal/gpio"
	"github.com/sweeney/manual-control/internal/logic"
)

// Input mode names accepted in the config file.
const (
	ModeFirstValid = "first-valid"
	ModePriority   = "priority"
	ModeFixed      = "fixed"
)

// Duration wraps time.Duration so YAML values like "500ms" parse directly.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// GPIOConfig configures the optional hardware kill switch.
type GPIOConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Pin     int    `yaml:"pin"`
}

// Config is the daemon configuration. All arbitration fields are
// hot-reloadable; broker, http and gpio settings take effect at startup.
type Config struct {
	Broker   string `yaml:"broker"`
	HTTPAddr string `yaml:"http_addr"`

	Period          Duration   `yaml:"period"`
	InputMode       string     `yaml:"input_mode"`
	FixedInstance   int        `yaml:"fixed_instance"`
	SourceTimeout   Duration   `yaml:"source_timeout"`
	GestureHold     Duration   `yaml:"gesture_hold"`
	OverridePercent float64    `yaml:"override_percent"`
	GPIO            GPIOConfig `yaml:"gpio"`
}

// Default returns the configuration used when the file omits a field.
func Default() Config {
	return Config{
		Broker:          "tcp://localhost:1883",
		HTTPAddr:        ":8080",
		Period:          Duration(200 * time.Millisecond),
		InputMode:       ModeFirstValid,
		SourceTimeout:   Duration(500 * time.Millisecond),
		GestureHold:     Duration(1 * time.Second),
		OverridePercent: 30,
		GPIO: GPIOConfig{
			Chip: gpio.DefaultChip,
			Pin:  gpio.DefaultPinKill,
		},
	}
}

// Load reads the config file at path on top of the defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("config: broker must be set")
	}
	if c.Period <= 0 {
		return fmt.Errorf("config: period must be positive, got %v", time.Duration(c.Period))
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("config: source_timeout must be positive, got %v", time.Duration(c.SourceTimeout))
	}
	if c.GestureHold < 0 {
		return fmt.Errorf("config: gesture_hold must not be negative, got %v", time.Duration(c.GestureHold))
	}
	if c.OverridePercent <= 0 {
		return fmt.Errorf("config: override_percent must be positive, got %v", c.OverridePercent)
	}

	switch c.InputMode {
	case ModeFirstValid, ModePriority:
	case ModeFixed:
		if c.FixedInstance < 0 || c.FixedInstance >= logic.MaxInputs {
			return fmt.Errorf("config: fixed_instance must be in [0, %d), got %d", logic.MaxInputs, c.FixedInstance)
		}
	default:
		return fmt.Errorf("config: unknown input_mode %q", c.InputMode)
	}
	return nil
}

// Engine derives the arbitration constants from the configuration.
func (c Config) Engine() (logic.Config, error) {
	var strategy logic.Strategy
	switch c.InputMode {
	case ModeFirstValid:
		strategy = logic.FirstValid()
	case ModePriority:
		strategy = logic.PriorityOrder()
	case ModeFixed:
		strategy = logic.FixedInstance(c.FixedInstance)
	default:
		return logic.Config{}, fmt.Errorf("config: unknown input_mode %q", c.InputMode)
	}

	return logic.Config{
		Strategy:        strategy,
		SourceTimeout:   time.Duration(c.SourceTimeout),
		GestureHold:     time.Duration(c.GestureHold),
		OverridePercent: c.OverridePercent,
	}, nil
}
