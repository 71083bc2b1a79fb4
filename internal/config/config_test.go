package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/manual-control/internal/logic"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual-control.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "broker: tcp://broker.local:1883\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker != "tcp://broker.local:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if time.Duration(cfg.Period) != 200*time.Millisecond {
		t.Errorf("Period default: got %v", time.Duration(cfg.Period))
	}
	if cfg.InputMode != ModeFirstValid {
		t.Errorf("InputMode default: got %q", cfg.InputMode)
	}
	if cfg.OverridePercent != 30 {
		t.Errorf("OverridePercent default: got %v", cfg.OverridePercent)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
broker: tcp://broker.local:1883
http_addr: ":9090"
period: 100ms
input_mode: fixed
fixed_instance: 1
source_timeout: 1s
gesture_hold: 250ms
override_percent: 5
gpio:
  enabled: true
  chip: gpiochip1
  pin: 22
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if time.Duration(cfg.Period) != 100*time.Millisecond {
		t.Errorf("Period: got %v", time.Duration(cfg.Period))
	}
	if time.Duration(cfg.SourceTimeout) != time.Second {
		t.Errorf("SourceTimeout: got %v", time.Duration(cfg.SourceTimeout))
	}
	if time.Duration(cfg.GestureHold) != 250*time.Millisecond {
		t.Errorf("GestureHold: got %v", time.Duration(cfg.GestureHold))
	}
	if cfg.InputMode != ModeFixed || cfg.FixedInstance != 1 {
		t.Errorf("mode: got %q/%d", cfg.InputMode, cfg.FixedInstance)
	}
	if !cfg.GPIO.Enabled || cfg.GPIO.Chip != "gpiochip1" || cfg.GPIO.Pin != 22 {
		t.Errorf("GPIO: got %+v", cfg.GPIO)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "broker: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, "period: fast\n")
	if _, err := Load(path); err == nil {
		t.Error("expected duration parse error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.Broker = "" }},
		{"zero period", func(c *Config) { c.Period = 0 }},
		{"zero timeout", func(c *Config) { c.SourceTimeout = 0 }},
		{"negative hold", func(c *Config) { c.GestureHold = Duration(-time.Second) }},
		{"zero percent", func(c *Config) { c.OverridePercent = 0 }},
		{"unknown mode", func(c *Config) { c.InputMode = "psychic" }},
		{"fixed instance too big", func(c *Config) { c.InputMode = ModeFixed; c.FixedInstance = logic.MaxInputs }},
		{"fixed instance negative", func(c *Config) { c.InputMode = ModeFixed; c.FixedInstance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEngineStrategyMapping(t *testing.T) {
	tests := []struct {
		mode  string
		fixed int
		want  string
	}{
		{ModeFirstValid, 0, "first-valid"},
		{ModePriority, 0, "priority"},
		{ModeFixed, 2, "fixed:2"},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.InputMode = tt.mode
		cfg.FixedInstance = tt.fixed

		eng, err := cfg.Engine()
		if err != nil {
			t.Fatalf("Engine(%q): %v", tt.mode, err)
		}
		if eng.Strategy.Name() != tt.want {
			t.Errorf("strategy: got %q, want %q", eng.Strategy.Name(), tt.want)
		}
		if eng.SourceTimeout != time.Duration(cfg.SourceTimeout) {
			t.Errorf("SourceTimeout: got %v", eng.SourceTimeout)
		}
		if eng.OverridePercent != cfg.OverridePercent {
			t.Errorf("OverridePercent: got %v", eng.OverridePercent)
		}
	}
}
