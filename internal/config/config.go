// Package config loads the optional quintctl config file. Flags
// override anything set here; the file mostly exists so a permanently
// wired UPS does not need the serial parameters on every invocation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	IntervalMs int    `yaml:"interval_ms"`
	ChunkWords uint16 `yaml:"chunk_words"`

	// Optional default thresholds; nil means not configured.
	MinChangeRel *float64 `yaml:"min_change_rel"`
	MinChangeAbs *float64 `yaml:"min_change_abs"`

	// Extra addresses to skip, as name or address literals, on top of
	// the built-in skip set.
	SkipAddrs []string `yaml:"skip_addrs"`
}

// Default returns the configuration for a factory-wired QUINT UPS.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Device:    "/dev/ttyUSB0",
			BaudRate:  115200,
			DataBits:  8,
			Parity:    "E",
			StopBits:  1,
			SlaveID:   192,
			TimeoutMs: 1000,
		},
		Monitor: MonitorConfig{
			IntervalMs: 1000,
			ChunkWords: 16,
		},
	}
}

// Load reads path over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
