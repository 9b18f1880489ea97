package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(&cfg))

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, "E", cfg.Serial.Parity)
	assert.Equal(t, uint8(192), cfg.Serial.SlaveID)
	assert.Equal(t, 1000, cfg.Monitor.IntervalMs)
	assert.Nil(t, cfg.Monitor.MinChangeRel)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quintctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serial:
  device: /dev/ttyAMA0
monitor:
  min_change_abs: 5
  skip_addrs:
    - OUT_LUI_BatteryVoltage
    - "0x7432"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(&cfg))

	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Device)
	// Untouched fields keep their defaults.
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, uint16(16), cfg.Monitor.ChunkWords)

	require.NotNil(t, cfg.Monitor.MinChangeAbs)
	assert.Equal(t, 5.0, *cfg.Monitor.MinChangeAbs)
	assert.Equal(t, []string{"OUT_LUI_BatteryVoltage", "0x7432"}, cfg.Monitor.SkipAddrs)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty device", func(c *Config) { c.Serial.Device = "" }},
		{"zero baud", func(c *Config) { c.Serial.BaudRate = 0 }},
		{"bad parity", func(c *Config) { c.Serial.Parity = "X" }},
		{"bad data bits", func(c *Config) { c.Serial.DataBits = 9 }},
		{"bad stop bits", func(c *Config) { c.Serial.StopBits = 3 }},
		{"broadcast slave id", func(c *Config) { c.Serial.SlaveID = 0 }},
		{"zero timeout", func(c *Config) { c.Serial.TimeoutMs = 0 }},
		{"zero interval", func(c *Config) { c.Monitor.IntervalMs = 0 }},
		{"oversized chunk", func(c *Config) { c.Monitor.ChunkWords = 126 }},
		{"negative rel threshold", func(c *Config) { v := -0.1; c.Monitor.MinChangeRel = &v }},
		{"negative abs threshold", func(c *Config) { v := -1.0; c.Monitor.MinChangeAbs = &v }},
		{"bogus skip addr", func(c *Config) { c.Monitor.SkipAddrs = []string{"bogus"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, Validate(&cfg))
		})
	}
}

func TestValidate_SkipAddrAcceptsNamesAndLiterals(t *testing.T) {
	cfg := Default()
	cfg.Monitor.SkipAddrs = []string{"OUT_LUI_OutputVoltage", "0x7432", "1024"}
	assert.NoError(t, Validate(&cfg))
}
