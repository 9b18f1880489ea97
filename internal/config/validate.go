package config

import (
	"fmt"

	"github.com/upstools/quintctl/internal/catalog"
)

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	s := cfg.Serial

	if s.Device == "" {
		return fmt.Errorf("serial: device required")
	}
	if s.BaudRate <= 0 {
		return fmt.Errorf("serial: baud_rate must be > 0, got %d", s.BaudRate)
	}
	if s.DataBits != 7 && s.DataBits != 8 {
		return fmt.Errorf("serial: data_bits must be 7 or 8, got %d", s.DataBits)
	}
	switch s.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("serial: parity must be N, E or O, got %q", s.Parity)
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("serial: stop_bits must be 1 or 2, got %d", s.StopBits)
	}
	if s.SlaveID == 0 {
		return fmt.Errorf("serial: slave_id 0 is the broadcast address")
	}
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("serial: timeout_ms must be > 0, got %d", s.TimeoutMs)
	}

	m := cfg.Monitor

	if m.IntervalMs <= 0 {
		return fmt.Errorf("monitor: interval_ms must be > 0, got %d", m.IntervalMs)
	}
	// 125 registers is the Modbus protocol ceiling for one read.
	if m.ChunkWords == 0 || m.ChunkWords > 125 {
		return fmt.Errorf("monitor: chunk_words must be 1..125, got %d", m.ChunkWords)
	}
	if m.MinChangeRel != nil && *m.MinChangeRel < 0 {
		return fmt.Errorf("monitor: min_change_rel must be >= 0, got %v", *m.MinChangeRel)
	}
	if m.MinChangeAbs != nil && *m.MinChangeAbs < 0 {
		return fmt.Errorf("monitor: min_change_abs must be >= 0, got %v", *m.MinChangeAbs)
	}

	cat := catalog.Quint24DC()
	for _, a := range m.SkipAddrs {
		if _, ok := cat.ByName(a); ok {
			continue
		}
		if _, ok := catalog.ParseAddr(a); !ok {
			return fmt.Errorf("monitor: skip address %q is neither a register name nor an address", a)
		}
	}

	return nil
}
