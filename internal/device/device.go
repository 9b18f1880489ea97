// Package device is the Modbus RTU transport to the UPS, built on
// goburrow/modbus. It exposes word-level reads and writes; framing,
// CRC and serial timing live in the library.
package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/modbus"
	log "github.com/sirupsen/logrus"
)

// MaxReadWords is the largest register count the UPS answers in a
// single request.
const MaxReadWords = 16

// Config is the serial line configuration. Defaults() matches the
// QUINT wiring: 115200 8E1, slave id 192.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	SlaveID  byte
	Timeout  time.Duration
}

// Defaults returns the line parameters the UPS ships with.
func Defaults() Config {
	return Config{
		Device:   "/dev/ttyUSB0",
		BaudRate: 115200,
		DataBits: 8,
		Parity:   "E",
		StopBits: 1,
		SlaveID:  192,
		Timeout:  time.Second,
	}
}

// wordClient is the slice of modbus.Client the UPS uses.
type wordClient interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// dialFunc makes ONE connection attempt and returns the client plus
// the handle to close it with.
type dialFunc func(Config) (wordClient, io.Closer, error)

// UPS owns the serial connection. On a read/write failure the
// connection is closed and the error reported; the next call redials,
// so one bad sample does not kill a long-running monitor.
type UPS struct {
	cfg    Config
	dial   dialFunc
	client wordClient
	conn   io.Closer
}

// Open connects to the UPS. Failure to open the port is fatal to the
// caller; there is nothing to retry against a missing device node.
func Open(cfg Config) (*UPS, error) {
	return open(cfg, dialRTU)
}

func open(cfg Config, dial dialFunc) (*UPS, error) {
	u := &UPS{cfg: cfg, dial: dial}
	if err := u.connect(); err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return u, nil
}

func dialRTU(cfg Config) (wordClient, io.Closer, error) {
	h := modbus.NewRTUClientHandler(cfg.Device)
	h.BaudRate = cfg.BaudRate
	h.DataBits = cfg.DataBits
	h.Parity = cfg.Parity
	h.StopBits = cfg.StopBits
	h.SlaveId = cfg.SlaveID
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, nil, err
	}
	return modbus.NewClient(h), h, nil
}

func (u *UPS) connect() error {
	client, conn, err := u.dial(u.cfg)
	if err != nil {
		return err
	}
	u.client = client
	u.conn = conn
	return nil
}

func (u *UPS) ensure() error {
	if u.client != nil {
		return nil
	}
	if err := u.connect(); err != nil {
		log.WithError(err).Errorf("reconnect %s failed", u.cfg.Device)
		return err
	}
	log.Debugf("reconnected %s", u.cfg.Device)
	return nil
}

// ReadWords reads count input registers starting at addr.
func (u *UPS) ReadWords(addr, count uint16) ([]uint16, error) {
	if count == 0 {
		return nil, nil
	}
	if err := u.ensure(); err != nil {
		return nil, err
	}

	data, err := u.client.ReadInputRegisters(addr, count)
	if err != nil {
		u.fail("read", addr, err)
		return nil, err
	}
	if len(data) < int(count)*2 {
		err := fmt.Errorf("read 0x%04x: short response: %d bytes for %d registers", addr, len(data), count)
		u.fail("read", addr, err)
		return nil, err
	}
	return unpackWords(data[:int(count)*2]), nil
}

// WriteWords writes values to consecutive registers starting at addr.
// The UPS rejects the single-register write function with an
// IllegalFunction exception, so writes always use FC16.
func (u *UPS) WriteWords(addr uint16, values []uint16) error {
	if len(values) == 0 {
		return nil
	}
	if err := u.ensure(); err != nil {
		return err
	}

	if _, err := u.client.WriteMultipleRegisters(addr, uint16(len(values)), packWords(values)); err != nil {
		u.fail("write", addr, err)
		return err
	}
	return nil
}

// fail logs the failure, distinguishing a device-reported exception
// response from a host-side transport error, and drops the connection
// so the next call redials.
func (u *UPS) fail(op string, addr uint16, err error) {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		log.Errorf("%s 0x%04x: device exception response: %v", op, addr, err)
	} else {
		log.Errorf("%s 0x%04x: transport error: %v", op, addr, err)
	}
	if cerr := u.Close(); cerr != nil {
		log.WithError(cerr).Warn("close after failure")
	}
}

// Close closes the serial connection. Safe to call repeatedly and on
// an already-dead connection.
func (u *UPS) Close() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	u.client = nil
	return err
}

// unpackWords converts the big-endian wire bytes into register words.
func unpackWords(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

// packWords is the inverse of unpackWords.
func packWords(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[2*i] = byte(w >> 8)
		out[2*i+1] = byte(w)
	}
	return out
}
