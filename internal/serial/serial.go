// Package serial opens the upstream byte source: a serial-line device read
// with a short timeout per call so the forwarding loop stays responsive to
// termination signals without busy-spinning.
package serial

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	tarm "github.com/tarm/serial"
)

// Config identifies the serial source.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// Default fills in the conventional device settings.
func (c *Config) Default() {
	c.Device = "/dev/ttyACM0"
	c.Baud = 115200
	c.ReadTimeout = 10 * time.Millisecond
}

// Port is an open serial source.
type Port struct {
	p *tarm.Port
}

// Open opens the configured device.
func Open(cfg Config) (*Port, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", cfg.Device, err)
	}
	return &Port{p: p}, nil
}

// Read reads one chunk, blocking at most the configured read timeout.
func (p *Port) Read(buf []byte) (int, error) {
	return p.p.Read(buf)
}

// Close closes the device.
func (p *Port) Close() error {
	return p.p.Close()
}

// IsNoData reports whether a read result means "no data yet" rather than a
// failure. tarm/serial surfaces an expired read timeout as io.EOF on POSIX
// systems; deadline and net timeout errors cover other byte sources.
func IsNoData(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
