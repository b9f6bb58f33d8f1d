//go:build !wasm

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort is the Port backend for a real OS-level serial device,
// wrapping github.com/tarm/serial's blocking read/write port.
type NativePort struct {
	port *serial.Port
}

// Open opens the serial device named in cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("serial: nil config")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial: no device path configured")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port}, nil
}

func (p *NativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *NativePort) Write(b []byte) (int, error) { return p.port.Write(b) }

func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Flush is a no-op: tarm/serial has no buffer to discard, and Write
// already blocks until the OS accepts the bytes.
func (p *NativePort) Flush() error {
	return nil
}
