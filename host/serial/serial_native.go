//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation. tarm/serial cannot
// change speed on an open port, so SetBaudRate reopens the device.
type NativePort struct {
	mu   sync.Mutex
	port *serial.Port
	cfg  Config
	gen  uint32 // Incremented on every reopen
}

func openTarm(cfg *Config) (Port, error) {
	p := &NativePort{cfg: *cfg}

	port, err := p.open(cfg.Baud)
	if err != nil {
		return nil, err
	}
	p.port = port
	return p, nil
}

func (p *NativePort) open(baud int) (*serial.Port, error) {
	serialConfig := &serial.Config{
		Name:        p.cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(p.cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", p.cfg.Device, err)
	}
	return port, nil
}

func (p *NativePort) current() (*serial.Port, uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port, p.gen
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	port, gen := p.current()
	if port == nil {
		return 0, errors.New("serial port closed")
	}

	n, err := port.Read(b)
	if err != nil {
		// A reopen closed the handle under us; the caller retries on the new one
		if _, now := p.current(); now != gen {
			return n, nil
		}
	}
	return n, err
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	port, _ := p.current()
	if port == nil {
		return 0, errors.New("serial port closed")
	}
	return port.Write(b)
}

// SetBaudRate reopens the port at the new speed
func (p *NativePort) SetBaudRate(baud uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil {
		p.port.Close()
		p.port = nil
	}
	p.gen++

	port, err := p.open(int(baud))
	if err != nil {
		return err
	}
	p.port = port
	p.cfg.Baud = int(baud)
	return nil
}

// Close closes the serial port
func (p *NativePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil {
		err := p.port.Close()
		p.port = nil
		return err
	}
	return nil
}

// Flush discards unread input
func (p *NativePort) Flush() error {
	port, _ := p.current()
	if port == nil {
		return nil
	}
	return port.Flush()
}
