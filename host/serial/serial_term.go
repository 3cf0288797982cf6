//go:build linux || darwin

package serial

import (
	"fmt"
	"time"

	"github.com/pkg/term"
)

// TermPort drives the port through termios, which can switch speed in place
type TermPort struct {
	t   *term.Term
	cfg Config
}

func openTerm(cfg *Config) (Port, error) {
	t, err := term.Open(cfg.Device, term.RawMode, term.Speed(cfg.Baud))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := t.SetReadTimeout(time.Duration(cfg.ReadTimeout) * time.Millisecond); err != nil {
			t.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Device, err)
		}
	}

	return &TermPort{t: t, cfg: *cfg}, nil
}

// Read reads data from the serial port
func (p *TermPort) Read(b []byte) (int, error) {
	return p.t.Read(b)
}

// Write writes data to the serial port
func (p *TermPort) Write(b []byte) (int, error) {
	return p.t.Write(b)
}

// SetBaudRate changes the line speed without closing the port
func (p *TermPort) SetBaudRate(baud uint32) error {
	if err := p.t.SetSpeed(int(baud)); err != nil {
		return fmt.Errorf("failed to set %s to %d baud: %w", p.cfg.Device, baud, err)
	}
	p.cfg.Baud = int(baud)
	return nil
}

// Close closes the serial port
func (p *TermPort) Close() error {
	return p.t.Close()
}

// Flush discards unread input and unsent output
func (p *TermPort) Flush() error {
	return p.t.Flush()
}
