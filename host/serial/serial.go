package serial

import (
	"errors"
	"fmt"
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - termios serial (using github.com/pkg/term), default
// - Native serial (using github.com/tarm/serial)
// - Replay of a captured byte stream (for offline decoding and testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered data
	Flush() error

	// SetBaudRate changes the line speed of an open port
	SetBaudRate(baud uint32) error
}

// Backend names
const (
	BackendTerm = "term"
	BackendTarm = "tarm"
)

// ErrBackendUnavailable is returned when a backend is not built for this platform
var ErrBackendUnavailable = errors.New("serial backend not available on this platform")

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (420000 for CRSF receivers)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// Backend selects the implementation, BackendTerm or BackendTarm
	Backend string
}

// DefaultConfig returns a default configuration for a CRSF receiver
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        420000,
		ReadTimeout: 100,
		Backend:     BackendTerm,
	}
}

// Open opens the port with the configured backend
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.Backend {
	case BackendTerm, "":
		return openTerm(cfg)
	case BackendTarm:
		return openTarm(cfg)
	}
	return nil, fmt.Errorf("unknown serial backend %q", cfg.Backend)
}
