package serial

import (
	"io"
	"sync"
)

// ReplayPort plays back a captured byte stream as if it arrived on a port.
// Writes and baud changes are recorded so they can be inspected.
type ReplayPort struct {
	r     io.Reader
	chunk int

	mu     sync.Mutex
	bauds  []uint32
	writes int
}

// NewReplayPort returns a port reading from r at most chunk bytes per Read
func NewReplayPort(r io.Reader, chunk int) *ReplayPort {
	if chunk <= 0 {
		chunk = 64
	}
	return &ReplayPort{r: r, chunk: chunk}
}

// Read returns the next chunk of the capture, io.EOF at the end
func (p *ReplayPort) Read(b []byte) (int, error) {
	if len(b) > p.chunk {
		b = b[:p.chunk]
	}
	return p.r.Read(b)
}

// Write discards b and counts the bytes
func (p *ReplayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.writes += len(b)
	p.mu.Unlock()
	return len(b), nil
}

// SetBaudRate records the requested speed
func (p *ReplayPort) SetBaudRate(baud uint32) error {
	p.mu.Lock()
	p.bauds = append(p.bauds, baud)
	p.mu.Unlock()
	return nil
}

// BaudChanges returns the speeds requested so far
func (p *ReplayPort) BaudChanges() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint32(nil), p.bauds...)
}

// Written returns the number of bytes written to the port
func (p *ReplayPort) Written() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

func (p *ReplayPort) Close() error {
	if c, ok := p.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *ReplayPort) Flush() error {
	return nil
}
