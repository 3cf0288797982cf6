package protocol

// OutputBuffer provides an abstraction for writing outgoing frames
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a fixed frame-sized buffer.
// Writes past the end are dropped and flagged.
type ScratchOutput struct {
	buf      [FrameSizeMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{pos: 0}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Overflow reports whether any write was truncated since the last Reset
func (s *ScratchOutput) Overflow() bool {
	return s.overflow
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// SliceOutput implements OutputBuffer over a growable byte slice, for
// tooling that writes many frames back to back
type SliceOutput struct {
	buf []byte
}

// NewSliceOutput creates a SliceOutput with the given initial capacity
func NewSliceOutput(capacity int) *SliceOutput {
	return &SliceOutput{buf: make([]byte, 0, capacity)}
}

func (s *SliceOutput) Output(data []byte) {
	s.buf = append(s.buf, data...)
}

func (s *SliceOutput) CurPosition() int {
	return len(s.buf)
}

func (s *SliceOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *SliceOutput) DataSince(pos int) []byte {
	if pos > len(s.buf) {
		return nil
	}
	return s.buf[pos:]
}

// Result returns the accumulated output data
func (s *SliceOutput) Result() []byte {
	return s.buf
}

// Reset clears the buffer, keeping its capacity
func (s *SliceOutput) Reset() {
	s.buf = s.buf[:0]
}
