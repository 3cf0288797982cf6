// Package link pumps bytes from a serial port into an rx.Receiver and polls
// it for channel frames the way a flight controller loop would.
package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"crsfrx/core"
	"crsfrx/host/serial"
	"crsfrx/protocol"
	"crsfrx/rx"
)

// ChannelHandler receives every decoded channel set
type ChannelHandler func(at time.Time, channels [protocol.MaxChannel]uint16)

// Options configures a Link
type Options struct {
	// PollInterval is the channel poll period, the receiver refresh interval if zero
	PollInterval time.Duration

	// PollEveryByte polls after each received byte instead of on a timer,
	// so no frame is skipped when replaying a capture faster than real time
	PollEveryByte bool

	Logger     *log.Logger
	Clock      core.Clock
	OnChannels ChannelHandler
}

// Link connects a serial port to a receiver. It is the receiver's Transport.
type Link struct {
	port   serial.Port
	rcv    *rx.Receiver
	logger *log.Logger
	clock  core.Clock

	pollInterval  time.Duration
	pollEveryByte bool
	onChannels    ChannelHandler

	trace    core.EventRing
	traceSeq uint32

	// Mutex for writes and baud changes
	writeMutex sync.Mutex

	// Stop channel for graceful shutdown
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	readDone chan struct{}
	pollDone chan struct{}
	readErr  error
}

// New attaches rcv to port. Call Start or Run to begin pumping.
func New(port serial.Port, rcv *rx.Receiver, opts Options) *Link {
	l := &Link{
		port:          port,
		rcv:           rcv,
		logger:        opts.Logger,
		clock:         opts.Clock,
		pollInterval:  opts.PollInterval,
		pollEveryByte: opts.PollEveryByte,
		onChannels:    opts.OnChannels,
		stopChan:      make(chan struct{}),
		readDone:      make(chan struct{}),
		pollDone:      make(chan struct{}),
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.clock == nil {
		l.clock = core.SystemClock
	}
	if l.pollInterval <= 0 {
		l.pollInterval = time.Duration(rcv.RefreshIntervalUs()) * time.Microsecond
	}

	rcv.SetClock(l.clock)
	rcv.SetTrace(&l.trace)
	rcv.SetTransport(l)

	if rcv.Config().Inverted {
		l.logger.Warn("inverted serial requested, host adapters must invert in hardware")
	}
	return l
}

// Start launches the read and poll goroutines
func (l *Link) Start() {
	l.started = true
	go l.readLoop()
	if l.pollEveryByte {
		close(l.pollDone)
		return
	}
	go l.pollLoop()
}

// Run pumps until ctx is cancelled or the port reaches end of input
func (l *Link) Run(ctx context.Context) error {
	l.Start()

	select {
	case <-ctx.Done():
	case <-l.readDone:
	}

	if err := l.Close(); err != nil {
		return err
	}
	if l.readErr != nil && !errors.Is(l.readErr, io.EOF) {
		return l.readErr
	}
	return nil
}

// Done is closed when the read loop exits
func (l *Link) Done() <-chan struct{} {
	return l.readDone
}

// Close stops the loops and closes the serial port
func (l *Link) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})

	// Closing the port unblocks a pending read
	err := l.port.Close()
	if l.started {
		<-l.readDone
		<-l.pollDone
	}

	// Log whatever the final bytes produced
	l.Poll(time.Now())
	return err
}

// readLoop continuously reads from serial port and feeds the receiver
func (l *Link) readLoop() {
	defer close(l.readDone)

	buffer := make([]byte, 256)

	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		// Read from serial port
		n, err := l.port.Read(buffer)
		if n > 0 {
			l.receive(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.readErr = err
				return
			}
			select {
			case <-l.stopChan:
				return
			default:
			}
			l.logger.Error("serial read failed", "err", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// receive stamps a chunk with the time it was read
func (l *Link) receive(data []byte) {
	now := l.clock.Micros()
	for _, b := range data {
		l.rcv.DataReceiveAt(b, now)
		if l.pollEveryByte {
			l.Poll(time.Now())
		}
	}
}

func (l *Link) pollLoop() {
	defer close(l.pollDone)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case now := <-ticker.C:
			l.Poll(now)
		}
	}
}

// Poll runs one flight loop cycle: decode a pending channel frame, send
// pending telemetry and log receive events. It reports whether a frame
// was decoded.
func (l *Link) Poll(now time.Time) bool {
	complete := l.rcv.FrameStatus() == rx.FrameComplete
	if complete && l.onChannels != nil {
		l.onChannels(now, l.rcv.Channels())
	}

	if err := l.rcv.SendTelemetryData(); err != nil {
		l.logger.Error("telemetry write failed", "err", err)
	}

	l.drainTrace()
	return complete
}

// SetBaudRate switches the port speed. Called by the receiver on fallback.
func (l *Link) SetBaudRate(baud uint32) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	return l.port.SetBaudRate(baud)
}

// Write sends telemetry bytes to the port
func (l *Link) Write(p []byte) (int, error) {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	return l.port.Write(p)
}

var _ rx.Transport = (*Link)(nil)
