package link

import (
	"sync"

	"github.com/charmbracelet/log"

	"crsfrx/rx"
)

// MSP over CRSF chunk status byte
const (
	mspStatusSeqMask     = 0x0F
	mspStatusStart       = 0x10
	mspStatusVersionMask = 0x60
	mspStatusVersionV1   = 0x20
	mspStatusError       = 0x80
)

// MSPRequest is a reassembled MSP request
type MSPRequest struct {
	Command byte
	Payload []byte
}

// MSPAssembler reassembles MSP v1 requests split across CRSF MSP frames.
// It runs in the receive context; completed requests are handed to the
// poll side through Take.
type MSPAssembler struct {
	mu       sync.Mutex
	active   bool
	seq      byte
	size     int
	command  byte
	payload  []byte
	complete *MSPRequest
}

// BufferMSPFrame consumes one chunk and reports whether a request is complete
func (m *MSPAssembler) BufferMSPFrame(frame []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(frame) == 0 {
		return false
	}
	status := frame[0]
	seq := status & mspStatusSeqMask
	data := frame[1:]

	if status&mspStatusError != 0 {
		m.active = false
		return false
	}

	if status&mspStatusStart != 0 {
		if status&mspStatusVersionMask != mspStatusVersionV1 || len(data) < 2 {
			m.active = false
			return false
		}
		m.active = true
		m.size = int(data[0])
		m.command = data[1]
		m.payload = m.payload[:0]
		data = data[2:]
	} else if !m.active || seq != (m.seq+1)&mspStatusSeqMask {
		// Lost a chunk
		m.active = false
		return false
	}
	m.seq = seq

	if need := m.size - len(m.payload); len(data) > need {
		data = data[:need]
	}
	m.payload = append(m.payload, data...)
	if len(m.payload) < m.size {
		return false
	}

	m.active = false
	m.complete = &MSPRequest{
		Command: m.command,
		Payload: append([]byte(nil), m.payload...),
	}
	return true
}

// Take returns the last completed request, if any
func (m *MSPAssembler) Take() (MSPRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.complete == nil {
		return MSPRequest{}, false
	}
	req := *m.complete
	m.complete = nil
	return req, true
}

// Monitor is the passive host side of the collaborators: it logs what a
// flight controller would act on and counts the requests.
type Monitor struct {
	logger *log.Logger
	msp    *MSPAssembler

	mu          sync.Mutex
	mspRequests int
	deviceInfo  int
	displayPort int
	commands    int
}

// MonitorCounts is a snapshot of the requests a Monitor has seen
type MonitorCounts struct {
	MSPRequests int
	DeviceInfo  int
	DisplayPort int
	Commands    int
}

// NewMonitor creates a Monitor logging to logger
func NewMonitor(logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{logger: logger, msp: &MSPAssembler{}}
}

// Attach registers the monitor with every collaborator hook of rcv
func (m *Monitor) Attach(rcv *rx.Receiver) {
	rcv.SetMSPBridge(m.msp)
	rcv.SetTelemetryScheduler(m)
	rcv.SetDisplayPortProcessor(m)
	rcv.SetCommandProcessor(m)
}

func (m *Monitor) ScheduleMSPResponse() {
	m.mu.Lock()
	m.mspRequests++
	m.mu.Unlock()

	if req, ok := m.msp.Take(); ok {
		m.logger.Debug("msp request", "cmd", req.Command, "size", len(req.Payload))
	}
}

func (m *Monitor) ScheduleDeviceInfoResponse() {
	m.mu.Lock()
	m.deviceInfo++
	m.mu.Unlock()

	m.logger.Debug("device ping")
}

func (m *Monitor) ProcessDisplayPortCmd(payload []byte) {
	m.mu.Lock()
	m.displayPort++
	m.mu.Unlock()

	if len(payload) > 0 {
		m.logger.Debug("displayport command", "subcmd", payload[0])
	}
}

func (m *Monitor) ProcessCommand(payload []byte) {
	m.mu.Lock()
	m.commands++
	m.mu.Unlock()

	if len(payload) >= 2 {
		m.logger.Info("command", "cmd", payload[0], "subcmd", payload[1])
	}
}

// Counts returns how many requests of each kind arrived
func (m *Monitor) Counts() MonitorCounts {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MonitorCounts{
		MSPRequests: m.mspRequests,
		DeviceInfo:  m.deviceInfo,
		DisplayPort: m.displayPort,
		Commands:    m.commands,
	}
}

var (
	_ rx.MSPBridge            = (*MSPAssembler)(nil)
	_ rx.TelemetryScheduler   = (*Monitor)(nil)
	_ rx.DisplayPortProcessor = (*Monitor)(nil)
	_ rx.CommandProcessor     = (*Monitor)(nil)
)
