package rx

import (
	"crsfrx/core"
	"crsfrx/protocol"
)

// telemetrySlot holds one outbound frame. A newer write replaces an unsent one.
type telemetrySlot struct {
	cs  core.CriticalSection
	buf [protocol.FrameSizeMax]byte
	n   int
}

// WriteTelemetryData stores up to one frame of outbound telemetry
func (r *Receiver) WriteTelemetryData(data []byte) {
	state := r.telemetry.cs.Enter()
	r.telemetry.n = copy(r.telemetry.buf[:], data)
	r.telemetry.cs.Exit(state)
}

// SendTelemetryData writes the pending telemetry frame to the transport and
// empties the slot. It does nothing when the slot is empty or no transport
// is attached.
func (r *Receiver) SendTelemetryData() error {
	if r.transport == nil {
		return nil
	}

	var buf [protocol.FrameSizeMax]byte
	state := r.telemetry.cs.Enter()
	n := copy(buf[:], r.telemetry.buf[:r.telemetry.n])
	r.telemetry.n = 0
	r.telemetry.cs.Exit(state)

	if n == 0 {
		return nil
	}
	_, err := r.transport.Write(buf[:n])
	return err
}
