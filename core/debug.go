package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a receive-path event for post-mortem analysis
type TraceEvent struct {
	Seq       uint32 // Monotonic sequence number
	EventType uint8  // Event type code
	Clock     uint32 // Timestamp in microseconds
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtFrameComplete = 1 // CRC-valid frame, v1=type v2=size
	EvtCRCError      = 2 // v1=expected v2=received
	EvtFramingError  = 3 // v1=declared size v2=position
	EvtResync        = 4 // Partial frame abandoned on timeout, v1=position
	EvtBaudFallback  = 5 // v1=baud
	EvtAddressDrop   = 6 // v1=type v2=address
	EvtCommandDrop   = 7 // v1=inner crc v2=destination
	EvtBaudChange    = 8 // v1=baud
	EvtTransportErr  = 9 // Transport call failed, v1=event that caused it
)

const (
	TraceRingSize = 32 // Keep last 32 events
)

// EventName returns the printable name of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtFrameComplete:
		return "FRAME"
	case EvtCRCError:
		return "CRC_ERROR"
	case EvtFramingError:
		return "FRAMING_ERROR"
	case EvtResync:
		return "RESYNC"
	case EvtBaudFallback:
		return "BAUD_FALLBACK"
	case EvtAddressDrop:
		return "ADDRESS_DROP"
	case EvtCommandDrop:
		return "COMMAND_DROP"
	case EvtBaudChange:
		return "BAUD_CHANGE"
	case EvtTransportErr:
		return "TRANSPORT_ERROR"
	}
	return "UNKNOWN"
}

// EventRing is a fixed ring of the most recent trace events.
// Record never blocks for longer than the critical section.
type EventRing struct {
	cs   CriticalSection
	ring [TraceRingSize]TraceEvent
	seq  uint32 // Sequence number of the next event
}

// Record captures an event in the ring buffer
func (r *EventRing) Record(eventType uint8, clock, value1, value2 uint32) {
	state := r.cs.Enter()
	r.ring[r.seq%TraceRingSize] = TraceEvent{
		Seq:       r.seq,
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	r.seq++
	r.cs.Exit(state)
}

// Since appends events with sequence number >= from to dst, oldest first.
// It returns the extended slice, the sequence number to pass next time and
// how many events were overwritten before they could be read.
func (r *EventRing) Since(from uint32, dst []TraceEvent) ([]TraceEvent, uint32, uint32) {
	state := r.cs.Enter()
	defer r.cs.Exit(state)

	var lost uint32
	if int32(r.seq-from) < 0 {
		// Reader is ahead, the ring was cleared
		from = r.seq
	}
	if r.seq-from > TraceRingSize {
		lost = r.seq - from - TraceRingSize
		from = r.seq - TraceRingSize
	}
	for s := from; s != r.seq; s++ {
		dst = append(dst, r.ring[s%TraceRingSize])
	}
	return dst, r.seq, lost
}

// Dump outputs the ring buffer, oldest first
func (r *EventRing) Dump(w DebugWriter) {
	if w == nil {
		return
	}

	var buf [TraceRingSize]TraceEvent
	events, _, _ := r.Since(0, buf[:0])

	w("[TRACE] === Trace Ring Dump ===")
	for i := range events {
		evt := &events[i]
		w("[TRACE] " + EventName(evt.EventType) +
			" seq=" + utoa(evt.Seq) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	w("[TRACE] === End Dump ===")
}

// Clear empties the ring
func (r *EventRing) Clear() {
	state := r.cs.Enter()
	r.ring = [TraceRingSize]TraceEvent{}
	r.seq = 0
	r.cs.Exit(state)
}
