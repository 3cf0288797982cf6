package link

import (
	"crsfrx/core"
	"crsfrx/protocol"
)

// drainTrace logs receive events recorded since the last call
func (l *Link) drainTrace() {
	var buf [core.TraceRingSize]core.TraceEvent
	events, next, lost := l.trace.Since(l.traceSeq, buf[:0])
	l.traceSeq = next

	if lost > 0 {
		l.logger.Warn("receive trace overrun", "lost", lost)
	}
	for i := range events {
		l.logEvent(&events[i])
	}
}

func (l *Link) logEvent(evt *core.TraceEvent) {
	switch evt.EventType {
	case core.EvtFrameComplete:
		l.logger.Debug("frame", "type", protocol.FrameTypeName(byte(evt.Value1)), "size", evt.Value2, "at", evt.Clock)
	case core.EvtCRCError:
		l.logger.Debug("crc mismatch", "computed", evt.Value1, "received", evt.Value2, "at", evt.Clock)
	case core.EvtFramingError:
		l.logger.Debug("framing error", "size", evt.Value1, "position", evt.Value2, "at", evt.Clock)
	case core.EvtResync:
		l.logger.Debug("partial frame abandoned", "position", evt.Value1, "at", evt.Clock)
	case core.EvtBaudFallback:
		l.logger.Warn("too many bad frames, falling back", "baud", evt.Value1)
	case core.EvtAddressDrop:
		l.logger.Debug("frame for another device", "type", protocol.FrameTypeName(byte(evt.Value1)), "address", evt.Value2)
	case core.EvtCommandDrop:
		l.logger.Debug("command dropped", "crc", evt.Value1, "destination", evt.Value2)
	case core.EvtBaudChange:
		l.logger.Info("baud rate change", "baud", evt.Value1)
	case core.EvtTransportErr:
		l.logger.Error("transport request failed", "cause", core.EventName(uint8(evt.Value1)), "baud", evt.Value2)
	}
}
