package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRingSince(t *testing.T) {
	var r EventRing

	r.Record(EvtFrameComplete, 100, 0x16, 26)
	r.Record(EvtCRCError, 200, 0xAD, 0x00)

	events, next, lost := r.Since(0, nil)
	require.Len(t, events, 2)
	assert.Equal(t, uint32(2), next)
	assert.Equal(t, uint32(0), lost)
	assert.Equal(t, uint8(EvtFrameComplete), events[0].EventType)
	assert.Equal(t, uint32(200), events[1].Clock)

	events, next, _ = r.Since(next, events[:0])
	assert.Empty(t, events)
	assert.Equal(t, uint32(2), next)
}

func TestEventRingOverwrite(t *testing.T) {
	var r EventRing

	for i := uint32(0); i < TraceRingSize+5; i++ {
		r.Record(EvtResync, i, i, 0)
	}

	events, next, lost := r.Since(0, nil)
	assert.Len(t, events, TraceRingSize)
	assert.Equal(t, uint32(TraceRingSize+5), next)
	assert.Equal(t, uint32(5), lost)
	assert.Equal(t, uint32(5), events[0].Value1)
	assert.Equal(t, uint32(TraceRingSize+4), events[len(events)-1].Value1)
}

func TestEventRingClearAndDump(t *testing.T) {
	var r EventRing
	r.Record(EvtBaudFallback, 42, 420000, 0)

	var lines []string
	r.Dump(func(s string) { lines = append(lines, s) })
	require.Len(t, lines, 3)
	assert.True(t, strings.Contains(lines[1], "BAUD_FALLBACK"))
	assert.True(t, strings.Contains(lines[1], "v1=420000"))

	r.Clear()
	events, next, lost := r.Since(7, nil)
	assert.Empty(t, events)
	assert.Equal(t, uint32(0), next)
	assert.Equal(t, uint32(0), lost)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "FRAME", EventName(EvtFrameComplete))
	assert.Equal(t, "UNKNOWN", EventName(0))
}
