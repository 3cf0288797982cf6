package telemetry

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crsfrx/protocol"
	"crsfrx/rx"
)

func TestChannelStream(t *testing.T) {
	tr, _ := newTestTracker()
	tr.SetLinkQualityDirect(90, rx.SourceCRSF)

	stream := NewChannelStream(tr, log.New(&strings.Builder{}))
	srv := httptest.NewServer(stream)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return stream.ClientCount() == 1 }, time.Second, time.Millisecond)

	var ch [protocol.MaxChannel]uint16
	for i := range ch {
		ch[i] = protocol.ChannelValueMid
	}
	ch[2] = protocol.ChannelValueMin
	at := time.UnixMilli(1700000000123)
	stream.Publish(at, ch)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ChannelMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "channels", msg.Type)
	assert.Equal(t, int64(1700000000123), msg.Time)
	assert.Equal(t, ch, msg.Raw)
	assert.Equal(t, uint16(1500), msg.Pulse[0])
	assert.Equal(t, uint16(988), msg.Pulse[2])
	require.NotNil(t, msg.Link)
	assert.Equal(t, uint8(90), msg.Link.LinkQuality)

	conn.Close()
	require.Eventually(t, func() bool { return stream.ClientCount() == 0 }, time.Second, time.Millisecond)
}

type fakeLine struct {
	values []int
	closed bool
}

func (l *fakeLine) SetValue(v int) error {
	l.values = append(l.values, v)
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func TestLinkLED(t *testing.T) {
	tr, clock := newTestTracker()
	line := &fakeLine{}
	led := newLinkLED(tr, line)

	// Link down blinks
	require.NoError(t, led.Update())
	require.NoError(t, led.Update())
	require.NoError(t, led.Update())
	assert.Equal(t, []int{1, 0, 1}, line.values)

	// Link up holds the LED on
	tr.SetRSSI(80, rx.SourceCRSF)
	require.NoError(t, led.Update())
	require.NoError(t, led.Update())
	assert.Equal(t, []int{1, 0, 1}, line.values)

	clock.t = clock.t.Add(time.Second)
	require.NoError(t, led.Update())
	assert.Equal(t, []int{1, 0, 1, 0}, line.values)
}
