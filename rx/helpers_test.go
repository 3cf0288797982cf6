package rx

import (
	"github.com/stretchr/testify/require"

	"crsfrx/protocol"
)

// byteSpacingUs is roughly one byte time at 420000 baud
const byteSpacingUs = 24

type feeder struct {
	r       *Receiver
	now     uint32
	spacing uint32
}

func newFeeder(r *Receiver) *feeder {
	return &feeder{r: r, now: 10000, spacing: byteSpacingUs}
}

func (f *feeder) feed(data []byte) {
	for _, b := range data {
		f.r.DataReceiveAt(b, f.now)
		f.now += f.spacing
	}
}

// frame feeds data and then idles for a frame interval
func (f *feeder) frame(data []byte) {
	f.feed(data)
	f.idle(protocol.FrameIntervalUs)
}

func (f *feeder) idle(us uint32) {
	f.now += us
}

// testingT is satisfied by *testing.T and *rapid.T
type testingT = require.TestingT

func encode(t testingT, fn func(out protocol.OutputBuffer) error) []byte {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	out := protocol.NewSliceOutput(protocol.FrameSizeMax)
	require.NoError(t, fn(out))
	return append([]byte(nil), out.Result()...)
}

func channelsFrame(t testingT, channels [protocol.MaxChannel]uint16) []byte {
	return encode(t, func(out protocol.OutputBuffer) error {
		return protocol.EncodeRCChannels(out, &channels)
	})
}

func uniformChannels(v uint16) [protocol.MaxChannel]uint16 {
	var ch [protocol.MaxChannel]uint16
	for i := range ch {
		ch[i] = v
	}
	return ch
}

type fakeTransport struct {
	bauds   []uint32
	writes  [][]byte
	baudErr error
}

func (t *fakeTransport) SetBaudRate(baud uint32) error {
	t.bauds = append(t.bauds, baud)
	return t.baudErr
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	t.writes = append(t.writes, append([]byte(nil), p...))
	return len(p), nil
}

type rssiCall struct {
	value  uint16
	source Source
}

type dbmCall struct {
	dbm    int16
	source Source
}

type lqCall struct {
	lq     uint8
	source Source
}

type fakeSink struct {
	reports  []LinkReport
	rssi     []rssiCall
	dbm      []dbmCall
	lq       []lqCall
	downlink []DownlinkReport
}

func (s *fakeSink) SetLinkStatistics(r LinkReport) { s.reports = append(s.reports, r) }

func (s *fakeSink) SetRSSI(value uint16, source Source) {
	s.rssi = append(s.rssi, rssiCall{value, source})
}

func (s *fakeSink) SetRSSIDbm(dbm int16, source Source) {
	s.dbm = append(s.dbm, dbmCall{dbm, source})
}

func (s *fakeSink) SetLinkQualityDirect(lq uint8, source Source) {
	s.lq = append(s.lq, lqCall{lq, source})
}

func (s *fakeSink) SetDownlinkStatistics(r DownlinkReport) {
	s.downlink = append(s.downlink, r)
}

type fakeCollaborators struct {
	mspFrames    [][]byte
	mspComplete  bool
	mspResponses int
	deviceInfos  int
	displayPort  [][]byte
	commands     [][]byte
}

func (c *fakeCollaborators) BufferMSPFrame(frame []byte) bool {
	c.mspFrames = append(c.mspFrames, append([]byte(nil), frame...))
	return c.mspComplete
}

func (c *fakeCollaborators) ScheduleMSPResponse()        { c.mspResponses++ }
func (c *fakeCollaborators) ScheduleDeviceInfoResponse() { c.deviceInfos++ }

func (c *fakeCollaborators) ProcessDisplayPortCmd(payload []byte) {
	c.displayPort = append(c.displayPort, append([]byte(nil), payload...))
}

func (c *fakeCollaborators) ProcessCommand(payload []byte) {
	c.commands = append(c.commands, append([]byte(nil), payload...))
}
