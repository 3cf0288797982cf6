// Package telemetry implements the RSSI and link quality subsystem on the host
package telemetry

import (
	"sync"
	"time"

	"crsfrx/protocol"
	"crsfrx/rx"
)

// DefaultStaleTimeout marks the link down when no statistics arrive for this long
const DefaultStaleTimeout = time.Duration(protocol.LinkStatusUpdateTimeoutUs) * time.Microsecond

// Snapshot is the link state at one instant
type Snapshot struct {
	Link        rx.LinkReport     `json:"link"`
	Downlink    rx.DownlinkReport `json:"downlink"`
	RSSIPercent uint16            `json:"rssi_percent"`
	RSSIDbm     int16             `json:"rssi_dbm"`
	LinkQuality uint8             `json:"link_quality"`
	LastUpdate  time.Time         `json:"last_update"`
	Up          bool              `json:"up"`
}

// Tracker keeps the latest link state reported for one source. Readings
// tagged with any other source are ignored.
type Tracker struct {
	source       rx.Source
	staleTimeout time.Duration
	now          func() time.Time

	mu    sync.Mutex
	state Snapshot
}

// NewTracker creates a tracker for readings from source
func NewTracker(source rx.Source, staleTimeout time.Duration) *Tracker {
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleTimeout
	}
	return &Tracker{
		source:       source,
		staleTimeout: staleTimeout,
		now:          time.Now,
	}
}

func (t *Tracker) touch() {
	t.state.LastUpdate = t.now()
}

func (t *Tracker) SetLinkStatistics(r rx.LinkReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Link = r
	t.state.LinkQuality = r.LinkQuality
	t.touch()
}

func (t *Tracker) SetDownlinkStatistics(r rx.DownlinkReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Downlink = r
}

func (t *Tracker) SetRSSI(value uint16, source rx.Source) {
	if source != t.source {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.RSSIPercent = value
	t.touch()
}

func (t *Tracker) SetRSSIDbm(dbm int16, source rx.Source) {
	if source != t.source {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.RSSIDbm = dbm
	t.touch()
}

func (t *Tracker) SetLinkQualityDirect(lq uint8, source rx.Source) {
	if source != t.source {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.LinkQuality = lq
	t.touch()
}

// Snapshot returns the current state. The link is up while statistics
// are younger than the stale timeout.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	s.Up = !s.LastUpdate.IsZero() && t.now().Sub(s.LastUpdate) < t.staleTimeout
	return s
}

var (
	_ rx.LinkQualitySink = (*Tracker)(nil)
	_ rx.DownlinkSink    = (*Tracker)(nil)
)
