package telemetry

import "crsfrx/rx"

// Fanout forwards every reading to each sink in order
type Fanout []rx.LinkQualitySink

func (f Fanout) SetLinkStatistics(r rx.LinkReport) {
	for _, s := range f {
		s.SetLinkStatistics(r)
	}
}

func (f Fanout) SetRSSI(value uint16, source rx.Source) {
	for _, s := range f {
		s.SetRSSI(value, source)
	}
}

func (f Fanout) SetRSSIDbm(dbm int16, source rx.Source) {
	for _, s := range f {
		s.SetRSSIDbm(dbm, source)
	}
}

func (f Fanout) SetLinkQualityDirect(lq uint8, source rx.Source) {
	for _, s := range f {
		s.SetLinkQualityDirect(lq, source)
	}
}

// SetDownlinkStatistics forwards to the sinks that track the downlink
func (f Fanout) SetDownlinkStatistics(r rx.DownlinkReport) {
	for _, s := range f {
		if ds, ok := s.(rx.DownlinkSink); ok {
			ds.SetDownlinkStatistics(r)
		}
	}
}

var (
	_ rx.LinkQualitySink = Fanout(nil)
	_ rx.DownlinkSink    = Fanout(nil)
)
