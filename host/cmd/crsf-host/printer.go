package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"crsfrx/host/link"
	"crsfrx/protocol"
)

// channelPrinter writes one line per decoded channel set
type channelPrinter struct {
	w      io.Writer
	format *strftime.Strftime
	sb     strings.Builder
}

func newChannelPrinter(w io.Writer, pattern string) (*channelPrinter, error) {
	f, err := strftime.New(pattern, strftime.WithMilliseconds('L'))
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp format %q: %w", pattern, err)
	}
	return &channelPrinter{w: w, format: f}, nil
}

func (p *channelPrinter) Print(at time.Time, channels [protocol.MaxChannel]uint16) {
	p.sb.Reset()
	p.sb.WriteString(p.format.FormatString(at))
	for i, v := range channels {
		fmt.Fprintf(&p.sb, " %d:%d", i+1, protocol.ChannelToPulseWidth(v))
	}
	p.sb.WriteByte('\n')
	io.WriteString(p.w, p.sb.String())
}

// chain calls every non-nil handler in order
func chain(handlers ...link.ChannelHandler) link.ChannelHandler {
	var hs []link.ChannelHandler
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	if len(hs) == 0 {
		return nil
	}
	return func(at time.Time, channels [protocol.MaxChannel]uint16) {
		for _, h := range hs {
			h(at, channels)
		}
	}
}
