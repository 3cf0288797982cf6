// crsf-gen writes synthetic CRSF byte streams for replay and bench tests
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"crsfrx/protocol"
)

func main() {
	var (
		output     = pflag.StringP("output", "o", "-", "Output file, - for stdout")
		frames     = pflag.IntP("frames", "n", 150, "Number of RC channel frames")
		subset     = pflag.BoolP("subset", "s", false, "Send subset channel frames (protocol v3)")
		statsEvery = pflag.Int("link-stats-every", 25, "Insert link statistics after this many channel frames, 0 disables")
		v3Stats    = pflag.Bool("v3-stats", false, "Use the RX/TX link statistics frames instead of the standard one")
		corrupt    = pflag.Int("corrupt-every", 0, "Corrupt the CRC of every Nth frame, 0 disables")
		noise      = pflag.Int("noise", 0, "Random bytes inserted between frames")
		seed       = pflag.Int64("seed", 1, "Random seed for sweeps and noise")
		verbose    = pflag.BoolP("verbose", "v", false, "Log each frame")
		version    = pflag.Bool("version", false, "Print version and exit")
	)
	pflag.Parse()

	if *version {
		fmt.Printf("crsf-gen %s\n", protocol.Version)
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "crsf-gen"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	g := &generator{
		Frames:         *frames,
		Subset:         *subset,
		LinkStatsEvery: *statsEvery,
		V3Stats:        *v3Stats,
		CorruptEvery:   *corrupt,
		Noise:          *noise,
		Seed:           *seed,
		Logger:         logger,
	}

	var w io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatal("failed to create output", "err", err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	n, err := g.WriteTo(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		logger.Fatal("write failed", "err", err)
	}
	logger.Info("capture written", "bytes", n, "frames", g.written, "corrupted", g.corrupted)
}
