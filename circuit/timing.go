//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/markkurossi/maxpool/p2p"
	"github.com/markkurossi/tabulate"
)

var sizeUnits = []string{"B", "kB", "MB", "GB", "TB"}

// FileSize specifies a data transfer size in bytes.
type FileSize uint64

func (s FileSize) String() string {
	div := uint64(1)
	var unit int
	for unit+1 < len(sizeUnits) && uint64(s) > div*1000 {
		div *= 1000
		unit++
	}
	return fmt.Sprintf("%d%s", uint64(s)/div, sizeUnits[unit])
}

// Timing records the phases of a protocol run together with the
// bytes and flushes the connection did in each phase.
type Timing struct {
	Start   time.Time
	Samples []*Sample

	stats   p2p.IOStats
	xfer    uint64
	flushes uint64
}

// NewTiming creates a new Timing instance for the connection
// statistics stats. The statistics may be shared with earlier runs;
// the samples count only the traffic after this call.
func NewTiming(stats p2p.IOStats) *Timing {
	return &Timing{
		Start:   time.Now(),
		stats:   stats,
		xfer:    stats.Sum(),
		flushes: stats.Flushed.Load(),
	}
}

// Sample ends the current phase and records it with the label.
func (t *Timing) Sample(label string) *Sample {
	start := t.Start
	if len(t.Samples) > 0 {
		start = t.Samples[len(t.Samples)-1].End
	}
	xfer := t.stats.Sum()
	flushes := t.stats.Flushed.Load()

	sample := &Sample{
		Label:   label,
		Start:   start,
		End:     time.Now(),
		Xfer:    FileSize(xfer - t.xfer),
		Flushes: flushes - t.flushes,
	}
	t.xfer = xfer
	t.flushes = flushes

	t.Samples = append(t.Samples, sample)
	return sample
}

// Total returns the duration of the recorded phases.
func (t *Timing) Total() time.Duration {
	if len(t.Samples) == 0 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].End.Sub(t.Start)
}

// Print prints the timing report to standard output.
func (t *Timing) Print() {
	t.Fprint(os.Stdout)
}

// Fprint prints the timing report to the writer w.
func (t *Timing) Fprint(w io.Writer) {
	if len(t.Samples) == 0 {
		return
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Flcd").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)

	total := t.Total()
	var xfer FileSize
	var flushes uint64

	for _, sample := range t.Samples {
		duration := sample.End.Sub(sample.Start)
		xfer += sample.Xfer
		flushes += sample.Flushes

		row := tab.Row()
		row.Column(sample.Label)
		row.Column(duration.String())
		row.Column(percent(duration, total))
		row.Column(fmt.Sprintf("%d", sample.Flushes))
		row.Column(sample.Xfer.String())

		for idx, sub := range sample.Samples {
			prefix := "├╴"
			if idx+1 >= len(sample.Samples) {
				prefix = "╰╴"
			}
			row := tab.Row()
			row.Column(prefix + sub.Label).SetFormat(tabulate.FmtItalic)
			row.Column(sub.Abs.String()).SetFormat(tabulate.FmtItalic)
			row.Column(percent(sub.Abs, duration)).
				SetFormat(tabulate.FmtItalic)
		}
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", flushes)).SetFormat(tabulate.FmtBold)
	row.Column(xfer.String()).SetFormat(tabulate.FmtBold)

	tab.Print(w)
}

func percent(d, total time.Duration) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(d)/float64(total)*100)
}

// Sample contains information about one protocol phase.
type Sample struct {
	Label   string
	Start   time.Time
	End     time.Time
	Abs     time.Duration
	Xfer    FileSize
	Flushes uint64
	Samples []*Sample
}

// AbsSubSample adds a sub-phase with an absolute duration.
func (s *Sample) AbsSubSample(label string, duration time.Duration) {
	s.Samples = append(s.Samples, &Sample{
		Label: label,
		Abs:   duration,
	})
}
