// Package visualize renders temporal estimates as line plots.
package visualize

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-entropy/signal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNothingToPlot is returned when PlotEstimate receives no series.
var ErrNothingToPlot = errors.New("visualize: no series to plot")

// Series is one channel of a temporal estimate.
type Series struct {
	Label   string
	Signal  *signal.Signal
	Channel int
}

// PlotEstimate draws every series against its time stamps and saves the
// figure to path. The file format follows the extension (png, svg, pdf).
// NaN samples leave a gap in the line.
func PlotEstimate(path, title string, series ...Series) error {
	if len(series) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Estimate (nats)"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		if s.Signal == nil {
			return fmt.Errorf("series %q: nil signal", s.Label)
		}
		if s.Channel < 0 || s.Channel >= s.Signal.Dimension() {
			return fmt.Errorf("series %q: channel %d out of range [0, %d)", s.Label, s.Channel, s.Signal.Dimension())
		}

		color := plotutil.Color(i)
		legend := false
		for _, pts := range segments(s.Signal, s.Channel) {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Label, err)
			}
			line.Color = color
			line.Width = vg.Points(1)
			p.Add(line)
			if !legend {
				p.Legend.Add(s.Label, line)
				legend = true
			}
		}
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// segments splits a channel into runs of finite samples.
func segments(s *signal.Signal, channel int) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range s.Samples() {
		v := s.At(i, channel)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(s.TimeOffset() + i), Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
