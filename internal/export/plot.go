// Package export renders propagation runs to image files.
package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/trackprop/internal/propagator"
)

// TrajectoryPlot draws the x/y projection of one propagation, marking the
// steps that landed on a surface. The output format follows the file
// extension (png, svg, pdf).
func TrajectoryPlot(path string, steps []propagator.StepRecord) error {
	if len(steps) == 0 {
		return fmt.Errorf("no steps to plot")
	}

	p := plot.New()
	p.Title.Text = "trajectory"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	pts := make(plotter.XYs, 0, len(steps))
	hits := make(plotter.XYs, 0)
	for _, s := range steps {
		pts = append(pts, plotter.XY{X: s.Pos.X, Y: s.Pos.Y})
		if s.SurfaceID >= 0 {
			hits = append(hits, plotter.XY{X: s.Pos.X, Y: s.Pos.Y})
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("track", line)

	if len(hits) > 0 {
		scatter, err := plotter.NewScatter(hits)
		if err != nil {
			return err
		}
		scatter.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("surface hits", scatter)
	}

	p.Legend.Top = true
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// StepSizePlot draws the accepted step size against the accumulated path,
// which shows the controller shrinking near strong field gradients.
func StepSizePlot(path string, steps []propagator.StepRecord) error {
	if len(steps) == 0 {
		return fmt.Errorf("no steps to plot")
	}

	p := plot.New()
	p.Title.Text = "step size"
	p.X.Label.Text = "path length"
	p.Y.Label.Text = "accepted step"

	pts := make(plotter.XYs, 0, len(steps))
	for _, s := range steps {
		pts = append(pts, plotter.XY{X: s.PathLength, Y: s.StepSize})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
