package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/qnglm/pkg/errors"
)

// saveConvergencePlot draws the objective value per iteration to path. The
// image format follows the file extension.
func saveConvergencePlot(history []float64, title, path string) error {
	if len(history) == 0 {
		return errors.NewValueError("saveConvergencePlot", "empty history")
	}

	pts := make(plotter.XYs, len(history))
	for i, f := range history {
		pts[i].X = float64(i)
		pts[i].Y = f
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Objective"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "build plot")
	}
	line.Width = vg.Points(2)
	p.Add(line, points, plotter.NewGrid())
	p.Legend.Add(fmt.Sprintf("objective (%d iterations)", len(history)-1), line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
