package main

import (
	"fmt"
	"path/filepath"

	"github.com/superhg2012/asr-e2e/internal/features"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// matrixGrid exposes a feature matrix as a plotter.GridXYZ with frames on
// the x axis and coefficients on the y axis.
type matrixGrid struct {
	m features.Matrix
}

func (g matrixGrid) Dims() (c, r int)   { return g.m.Frames(), g.m.Coeffs() }
func (g matrixGrid) Z(c, r int) float64 { return float64(g.m.Row(c)[r]) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

func savePlot(path, title string, m features.Matrix) error {
	p := plot.New()
	p.Title.Text = filepath.Base(title)
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "coefficient"

	h := plotter.NewHeatMap(matrixGrid{m: m}, palette.Heat(64, 1))
	if h.Min == h.Max {
		h.Max = h.Min + 1
	}
	p.Add(h)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
