package rl

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// MovingAverage smooths the returns over a trailing window
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		out[i] = stat.Mean(values[from:i+1], nil)
	}
	return out
}

// PlotReturns saves the per episode returns and their moving average as an image
func PlotReturns(name string, returns []float64, window int, savePath string) error {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	series := [][]float64{returns, MovingAverage(returns, window)}
	labels := []string{"Return", "Moving average"}
	for i := 0; i < len(labels); i++ {
		points := make(plotter.XYs, len(series[i]))
		for j, v := range series[i] {
			points[j] = plotter.XY{
				X: float64(j + 1),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return errors.Wrap(err, "building plot")
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(labels[i], line)
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, savePath); err != nil {
		return errors.Wrap(err, "saving plot")
	}
	return nil
}

// PlotComparison draws the moving average of the returns of several runs
// on the same axes
func PlotComparison(names []string, returns [][]float64, window int, savePath string) error {
	p := plot.New()
	p.Title.Text = "Comparison"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return (moving average)"
	for i := 0; i < len(names); i++ {
		avg := MovingAverage(returns[i], window)
		points := make(plotter.XYs, len(avg))
		for j, v := range avg {
			points[j] = plotter.XY{
				X: float64(j + 1),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, savePath); err != nil {
		return errors.Wrap(err, "saving plot")
	}
	return nil
}
