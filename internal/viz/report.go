package viz

import (
	"fmt"
	"image/color"

	"github.com/san-kum/mechctl/internal/shaping"
	"github.com/san-kum/mechctl/internal/sim"
	"github.com/san-kum/mechctl/internal/telemetry"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	desiredColor = color.RGBA{R: 0xcc, G: 0x44, B: 0x44, A: 0xff}
	actualColor  = color.RGBA{R: 0x22, G: 0x66, B: 0xcc, A: 0xff}
)

// SaveResponse plots the desired and actual speed of component over a run
// and writes the image to path. The format follows the file extension.
func SaveResponse(res *sim.Result, component, path string) error {
	desired, ok := res.Series[telemetry.Key(component, "desired_rpm")]
	if !ok {
		return fmt.Errorf("no telemetry for %s", component)
	}
	actual := res.Series[telemetry.Key(component, "actual_rpm")]

	return plotToFile(path, component+" response", "time (s)", "speed (rpm)", func(p *plot.Plot) error {
		if err := addLine(p, "desired", plotterXY(res.Times, desired), desiredColor); err != nil {
			return err
		}
		return addLine(p, "actual", plotterXY(res.Times, actual), actualColor)
	})
}

// SaveCurve plots c over the stick range [-1, 1].
func SaveCurve(c shaping.Curve, path string) error {
	xs, ys := shaping.Sample(c, 201)
	return plotToFile(path, "joystick response", "input", "output", func(p *plot.Plot) error {
		return addLine(p, "", plotterXY(xs, ys), actualColor)
	})
}

func addLine(p *plot.Plot, name string, xy plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(xy)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	p.Add(line)
	if name != "" {
		p.Legend.Add(name, line)
	}
	return nil
}

func plotToFile(path, title, xTitle, yTitle string, draw func(*plot.Plot) error) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xTitle
	p.Y.Label.Text = yTitle
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := draw(p); err != nil {
		return fmt.Errorf("could not draw plot contents: %w", err)
	}
	if err := p.Save(20*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("could not save plot: %w", err)
	}
	return nil
}

func plotterXY(x, y []float64) plotter.XYs {
	n := min(len(x), len(y))
	xy := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xy[i].X = x[i]
		xy[i].Y = y[i]
	}
	return xy
}
