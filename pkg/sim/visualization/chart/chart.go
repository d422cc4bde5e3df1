// Package chart plots the rows recorded from a servo with gonum plot.
package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
)

// Size of a saved chart.
var (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

// Series selects a value from a row.
type Series struct {
	Name  string
	Color color.Color
	// Dashed draws the line dashed, for references.
	Dashed bool
	Value  func(servo.Row) float64
}

// Common series, angles in degrees and speeds in degrees per second.
var (
	Angle = Series{Name: "angle", Color: color.RGBA{B: 200, A: 255}, Value: func(r servo.Row) float64 {
		return float64(r.Angle) / 1000
	}}
	EstAngle = Series{Name: "estimated angle", Color: color.RGBA{G: 160, A: 255}, Value: func(r servo.Row) float64 {
		return float64(r.EstAngle) / 1000
	}}
	RefAngle = Series{Name: "reference angle", Color: color.RGBA{R: 200, A: 255}, Dashed: true, Value: func(r servo.Row) float64 {
		return float64(r.RefAngle) / 1000
	}}
	Speed = Series{Name: "speed", Color: color.RGBA{B: 200, A: 255}, Value: func(r servo.Row) float64 {
		return float64(r.Speed) / 1000
	}}
	EstSpeed = Series{Name: "estimated speed", Color: color.RGBA{G: 160, A: 255}, Value: func(r servo.Row) float64 {
		return float64(r.EstSpeed) / 1000
	}}
	RefSpeed = Series{Name: "reference speed", Color: color.RGBA{R: 200, A: 255}, Dashed: true, Value: func(r servo.Row) float64 {
		return float64(r.RefSpeed) / 1000
	}}
	Duty = Series{Name: "duty (%)", Color: color.RGBA{R: 120, B: 120, A: 255}, Value: func(r servo.Row) float64 {
		return float64(r.Duty) * 100 / motor.MaxDuty
	}}
)

// New plots the series of rows against time in seconds. Time is relative
// to the first row.
func New(title, yLabel string, rows []servo.Row, series ...Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	if len(rows) == 0 {
		return p, nil
	}
	start := rows[0].Time
	for _, s := range series {
		xys := make(plotter.XYs, len(rows))
		for n, row := range rows {
			xys[n].X = float64(row.Time.Sub(start)) / motor.TicksPerMs / 1000
			xys[n].Y = s.Value(row)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = s.Color
		if s.Dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = true
	return p, nil
}

// Save writes the angle, speed and duty charts of rows to files named
// prefix-angle.png, prefix-speed.png and prefix-duty.png.
func Save(prefix, title string, rows []servo.Row) ([]string, error) {
	charts := []struct {
		suffix, label string
		series        []Series
	}{
		{"angle", "angle (deg)", []Series{RefAngle, EstAngle, Angle}},
		{"speed", "speed (deg/s)", []Series{RefSpeed, EstSpeed, Speed}},
		{"duty", "duty (%)", []Series{Duty}},
	}
	var files []string
	for _, c := range charts {
		p, err := New(title, c.label, rows, c.series...)
		if err != nil {
			return files, err
		}
		file := prefix + "-" + c.suffix + ".png"
		if err = p.Save(Width, Height, file); err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}
