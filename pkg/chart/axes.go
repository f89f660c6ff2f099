package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	marginLeft   = 80.0
	marginRight  = 40.0
	marginTop    = 60.0
	marginBottom = 70.0

	titleSize = 16.0
	labelSize = 13.0
	tickSize  = 11.0
	maxTicks  = 12
)

// plotArea is the inner rectangle data is drawn into.
type plotArea struct {
	Left, Top, Width, Height float64
}

func newPlotArea(width, height int, extraRight float64) plotArea {
	return plotArea{
		Left:   marginLeft,
		Top:    marginTop,
		Width:  float64(width) - marginLeft - marginRight - extraRight,
		Height: float64(height) - marginTop - marginBottom,
	}
}

func (p plotArea) Right() float64  { return p.Left + p.Width }
func (p plotArea) Bottom() float64 { return p.Top + p.Height }

// axis is a linear numeric scale with rounded tick positions.
type axis struct {
	Min, Max float64
	Ticks    []float64
}

// niceAxis expands [lo,hi] to round tick boundaries (1, 2 or 5 times a
// power of ten). includeZero forces 0 into the range, as bar charts need.
func niceAxis(lo, hi float64, includeZero bool) axis {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi-lo < 1e-12 {
		lo, hi = lo-1, hi+1
	}

	rough := (hi - lo) / 5
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	var step float64
	switch norm := rough / mag; {
	case norm <= 1:
		step = mag
	case norm <= 2:
		step = 2 * mag
	case norm <= 5:
		step = 5 * mag
	default:
		step = 10 * mag
	}

	a := axis{Min: math.Floor(lo/step) * step, Max: math.Ceil(hi/step) * step}
	for v := a.Min; v <= a.Max+step/2 && len(a.Ticks) < maxTicks; v += step {
		a.Ticks = append(a.Ticks, math.Round(v/step)*step)
	}
	return a
}

// rangeOf returns the min and max of vs, or (0,0) when empty.
func rangeOf(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	return floats.Min(vs), floats.Max(vs)
}

// toPixel maps v from the axis range onto [pxLo, pxHi].
func (a axis) toPixel(v, pxLo, pxHi float64) float64 {
	if a.Max == a.Min {
		return (pxLo + pxHi) / 2
	}
	return pxLo + (v-a.Min)/(a.Max-a.Min)*(pxHi-pxLo)
}

// drawFrame draws the title, plot background and axis labels.
func drawFrame(s *Scene, p plotArea, title, xLabel, yLabel string) {
	s.boldText(float64(s.Width)/2, 28, title, titleSize, 0.5, colorText)
	s.rect(p.Left, p.Top, p.Width, p.Height, colorPlotBG)
	if xLabel != "" {
		s.text(p.Left+p.Width/2, p.Bottom()+48, xLabel, labelSize, 0.5, colorText)
	}
	if yLabel != "" {
		s.rotatedText(22, p.Top+p.Height/2, yLabel, labelSize, colorText)
	}
}

// drawYAxis draws y ticks, optional grid lines and the axis line.
func drawYAxis(s *Scene, p plotArea, a axis, grid bool) {
	for _, t := range a.Ticks {
		y := a.toPixel(t, p.Bottom(), p.Top)
		if grid {
			s.line(p.Left, y, p.Right(), y, colorGrid, 1, true)
		}
		s.line(p.Left-5, y, p.Left, y, colorAxis, 1, false)
		s.text(p.Left-8, y, formatTick(t), tickSize, 1, colorSubtle)
	}
	s.line(p.Left, p.Top, p.Left, p.Bottom(), colorAxis, 1, false)
}

// drawXAxis draws numeric x ticks, optional grid lines and the axis line.
func drawXAxis(s *Scene, p plotArea, a axis, grid bool) {
	for _, t := range a.Ticks {
		x := a.toPixel(t, p.Left, p.Right())
		if grid {
			s.line(x, p.Top, x, p.Bottom(), colorGrid, 1, true)
		}
		s.line(x, p.Bottom(), x, p.Bottom()+5, colorAxis, 1, false)
		s.text(x, p.Bottom()+18, formatTick(t), tickSize, 0.5, colorSubtle)
	}
	s.line(p.Left, p.Bottom(), p.Right(), p.Bottom(), colorAxis, 1, false)
}
