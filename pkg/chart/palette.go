package chart

import (
	"image/color"
	"math"
)

var (
	colorBackdrop = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorPlotBG   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorAxis     = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorGrid     = color.RGBA{0xd0, 0xd4, 0xda, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorMarker   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorWhite    = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// viridis anchors, sampled evenly from the matplotlib map.
var viridisStops = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x5e, 0xc9, 0x62, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// coolwarm anchors (blue, neutral, red).
var coolwarmStops = []color.RGBA{
	{0x3b, 0x4c, 0xc0, 0xff},
	{0xdd, 0xdd, 0xdd, 0xff},
	{0xb4, 0x04, 0x26, 0xff},
}

// Qualitative palette for the grouped key-feature bars.
var seriesColors = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
}

// Viridis maps t in [0,1] onto the viridis ramp.
func Viridis(t float64) color.RGBA {
	return ramp(viridisStops, t)
}

// Coolwarm maps t in [0,1] onto the coolwarm ramp.
func Coolwarm(t float64) color.RGBA {
	return ramp(coolwarmStops, t)
}

// ClusterColor returns the colour of cluster position i out of n.
func ClusterColor(i, n int) color.RGBA {
	if n <= 1 {
		return Viridis(0)
	}
	return Viridis(float64(i) / float64(n-1))
}

// SeriesColor returns the colour of series i in grouped charts.
func SeriesColor(i int) color.RGBA {
	return seriesColors[i%len(seriesColors)]
}

// ContrastText picks black or white text for readability on bg.
func ContrastText(bg color.RGBA) color.RGBA {
	lum := 0.2126*float64(bg.R) + 0.7152*float64(bg.G) + 0.0722*float64(bg.B)
	if lum > 140 {
		return colorText
	}
	return colorWhite
}

func ramp(stops []color.RGBA, t float64) color.RGBA {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(stops)-1)
	i := int(math.Floor(pos))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 0xff}
}
