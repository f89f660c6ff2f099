// Package chart lays out the dashboard plots and renders them as SVG or PNG.
//
// Each plot is first reduced to a Scene of primitive shapes in pixel space;
// the SVG (svgo) and PNG (gg) backends only draw primitives, so both formats
// always agree.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

type shapeKind int

const (
	shapeRect shapeKind = iota
	shapeCircle
	shapeLine
	shapeText
)

// Shape is one drawing primitive. Fields unused by a kind are ignored.
type Shape struct {
	kind shapeKind

	X, Y   float64
	W, H   float64 // rect size
	R      float64 // circle radius
	X2, Y2 float64 // line end

	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	Dashed      bool

	Text   string
	Size   float64 // font size in px (SVG only; PNG uses a fixed bitmap face)
	Anchor float64 // 0 = start, 0.5 = middle, 1 = end
	Bold   bool
	Rotate float64 // degrees, text only
}

// Scene is a fully laid out plot.
type Scene struct {
	Title  string
	Width  int
	Height int
	Shapes []Shape
}

func (s *Scene) rect(x, y, w, h float64, fill color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeRect, X: x, Y: y, W: w, H: h, Fill: fill})
}

func (s *Scene) outlinedRect(x, y, w, h float64, fill, stroke color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeRect, X: x, Y: y, W: w, H: h, Fill: fill, Stroke: stroke, StrokeWidth: 1})
}

func (s *Scene) circle(x, y, r float64, fill, stroke color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeCircle, X: x, Y: y, R: r, Fill: fill, Stroke: stroke, StrokeWidth: 0.5})
}

func (s *Scene) line(x1, y1, x2, y2 float64, c color.RGBA, width float64, dashed bool) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeLine, X: x1, Y: y1, X2: x2, Y2: y2, Stroke: c, StrokeWidth: width, Dashed: dashed})
}

func (s *Scene) text(x, y float64, t string, size, anchor float64, c color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeText, X: x, Y: y, Text: t, Size: size, Anchor: anchor, Fill: c})
}

func (s *Scene) boldText(x, y float64, t string, size, anchor float64, c color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeText, X: x, Y: y, Text: t, Size: size, Anchor: anchor, Fill: c, Bold: true})
}

func (s *Scene) rotatedText(x, y float64, t string, size float64, c color.RGBA) {
	s.Shapes = append(s.Shapes, Shape{kind: shapeText, X: x, Y: y, Text: t, Size: size, Anchor: 0.5, Fill: c, Rotate: -90})
}

// Texts returns every text primitive in drawing order.
func (s Scene) Texts() []string {
	var out []string
	for _, sh := range s.Shapes {
		if sh.kind == shapeText {
			out = append(out, sh.Text)
		}
	}
	return out
}

// Count returns the number of rects, circles, lines and texts.
func (s Scene) Count() (rects, circles, lines, texts int) {
	for _, sh := range s.Shapes {
		switch sh.kind {
		case shapeRect:
			rects++
		case shapeCircle:
			circles++
		case shapeLine:
			lines++
		case shapeText:
			texts++
		}
	}
	return
}

// --- SVG -------------------------------------------------------------------

// WriteSVG renders the scene as an SVG document.
func WriteSVG(w io.Writer, s Scene) error {
	canvas := svg.New(w)
	canvas.Start(s.Width, s.Height)
	if s.Title != "" {
		canvas.Title(s.Title)
	}
	canvas.Rect(0, 0, s.Width, s.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	for _, sh := range s.Shapes {
		switch sh.kind {
		case shapeRect:
			style := fmt.Sprintf("fill:%s", css(sh.Fill))
			if sh.StrokeWidth > 0 {
				style += fmt.Sprintf(";stroke:%s;stroke-width:%g", css(sh.Stroke), sh.StrokeWidth)
			}
			canvas.Rect(px(sh.X), px(sh.Y), px(sh.W), px(sh.H), style)
		case shapeCircle:
			canvas.Circle(px(sh.X), px(sh.Y), px(sh.R),
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", css(sh.Fill), css(sh.Stroke), sh.StrokeWidth))
		case shapeLine:
			style := fmt.Sprintf("stroke:%s;stroke-width:%g", css(sh.Stroke), sh.StrokeWidth)
			if sh.Dashed {
				style += ";stroke-dasharray:3,3"
			}
			canvas.Line(px(sh.X), px(sh.Y), px(sh.X2), px(sh.Y2), style)
		case shapeText:
			style := fmt.Sprintf("fill:%s;font-size:%gpx;font-family:monospace;text-anchor:%s;dominant-baseline:middle",
				css(sh.Fill), sh.Size, svgAnchor(sh.Anchor))
			if sh.Bold {
				style += ";font-weight:bold"
			}
			if sh.Rotate != 0 {
				canvas.TranslateRotate(px(sh.X), px(sh.Y), sh.Rotate)
				canvas.Text(0, 0, sh.Text, style)
				canvas.Gend()
				continue
			}
			canvas.Text(px(sh.X), px(sh.Y), sh.Text, style)
		}
	}

	canvas.End()
	return nil
}

func svgAnchor(a float64) string {
	switch {
	case a >= 1:
		return "end"
	case a > 0:
		return "middle"
	default:
		return "start"
	}
}

// --- PNG -------------------------------------------------------------------

func drawPNG(s Scene) *gg.Context {
	dc := gg.NewContext(s.Width, s.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, sh := range s.Shapes {
		switch sh.kind {
		case shapeRect:
			dc.SetColor(sh.Fill)
			dc.DrawRectangle(sh.X, sh.Y, sh.W, sh.H)
			dc.Fill()
			if sh.StrokeWidth > 0 {
				dc.SetColor(sh.Stroke)
				dc.SetLineWidth(sh.StrokeWidth)
				dc.DrawRectangle(sh.X, sh.Y, sh.W, sh.H)
				dc.Stroke()
			}
		case shapeCircle:
			dc.SetColor(sh.Fill)
			dc.DrawCircle(sh.X, sh.Y, sh.R)
			dc.Fill()
			dc.SetColor(sh.Stroke)
			dc.SetLineWidth(sh.StrokeWidth)
			dc.DrawCircle(sh.X, sh.Y, sh.R)
			dc.Stroke()
		case shapeLine:
			dc.SetColor(sh.Stroke)
			dc.SetLineWidth(sh.StrokeWidth)
			if sh.Dashed {
				dc.SetDash(3, 3)
			}
			dc.DrawLine(sh.X, sh.Y, sh.X2, sh.Y2)
			dc.Stroke()
			if sh.Dashed {
				dc.SetDash()
			}
		case shapeText:
			dc.SetColor(sh.Fill)
			if sh.Rotate != 0 {
				dc.Push()
				dc.RotateAbout(gg.Radians(sh.Rotate), sh.X, sh.Y)
				dc.DrawStringAnchored(sh.Text, sh.X, sh.Y, sh.Anchor, 0.5)
				dc.Pop()
				continue
			}
			dc.DrawStringAnchored(sh.Text, sh.X, sh.Y, sh.Anchor, 0.5)
		}
	}
	return dc
}

// WritePNG renders the scene as a PNG image.
func WritePNG(w io.Writer, s Scene) error {
	return drawPNG(s).EncodePNG(w)
}

// --- helpers ---------------------------------------------------------------

func px(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func formatTick(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}
