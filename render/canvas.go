// Package render - Draws pose detections onto images.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Font selects a Hershey font.
type Font int

const (
	// FontSimplex is the normal sans-serif font.
	FontSimplex Font = iota
	// FontPlain is the small sans-serif font.
	FontPlain
)

// Filled is the thickness that fills a shape.
const Filled = -1

// Canvas is the drawing surface used by the Renderer.
type Canvas interface {
	// Size returns the canvas width and height in pixels.
	Size() (width, height int)
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Line(p1, p2 image.Point, c color.RGBA, thickness int)
	Text(text string, org image.Point, font Font, scale float64, c color.RGBA, thickness int)
	// TextSize returns the width and height of text as it would be drawn.
	TextSize(text string, font Font, scale float64, thickness int) image.Point
}

// MatCanvas draws on a gocv.Mat.
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps mat. The caller keeps ownership of it.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat}
}

// Size returns the width and height of the Mat.
func (m *MatCanvas) Size() (int, int) {
	return m.mat.Cols(), m.mat.Rows()
}

// Rectangle draws r; a thickness of Filled fills it.
func (m *MatCanvas) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(m.mat, r, c, thickness)
}

// Circle draws an anti-aliased circle.
func (m *MatCanvas) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.CircleWithParams(m.mat, center, radius, c, thickness, gocv.LineAA, 0)
}

// Line draws a line segment.
func (m *MatCanvas) Line(p1, p2 image.Point, c color.RGBA, thickness int) {
	gocv.Line(m.mat, p1, p2, c, thickness)
}

// Text draws text with its baseline starting at org.
func (m *MatCanvas) Text(text string, org image.Point, font Font, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(m.mat, text, org, hershey(font), scale, c, thickness)
}

// TextSize measures text.
func (m *MatCanvas) TextSize(text string, font Font, scale float64, thickness int) image.Point {
	return gocv.GetTextSize(text, hershey(font), scale, thickness)
}

func hershey(f Font) gocv.HersheyFont {
	if f == FontPlain {
		return gocv.FontHersheyPlain
	}
	return gocv.FontHersheySimplex
}
