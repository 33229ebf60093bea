// Package images - Image primitives shared by the pose pipeline.
package images

import "image"

// Rect is a lightweight integer bounding box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// RectFromXYWH builds a Rect from a top-left corner and a size.
//
// Arguments:
//   - x, y: The top-left corner.
//   - width, height: The size of the box.
//
// Returns:
//   - Rect: The box spanning [x, x+width) x [y, y+height).
func RectFromXYWH(x, y, width, height int) Rect {
	return Rect{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int {
	return r.X2 - r.X1
}

// Height returns the vertical extent of r.
func (r Rect) Height() int {
	return r.Y2 - r.Y1
}

// Area returns the area of r in pixels, or 0 for degenerate boxes.
func (r Rect) Area() int {
	if r.Width() <= 0 || r.Height() <= 0 {
		return 0
	}
	return r.Width() * r.Height()
}

// Min returns the top-left corner of r.
func (r Rect) Min() image.Point {
	return image.Pt(r.X1, r.Y1)
}

// Rectangle converts r to an image.Rectangle for drawing.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// CalculateIoU returns the Intersection over Union of two boxes.
//
// The intersection is bounded by the larger of the two top-left corners and the
// smaller of the two bottom-right corners. Boxes that only touch, or that do not
// overlap at all, score 0.
//
// Arguments:
//   - r: The first box.
//   - o: The second box.
//
// Returns:
//   - float32: A value in [0, 1].
//
// Example:
//
// ```go
//
//	a := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iou := CalculateIoU(a, b) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return float32(interArea) / float32(unionArea)
}
