package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"time"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// Bounds selects how keypoints are tested against the frame.
type Bounds int

const (
	// BoundsModulo treats a coordinate as out of frame when it is an exact
	// multiple of the frame size, which includes 0. Limbs additionally reject
	// negative coordinates.
	BoundsModulo Bounds = iota
	// BoundsStrict accepts coordinates in [0, size).
	BoundsStrict
)

var (
	boxColor   = color.RGBA{R: 255}
	labelColor = color.RGBA{R: 255, G: 255}
	textColor  = color.RGBA{}
	fpsColor   = color.RGBA{B: 255}
)

const (
	boxThickness  = 2
	limbThickness = 2
	labelScale    = 0.5
	fpsScale      = 2.0
)

// Renderer draws boxes, labels, keypoints and limbs.
type Renderer struct {
	// Contract supplies the skeleton and palette.
	Contract pose.Contract
	// VisibilityThreshold is the minimum visibility for a joint to be drawn.
	VisibilityThreshold float32
	// Radius is the keypoint circle radius.
	Radius int
	// Bounds is the frame test applied to joints.
	Bounds Bounds
}

// NewRenderer returns a renderer with a 0.5 visibility threshold and 5px joints.
func NewRenderer(c pose.Contract) *Renderer {
	return &Renderer{
		Contract:            c,
		VisibilityThreshold: 0.5,
		Radius:              5,
		Bounds:              BoundsModulo,
	}
}

// Draw renders the detections selected by kept, in that order.
//
// Arguments:
//   - canvas: The drawing surface, sized like the source image.
//   - dets: All candidate detections.
//   - kept: Indices into dets to draw. Out of range indices are ignored.
func (r *Renderer) Draw(canvas Canvas, dets []postprocess.Detection, kept []int) {
	for _, i := range kept {
		if i < 0 || i >= len(dets) {
			continue
		}
		r.DrawDetection(canvas, dets[i])
	}
}

// DrawDetection renders a single detection.
func (r *Renderer) DrawDetection(canvas Canvas, d postprocess.Detection) {
	width, height := canvas.Size()

	canvas.Rectangle(d.Box.Rectangle(), boxColor, boxThickness)

	label := Label(d.Confidence)
	size := canvas.TextSize(label, FontSimplex, labelScale, 1)
	x, y := d.Box.X1, d.Box.Y1
	canvas.Rectangle(image.Rect(x, y-15, x+size.X, y-15+size.Y+5), labelColor, Filled)
	canvas.Text(label, image.Pt(x, y-5), FontSimplex, labelScale, textColor, 1)

	topo := r.Contract.Topology
	kps := d.Keypoints

	for j, kp := range kps {
		if j >= len(topo.KeypointColors) {
			break
		}
		if kp.Visibility < r.VisibilityThreshold {
			continue
		}
		p := image.Pt(int(kp.X), int(kp.Y))
		if !r.inFrame(p, width, height, false) {
			continue
		}
		canvas.Circle(p, r.Radius, topo.KeypointColor(j), Filled)
	}

	for i, limb := range topo.Limbs {
		a, b := limb.From-1, limb.To-1
		if a < 0 || b < 0 || a >= len(kps) || b >= len(kps) {
			continue
		}
		if kps[a].Visibility < r.VisibilityThreshold || kps[b].Visibility < r.VisibilityThreshold {
			continue
		}
		p1 := image.Pt(int(kps[a].X), int(kps[a].Y))
		p2 := image.Pt(int(kps[b].X), int(kps[b].Y))
		if !r.inFrame(p1, width, height, true) || !r.inFrame(p2, width, height, true) {
			continue
		}
		canvas.Line(p1, p2, topo.LimbColor(i), limbThickness)
	}
}

// inFrame applies the configured frame test to p.
func (r *Renderer) inFrame(p image.Point, width, height int, rejectNegative bool) bool {
	if r.Bounds == BoundsStrict {
		return p.In(image.Rect(0, 0, width, height))
	}
	if width <= 0 || height <= 0 {
		return false
	}
	if p.X%width == 0 || p.Y%height == 0 {
		return false
	}
	return !rejectNegative || (p.X >= 0 && p.Y >= 0)
}

// DrawFPS writes the frame rate implied by elapsed in the top-left corner.
// Nothing is drawn for a non-positive duration.
func (r *Renderer) DrawFPS(canvas Canvas, elapsed time.Duration) {
	fps := 1 / float32(elapsed.Seconds())
	if elapsed <= 0 || math32.IsInf(fps, 0) {
		return
	}
	canvas.Text(fmt.Sprintf("FPS: %.2f", fps), image.Pt(20, 40), FontPlain, fpsScale, fpsColor, 2)
}

// Label formats a confidence as "Person:" followed by the first four characters
// of its six-decimal representation, so 0.8765 becomes "Person:0.87".
func Label(confidence float32) string {
	s := strconv.FormatFloat(float64(confidence), 'f', 6, 32)
	if len(s) > 4 {
		s = s[:4]
	}
	return "Person:" + s
}
