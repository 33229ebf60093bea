package pose

import (
	"image/color"

	"github.com/pkg/errors"
)

// Limb connects two joints. Joint numbers are 1-based, as in the COCO keypoint
// annotation format.
type Limb struct {
	From, To int
}

// Topology is the skeleton drawn between keypoints and the colors used for it.
type Topology struct {
	// Limbs lists the joint pairs joined by a line.
	Limbs []Limb
	// Palette is the shared color table.
	Palette []color.RGBA
	// LimbColors maps each limb to a Palette index.
	LimbColors []int
	// KeypointColors maps each joint to a Palette index.
	KeypointColors []int
}

// posePalette is the Ultralytics pose palette. Values are listed as they are
// written for OpenCV (B, G, R) and converted when the topology is built.
var posePalette = [20][3]uint8{
	{255, 128, 0}, {255, 153, 51}, {255, 178, 102}, {230, 230, 0}, {255, 153, 255},
	{153, 204, 255}, {255, 102, 255}, {255, 51, 255}, {102, 178, 255}, {51, 153, 255},
	{255, 153, 153}, {255, 102, 102}, {255, 51, 51}, {153, 255, 153}, {102, 255, 102},
	{51, 255, 51}, {0, 255, 0}, {0, 0, 255}, {255, 0, 0}, {255, 255, 255},
}

// COCOTopology returns the 19-limb COCO person skeleton with its palette tables.
// Every call returns fresh slices.
func COCOTopology() Topology {
	palette := make([]color.RGBA, len(posePalette))
	for i, bgr := range posePalette {
		palette[i] = BGR(bgr[0], bgr[1], bgr[2])
	}

	return Topology{
		Limbs: []Limb{
			{16, 14}, {14, 12}, {17, 15}, {15, 13}, {12, 13}, {6, 12}, {7, 13}, {6, 7},
			{6, 8}, {7, 9}, {8, 10}, {9, 11}, {2, 3}, {1, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 6}, {5, 7},
		},
		Palette:        palette,
		LimbColors:     []int{9, 9, 9, 9, 7, 7, 7, 0, 0, 0, 0, 0, 16, 16, 16, 16, 16, 16, 16},
		KeypointColors: []int{16, 16, 16, 16, 16, 0, 0, 0, 0, 0, 0, 9, 9, 9, 9, 9, 9},
	}
}

// BGR builds a color from OpenCV-ordered components.
func BGR(b, g, r uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0}
}

// LimbColor returns the color of limb i.
func (t Topology) LimbColor(i int) color.RGBA {
	return t.Palette[t.LimbColors[i]]
}

// KeypointColor returns the color of joint j (0-based).
func (t Topology) KeypointColor(j int) color.RGBA {
	return t.Palette[t.KeypointColors[j]]
}

// Validate checks the tables against the number of joints.
//
// Arguments:
//   - keypoints: The number of joints per detection.
//
// Returns:
//   - error: ErrShape if any table is inconsistent.
func (t Topology) Validate(keypoints int) error {
	if len(t.LimbColors) != len(t.Limbs) {
		return errors.Wrapf(ErrShape, "%d limbs but %d limb colors", len(t.Limbs), len(t.LimbColors))
	}
	if len(t.KeypointColors) != keypoints {
		return errors.Wrapf(ErrShape, "%d keypoints but %d keypoint colors", keypoints, len(t.KeypointColors))
	}
	for i, l := range t.Limbs {
		if l.From < 1 || l.From > keypoints || l.To < 1 || l.To > keypoints {
			return errors.Wrapf(ErrShape, "limb %d joins %d-%d outside 1..%d", i, l.From, l.To, keypoints)
		}
	}
	for _, idx := range append(append([]int{}, t.LimbColors...), t.KeypointColors...) {
		if idx < 0 || idx >= len(t.Palette) {
			return errors.Wrapf(ErrShape, "palette index %d outside [0, %d)", idx, len(t.Palette))
		}
	}
	return nil
}
