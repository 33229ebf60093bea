// Package pose - The output contract of a single-class YOLO pose model.
//
// A pose network emits a [1, Rows, N] tensor where every column is one candidate
// detection. The first rows hold the box and score, the remaining rows hold the
// keypoints as (x, y, visibility) triples:
//
//	[cx, cy, w, h, score, kp0_x, kp0_y, kp0_v, kp1_x, ...]
//
// Contract names those offsets so the decoder and renderer never index the
// buffer with bare numbers.
package pose

import "github.com/pkg/errors"

// ErrShape is returned when a tensor or image does not match the expected layout.
var ErrShape = errors.New("shape mismatch")

const (
	// BoxRows is the number of rows used for the box center and size.
	BoxRows = 4
	// KeypointDims is the number of values stored per keypoint.
	KeypointDims = 3
	// COCOKeypoints is the number of joints in the COCO person skeleton.
	COCOKeypoints = 17
)

// Contract describes the row layout of the raw output buffer.
type Contract struct {
	// Name identifies the model family in logs.
	Name string
	// CX, CY, W, H are the rows of the box center and size.
	CX, CY, W, H int
	// Score is the row holding the person confidence.
	Score int
	// KeypointsStart is the first keypoint row.
	KeypointsStart int
	// Keypoints is the number of joints per detection.
	Keypoints int
	// Topology is the skeleton drawn between joints.
	Topology Topology
}

// DefaultContract returns the YOLOv8-pose layout: 56 rows, 17 COCO keypoints.
func DefaultContract() Contract {
	return Contract{
		Name:           "yolov8-pose",
		CX:             0,
		CY:             1,
		W:              2,
		H:              3,
		Score:          BoxRows,
		KeypointsStart: BoxRows + 1,
		Keypoints:      COCOKeypoints,
		Topology:       COCOTopology(),
	}
}

// Rows returns the number of attribute rows each candidate column carries.
func (c Contract) Rows() int {
	return c.KeypointsStart + c.Keypoints*KeypointDims
}

// KeypointRow returns the row of the given component (0=x, 1=y, 2=visibility)
// of joint j.
func (c Contract) KeypointRow(j, component int) int {
	return c.KeypointsStart + j*KeypointDims + component
}

// Validate checks that the contract is internally consistent.
//
// Returns:
//   - error: ErrShape if rows overlap or the topology references missing joints.
func (c Contract) Validate() error {
	if c.Keypoints <= 0 {
		return errors.Wrapf(ErrShape, "contract %q has %d keypoints", c.Name, c.Keypoints)
	}
	for _, row := range []int{c.CX, c.CY, c.W, c.H, c.Score} {
		if row < 0 || row >= c.KeypointsStart {
			return errors.Wrapf(ErrShape, "contract %q: box/score row %d outside [0, %d)", c.Name, row, c.KeypointsStart)
		}
	}
	return c.Topology.Validate(c.Keypoints)
}
