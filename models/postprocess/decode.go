package postprocess

import (
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// DefaultConfidenceThreshold is the score a column must exceed to become a
// candidate detection.
const DefaultConfidenceThreshold float32 = 0.3

// Decode turns a raw [1, Rows, N] output buffer into candidate detections.
//
// Columns whose score is not strictly above threshold are skipped. Boxes are
// converted from center/size to a truncated integer rectangle in image space.
// Keypoint coordinates are scaled by inverseScale; visibilities are copied as is.
// Candidates are returned in column order.
//
// Arguments:
//   - buf: The float32 output buffer, shaped [1, Rows, N] or [Rows, N].
//   - inverseScale: The letterbox inverse scale.
//   - threshold: The confidence cutoff.
//   - c: The row layout of buf.
//
// Returns:
//   - []Detection: The candidates, possibly empty.
//   - error: pose.ErrShape if buf does not match c.
func Decode(buf *tensor.Dense, inverseScale, threshold float32, c pose.Contract) ([]Detection, error) {
	if buf == nil {
		return nil, errors.Wrap(pose.ErrShape, "decode: nil output buffer")
	}
	if buf.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(pose.ErrShape, "decode: expected float32 output, got %v", buf.Dtype())
	}

	rows, cols, err := layout(buf.Shape(), c.Rows())
	if err != nil {
		return nil, err
	}

	data, ok := buf.Data().([]float32)
	if !ok || len(data) != rows*cols {
		return nil, errors.Wrapf(pose.ErrShape, "decode: output holds %d values for %dx%d", len(data), rows, cols)
	}

	at := func(row, col int) float32 { return data[row*cols+col] }
	inv := float64(inverseScale)

	detections := make([]Detection, 0)
	for i := 0; i < cols; i++ {
		score := at(c.Score, i)
		if score <= threshold {
			continue
		}

		cx, cy := float64(at(c.CX, i)), float64(at(c.CY, i))
		w, h := at(c.W, i), at(c.H, i)

		box := images.RectFromXYWH(
			int((cx-0.5*float64(w))*inv),
			int((cy-0.5*float64(h))*inv),
			int(w*inverseScale),
			int(h*inverseScale),
		)

		keypoints := make([]Keypoint, c.Keypoints)
		for j := range keypoints {
			keypoints[j] = Keypoint{
				X:          at(c.KeypointRow(j, 0), i) * inverseScale,
				Y:          at(c.KeypointRow(j, 1), i) * inverseScale,
				Visibility: at(c.KeypointRow(j, 2), i),
			}
		}

		detections = append(detections, Detection{
			Box:        box,
			Confidence: score,
			Keypoints:  keypoints,
		})
	}

	return detections, nil
}

// layout validates an output shape and returns its row and column counts.
func layout(shape tensor.Shape, wantRows int) (int, int, error) {
	switch {
	case len(shape) == 3 && shape[0] == 1 && shape[1] == wantRows:
		return shape[1], shape[2], nil
	case len(shape) == 2 && shape[0] == wantRows:
		return shape[0], shape[1], nil
	default:
		return 0, 0, errors.Wrapf(pose.ErrShape, "decode: expected [1 %d N], got %v", wantRows, shape)
	}
}
