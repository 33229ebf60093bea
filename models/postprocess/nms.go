package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-pose/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	ScoreThreshold float32 // Candidates scoring below this are dropped before suppression.
	IoUThreshold   float32 // Overlap above which the lower-scoring box is suppressed.
}

// DefaultNMSConfig returns the thresholds used by the command line tool.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{ScoreThreshold: 0.25, IoUThreshold: 0.45}
}

// Suppress performs greedy single-class Non-Maximum Suppression.
//
// Arguments:
//   - boxes: Candidate boxes.
//   - scores: One score per box.
//   - cfg: Thresholds.
//
// Returns:
//   - []int: Indices into boxes of the survivors, highest score first. Equal
//     scores keep their input order. Never nil.
func Suppress(boxes []images.Rect, scores []float32, cfg NMSConfig) []int {
	n := min(len(boxes), len(scores))

	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if scores[i] < cfg.ScoreThreshold {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	kept := make([]int, 0, len(order))
	used := make([]bool, len(order))
	for i, anchor := range order {
		if used[i] {
			continue
		}
		kept = append(kept, anchor)

		for j := i + 1; j < len(order); j++ {
			if used[j] {
				continue
			}
			// Suppress if IoU exceeds threshold
			if images.CalculateIoU(boxes[anchor], boxes[order[j]]) > cfg.IoUThreshold {
				used[j] = true
			}
		}
	}

	return kept
}

// SuppressDetections runs Suppress over the boxes and confidences of dets.
//
// Returns:
//   - []int: Indices into dets of the survivors.
func SuppressDetections(dets []Detection, cfg NMSConfig) []int {
	boxes := make([]images.Rect, len(dets))
	scores := make([]float32, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Confidence
	}
	return Suppress(boxes, scores, cfg)
}
