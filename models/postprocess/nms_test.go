package postprocess

import (
	"testing"

	"github.com/nvr-ai/go-pose/images"
	"github.com/stretchr/testify/assert"
)

func TestSuppress(t *testing.T) {
	cfg := DefaultNMSConfig()

	tests := []struct {
		name   string
		boxes  []images.Rect
		scores []float32
		want   []int
	}{
		{
			name:   "heavy overlap keeps the best",
			boxes:  []images.Rect{{0, 0, 100, 90}, {0, 0, 100, 100}},
			scores: []float32{0.8, 0.9},
			want:   []int{1},
		},
		{
			name:   "disjoint boxes both survive",
			boxes:  []images.Rect{{0, 0, 10, 10}, {50, 50, 60, 60}},
			scores: []float32{0.8, 0.9},
			want:   []int{1, 0},
		},
		{
			name:   "low scores dropped before suppression",
			boxes:  []images.Rect{{0, 0, 10, 10}, {0, 0, 10, 10}, {50, 50, 60, 60}},
			scores: []float32{0.2, 0.3, 0.24},
			want:   []int{1},
		},
		{
			name:   "score equal to threshold is kept",
			boxes:  []images.Rect{{0, 0, 10, 10}},
			scores: []float32{0.25},
			want:   []int{0},
		},
		{
			name:   "ties keep input order",
			boxes:  []images.Rect{{0, 0, 10, 10}, {20, 0, 30, 10}, {40, 0, 50, 10}},
			scores: []float32{0.5, 0.5, 0.5},
			want:   []int{0, 1, 2},
		},
		{
			name:   "moderate overlap below threshold",
			boxes:  []images.Rect{{0, 0, 10, 10}, {5, 0, 15, 10}},
			scores: []float32{0.9, 0.8},
			want:   []int{0, 1},
		},
		{
			name:   "suppressed box does not suppress others",
			boxes:  []images.Rect{{0, 0, 10, 10}, {2, 0, 12, 10}, {4, 0, 14, 10}},
			scores: []float32{0.9, 0.8, 0.7},
			want:   []int{0, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suppress(tt.boxes, tt.scores, cfg))
		})
	}
}

func TestSuppress_Empty(t *testing.T) {
	kept := Suppress(nil, nil, DefaultNMSConfig())
	assert.NotNil(t, kept)
	assert.Empty(t, kept)

	kept = Suppress([]images.Rect{{0, 0, 1, 1}}, []float32{0.1}, DefaultNMSConfig())
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
}

func TestSuppressDetections(t *testing.T) {
	dets := []Detection{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, Confidence: 0.7},
		{Box: images.Rect{X1: 1, Y1: 0, X2: 101, Y2: 100}, Confidence: 0.95},
		{Box: images.Rect{X1: 300, Y1: 300, X2: 400, Y2: 400}, Confidence: 0.5},
	}

	assert.Equal(t, []int{1, 2}, SuppressDetections(dets, DefaultNMSConfig()))
}
