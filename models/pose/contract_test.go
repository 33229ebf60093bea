package pose

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultContract_Layout(t *testing.T) {
	c := DefaultContract()

	require.NoError(t, c.Validate())
	assert.Equal(t, 56, c.Rows())
	assert.Equal(t, 4, c.Score)
	assert.Equal(t, 5, c.KeypointRow(0, 0))
	assert.Equal(t, 6, c.KeypointRow(0, 1))
	assert.Equal(t, 7, c.KeypointRow(0, 2))
	assert.Equal(t, 55, c.KeypointRow(16, 2))
}

func TestCOCOTopology_Tables(t *testing.T) {
	topo := COCOTopology()

	assert.Len(t, topo.Limbs, 19)
	assert.Len(t, topo.Palette, 20)
	assert.Len(t, topo.LimbColors, 19)
	assert.Len(t, topo.KeypointColors, 17)

	// First limb joins the right ankle to the right knee.
	assert.Equal(t, Limb{From: 16, To: 14}, topo.Limbs[0])
	// Face joints are green, arms orange.
	assert.Equal(t, color.RGBA{G: 255}, topo.KeypointColor(0))
	assert.Equal(t, color.RGBA{R: 0, G: 128, B: 255}, topo.KeypointColor(5))
	assert.Equal(t, topo.Palette[9], topo.LimbColor(0))
}

func TestCOCOTopology_ReturnsCopies(t *testing.T) {
	a := COCOTopology()
	a.Limbs[0] = Limb{From: 1, To: 1}
	a.Palette[0] = color.RGBA{}

	b := COCOTopology()
	assert.Equal(t, Limb{From: 16, To: 14}, b.Limbs[0])
	assert.NotEqual(t, color.RGBA{}, b.Palette[0])
}

func TestContractValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Contract)
	}{
		{"no keypoints", func(c *Contract) { c.Keypoints = 0 }},
		{"score inside keypoints", func(c *Contract) { c.Score = 9 }},
		{"missing keypoint color", func(c *Contract) { c.Topology.KeypointColors = c.Topology.KeypointColors[:16] }},
		{"limb past last joint", func(c *Contract) { c.Topology.Limbs[0] = Limb{From: 18, To: 1} }},
		{"zero-based limb", func(c *Contract) { c.Topology.Limbs[0] = Limb{From: 0, To: 1} }},
		{"palette overflow", func(c *Contract) { c.Topology.LimbColors[0] = 20 }},
		{"limb colors short", func(c *Contract) { c.Topology.LimbColors = c.Topology.LimbColors[:3] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultContract()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrShape)
		})
	}
}
