package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage_SwapsToBGR(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	img.Set(3, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	r := FromImage(img)

	require.Equal(t, 2, r.Rows)
	require.Equal(t, 4, r.Cols)
	require.Len(t, r.Pix, 2*4*3)

	b, g, red := r.BGR(0, 0)
	assert.Equal(t, []uint8{50, 100, 200}, []uint8{b, g, red})
	b, g, red = r.BGR(3, 1)
	assert.Equal(t, []uint8{3, 2, 1}, []uint8{b, g, red})
}

func TestFromImage_NonZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 13, 22))
	img.Set(10, 20, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	r := FromImage(img)

	require.Equal(t, 2, r.Rows)
	require.Equal(t, 3, r.Cols)
	b, g, red := r.BGR(0, 0)
	assert.Equal(t, []uint8{7, 8, 9}, []uint8{b, g, red})
}

func TestRasterFill(t *testing.T) {
	r := NewRaster(3, 5)
	assert.False(t, r.Empty())

	r.Fill(1, 2, 3)
	for i := 0; i < len(r.Pix); i += Channels {
		assert.Equal(t, []uint8{1, 2, 3}, r.Pix[i:i+3])
	}
}

func TestRasterEmpty(t *testing.T) {
	assert.True(t, Raster{}.Empty())
	assert.True(t, NewRaster(0, 10).Empty())
	assert.True(t, NewRaster(10, 0).Empty())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.jpg"), DecoderGo)
	assert.ErrorIs(t, err, ErrImageLoad)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = Load(garbage, DecoderGo)
	assert.ErrorIs(t, err, ErrImageLoad)

	_, err = Load(garbage, Decoder("bmp-magic"))
	assert.Error(t, err)
}

func TestLoad_GoDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solid.png")
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 20, B: 10, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	mat, err := Load(path, DecoderGo)
	require.NoError(t, err)
	defer mat.Close()

	r, err := FromMat(mat)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Rows)
	assert.Equal(t, 8, r.Cols)
	b, g, red := r.BGR(4, 3)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{b, g, red})
}

func TestDecoderValid(t *testing.T) {
	assert.True(t, DecoderGo.Valid())
	assert.True(t, DecoderOpenCV.Valid())
	assert.False(t, Decoder("webp").Valid())
}
