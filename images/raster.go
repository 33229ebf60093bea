package images

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Channels is the number of interleaved channels in a Raster.
const Channels = 3

// Raster is a 3-channel 8-bit image with interleaved B, G, R samples, the same
// memory layout as a CV_8UC3 gocv.Mat.
type Raster struct {
	// Rows is the image height in pixels.
	Rows int
	// Cols is the image width in pixels.
	Cols int
	// Pix holds Rows*Cols*3 bytes in B, G, R order, row-major.
	Pix []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(rows, cols int) Raster {
	return Raster{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols*Channels)}
}

// Empty reports whether the raster holds no pixels.
func (r Raster) Empty() bool {
	return r.Rows <= 0 || r.Cols <= 0 || len(r.Pix) == 0
}

// Fill sets every pixel to the given B, G, R triple.
func (r Raster) Fill(blue, green, red uint8) {
	for i := 0; i+2 < len(r.Pix); i += Channels {
		r.Pix[i] = blue
		r.Pix[i+1] = green
		r.Pix[i+2] = red
	}
}

// BGR returns the samples of the pixel at row y, column x.
func (r Raster) BGR(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Cols + x) * Channels
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// FromImage converts any image.Image into a BGR raster. Alpha is discarded.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - Raster: The converted raster, sized to img.Bounds().
func FromImage(img image.Image) Raster {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	out := NewRaster(bounds.Dy(), bounds.Dx())

	for y := 0; y < out.Rows; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+out.Cols*4]
		dst := out.Pix[y*out.Cols*Channels : (y+1)*out.Cols*Channels]
		for x := 0; x < out.Cols; x++ {
			dst[x*3+0] = src[x*4+2]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+0]
		}
	}
	return out
}

// FromMat copies a CV_8UC3 Mat into a raster.
//
// Arguments:
//   - mat: A 3-channel 8-bit Mat, as returned by gocv.IMRead with IMReadColor.
//
// Returns:
//   - Raster: The copied pixels.
//   - error: ErrImageLoad if the Mat is empty or of the wrong type.
func FromMat(mat gocv.Mat) (Raster, error) {
	if mat.Empty() {
		return Raster{}, errors.Wrap(ErrImageLoad, "mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return Raster{}, errors.Wrapf(ErrImageLoad, "unsupported mat type %v, want CV_8UC3", mat.Type())
	}
	return Raster{Rows: mat.Rows(), Cols: mat.Cols(), Pix: mat.ToBytes()}, nil
}

// ToMat copies the raster into a new CV_8UC3 Mat. The caller owns the Mat.
func (r Raster) ToMat() (gocv.Mat, error) {
	if r.Empty() {
		return gocv.NewMat(), errors.Wrap(ErrImageLoad, "raster is empty")
	}
	mat, err := gocv.NewMatFromBytes(r.Rows, r.Cols, gocv.MatTypeCV8UC3, r.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to build mat from raster")
	}
	return mat, nil
}
