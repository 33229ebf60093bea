// Package preprocess - Letterbox preprocessing for fixed-size model inputs.
package preprocess

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/pkg/errors"
)

// Tensor is a single CHW float32 input tensor, the [1, C, H, W] model input
// without its batch dimension.
type Tensor struct {
	// Channels is the number of color planes (3).
	Channels int
	// Height is the model input height.
	Height int
	// Width is the model input width.
	Width int
	// Data holds Channels*Height*Width values, plane by plane.
	Data []float32
}

// NewTensor allocates a 3-channel tensor of the given size.
func NewTensor(height, width int) *Tensor {
	return &Tensor{
		Channels: images.Channels,
		Height:   height,
		Width:    width,
		Data:     make([]float32, images.Channels*height*width),
	}
}

// Shape returns the batched shape [1, C, H, W].
func (t *Tensor) Shape() []int64 {
	return []int64{1, int64(t.Channels), int64(t.Height), int64(t.Width)}
}

// Scale returns the uniform factor that fits a rows x cols image into the tensor.
func (t *Tensor) Scale(rows, cols int) float32 {
	return math32.Min(float32(t.Height)/float32(rows), float32(t.Width)/float32(cols))
}

// Letterbox fits img into t without changing its aspect ratio.
//
// The resized content is anchored at the top-left corner; the rest of the tensor
// is zero. Pixels are normalized to [0, 1] and written as R, G, B planes.
//
// Arguments:
//   - img: The BGR source raster.
//   - t: The destination tensor. Its Data is overwritten.
//
// Returns:
//   - float32: The inverse scale that maps model coordinates back to img.
//   - error: pose.ErrShape if img or t is malformed.
func Letterbox(img images.Raster, t *Tensor) (float32, error) {
	if t == nil || t.Channels != images.Channels {
		return 0, errors.Wrap(pose.ErrShape, "letterbox: tensor must have 3 channels")
	}
	if t.Height <= 0 || t.Width <= 0 || len(t.Data) != t.Channels*t.Height*t.Width {
		return 0, errors.Wrapf(pose.ErrShape, "letterbox: tensor data holds %d floats for %dx%dx%d",
			len(t.Data), t.Channels, t.Height, t.Width)
	}
	if img.Empty() || len(img.Pix) != img.Rows*img.Cols*images.Channels {
		return 0, errors.Wrapf(pose.ErrShape, "letterbox: raster %dx%d with %d bytes",
			img.Rows, img.Cols, len(img.Pix))
	}

	scale := t.Scale(img.Rows, img.Cols)
	newW := fit(float32(img.Cols)*scale, t.Width)
	newH := fit(float32(img.Rows)*scale, t.Height)

	resized := resize.Resize(uint(newW), uint(newH), toRGBA(img), resize.Bilinear)

	clear(t.Data)
	plane := t.Height * t.Width
	red := t.Data[0:plane]
	green := t.Data[plane : plane*2]
	blue := t.Data[plane*2 : plane*3]

	bounds := resized.Bounds()
	rgba, isRGBA := resized.(*image.RGBA)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			i := y*t.Width + x
			if isRGBA {
				o := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				red[i] = float32(rgba.Pix[o]) / 255.0
				green[i] = float32(rgba.Pix[o+1]) / 255.0
				blue[i] = float32(rgba.Pix[o+2]) / 255.0
				continue
			}
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
		}
	}

	return 1 / scale, nil
}

// fit rounds a scaled length and clamps it to [1, limit].
func fit(v float32, limit int) int {
	n := int(v + 0.5)
	if n > limit {
		return limit
	}
	if n < 1 {
		return 1
	}
	return n
}

// toRGBA swaps the BGR raster into an opaque RGBA image.
func toRGBA(img images.Raster) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Cols, img.Rows))
	for y := 0; y < img.Rows; y++ {
		src := img.Pix[y*img.Cols*images.Channels : (y+1)*img.Cols*images.Channels]
		dst := out.Pix[y*out.Stride : y*out.Stride+img.Cols*4]
		for x := 0; x < img.Cols; x++ {
			dst[x*4] = src[x*3+2]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3]
			dst[x*4+3] = 0xff
		}
	}
	return out
}
