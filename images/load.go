package images

import (
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrImageLoad is returned when an image file is missing, unreadable or empty.
var ErrImageLoad = errors.New("image load failed")

// Decoder selects the library used to decode image files.
type Decoder string

const (
	// DecoderOpenCV decodes with gocv.IMRead (BGR, no EXIF orientation).
	DecoderOpenCV Decoder = "opencv"
	// DecoderGo decodes with the pure-Go imaging package and applies EXIF orientation.
	DecoderGo Decoder = "go"
)

// Valid reports whether d names a known decoder.
func (d Decoder) Valid() bool {
	return d == DecoderOpenCV || d == DecoderGo
}

// Load reads an image file into a CV_8UC3 Mat that can be drawn on and displayed.
// The caller owns the returned Mat.
//
// Arguments:
//   - path: The image file path.
//   - decoder: The decoding backend.
//
// Returns:
//   - gocv.Mat: The decoded image.
//   - error: ErrImageLoad if the file cannot be read or decodes to nothing.
func Load(path string, decoder Decoder) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), errors.Wrapf(ErrImageLoad, "%s: %v", path, err)
	}

	switch decoder {
	case DecoderGo:
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return gocv.NewMat(), errors.Wrapf(ErrImageLoad, "%s: %v", path, err)
		}
		mat, err := FromImage(img).ToMat()
		if err != nil {
			return gocv.NewMat(), errors.Wrapf(ErrImageLoad, "%s: %v", path, err)
		}
		return mat, nil
	case DecoderOpenCV, "":
		mat := gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			return gocv.NewMat(), errors.Wrapf(ErrImageLoad, "%s: decoded to an empty image", path)
		}
		return mat, nil
	default:
		return gocv.NewMat(), errors.Errorf("unknown image decoder %q", decoder)
	}
}
