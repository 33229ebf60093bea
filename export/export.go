// Package export - Serialises kept detections for downstream tools.
package export

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	// FormatJSON writes indented JSON.
	FormatJSON Format = "json"
	// FormatYAML writes a YAML document.
	FormatYAML Format = "yaml"
	// FormatMsgpack writes a compact MessagePack blob.
	FormatMsgpack Format = "msgpack"
)

// Formats lists every supported encoding.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgpack}

// Valid reports whether f is a supported encoding.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Keypoint is one joint in image coordinates.
type Keypoint struct {
	X          float32 `json:"x" yaml:"x" msgpack:"x"`
	Y          float32 `json:"y" yaml:"y" msgpack:"y"`
	Visibility float32 `json:"visibility" yaml:"visibility" msgpack:"v"`
}

// Person is one kept detection.
type Person struct {
	X          int        `json:"x" yaml:"x" msgpack:"x"`
	Y          int        `json:"y" yaml:"y" msgpack:"y"`
	Width      int        `json:"width" yaml:"width" msgpack:"w"`
	Height     int        `json:"height" yaml:"height" msgpack:"h"`
	Confidence float32    `json:"confidence" yaml:"confidence" msgpack:"c"`
	Keypoints  []Keypoint `json:"keypoints" yaml:"keypoints" msgpack:"k"`
}

// Report is the serialised result for one image.
type Report struct {
	Image       string   `json:"image" yaml:"image" msgpack:"image"`
	Width       int      `json:"width" yaml:"width" msgpack:"width"`
	Height      int      `json:"height" yaml:"height" msgpack:"height"`
	InferenceMs float64  `json:"inference_ms" yaml:"inference_ms" msgpack:"inference_ms"`
	People      []Person `json:"people" yaml:"people" msgpack:"people"`
}

// NewReport builds a report from the detections selected by kept.
// Out of range indices are ignored.
func NewReport(image string, width, height int, elapsed time.Duration, dets []postprocess.Detection, kept []int) Report {
	report := Report{
		Image:       image,
		Width:       width,
		Height:      height,
		InferenceMs: float64(elapsed.Microseconds()) / 1000,
		People:      make([]Person, 0, len(kept)),
	}

	for _, i := range kept {
		if i < 0 || i >= len(dets) {
			continue
		}
		d := dets[i]
		person := Person{
			X:          d.Box.X1,
			Y:          d.Box.Y1,
			Width:      d.Box.Width(),
			Height:     d.Box.Height(),
			Confidence: d.Confidence,
			Keypoints:  make([]Keypoint, len(d.Keypoints)),
		}
		for j, kp := range d.Keypoints {
			person.Keypoints[j] = Keypoint(kp)
		}
		report.People = append(report.People, person)
	}
	return report
}

// Encode writes report to w in the given format.
func Encode(w io.Writer, format Format, report Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "error encoding json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "error encoding yaml")
		}
		return errors.Wrap(enc.Close(), "error encoding yaml")
	case FormatMsgpack:
		return errors.Wrap(msgpack.NewEncoder(w).Encode(report), "error encoding msgpack")
	default:
		return errors.Errorf("unsupported export format %q", format)
	}
}

// Decode reads a report previously written by Encode.
func Decode(r io.Reader, format Format) (Report, error) {
	var report Report
	var err error

	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&report)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&report)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&report)
	default:
		return report, errors.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return report, errors.Wrapf(err, "error decoding %s", format)
	}
	return report, nil
}

// WriteFile encodes report into path, replacing any existing file.
func WriteFile(path string, format Format, report Report) error {
	if !format.Valid() {
		return errors.Errorf("unsupported export format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating %s", path)
	}

	if err := Encode(f, format, report); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "error closing %s", path)
}
