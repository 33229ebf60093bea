// Package inference - Model executors that turn an input tensor into a raw output buffer.
package inference

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrModelLoad is returned when a model or its runtime cannot be loaded.
var ErrModelLoad = errors.New("model load failed")

// Executor runs a single forward pass.
//
// Implementations own native buffers and are not safe for concurrent use.
type Executor interface {
	// Infer copies input into the model, runs it and returns a copy of the output.
	// The context is checked before the call; the native call itself cannot be
	// interrupted.
	Infer(ctx context.Context, input []float32) (*tensor.Dense, error)
	// Close releases native resources.
	Close() error
}

// EngineType is the type of the engine.
type EngineType string

const (
	// EngineONNX is the ONNX engine that uses the onnxruntime library.
	EngineONNX EngineType = "onnx"
	// EngineOpenCV runs the model through the OpenCV DNN module.
	EngineOpenCV EngineType = "opencv"
)

// Engines is a list of all supported engines.
var Engines = []EngineType{EngineONNX, EngineOpenCV}

// Valid reports whether e is a supported engine.
func (e EngineType) Valid() bool {
	return e == EngineONNX || e == EngineOpenCV
}

// ModelSpec describes the model file and the fixed tensor geometry it uses.
type ModelSpec struct {
	// Path is the ONNX file.
	Path string
	// InputName is the input node name.
	InputName string
	// OutputName is the output node name.
	OutputName string
	// InputHeight and InputWidth are the spatial input size.
	InputHeight, InputWidth int
	// OutputRows is the number of attribute rows per candidate.
	OutputRows int
	// OutputCols is the number of candidates.
	OutputCols int
}

// DefaultModelSpec returns the YOLOv8-pose geometry for a 640x640 export.
func DefaultModelSpec(path string) ModelSpec {
	return ModelSpec{
		Path:        path,
		InputName:   "images",
		OutputName:  "output0",
		InputHeight: 640,
		InputWidth:  640,
		OutputRows:  56,
		OutputCols:  8400,
	}
}

// InputSize returns the number of floats in one [1, 3, H, W] input.
func (s ModelSpec) InputSize() int {
	return 3 * s.InputHeight * s.InputWidth
}

// OutputSize returns the number of floats in one [1, Rows, N] output.
func (s ModelSpec) OutputSize() int {
	return s.OutputRows * s.OutputCols
}

// Validate checks that the model file exists and the geometry is positive.
//
// Returns:
//   - error: ErrModelLoad if the model is unusable.
func (s ModelSpec) Validate() error {
	if s.InputHeight <= 0 || s.InputWidth <= 0 || s.OutputRows <= 0 || s.OutputCols <= 0 {
		return errors.Wrapf(ErrModelLoad, "invalid geometry: input %dx%d, output %dx%d",
			s.InputHeight, s.InputWidth, s.OutputRows, s.OutputCols)
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return errors.Wrapf(ErrModelLoad, "model file %q: %v", s.Path, err)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrModelLoad, "model path %q is a directory", s.Path)
	}
	return nil
}

// checkInput rejects cancelled contexts and wrongly sized inputs before any
// native call is made.
func checkInput(ctx context.Context, input []float32, want int) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "inference cancelled")
	}
	if len(input) != want {
		return errors.Errorf("input holds %d floats, model expects %d", len(input), want)
	}
	return nil
}

// newOutput copies a native output buffer into a [1, rows, cols] tensor.
func newOutput(data []float32, rows, cols int) (*tensor.Dense, error) {
	if len(data) < rows*cols {
		return nil, errors.Errorf("output holds %d floats, expected %d", len(data), rows*cols)
	}
	backing := make([]float32, rows*cols)
	copy(backing, data)
	return tensor.New(tensor.WithShape(1, rows, cols), tensor.WithBacking(backing)), nil
}
