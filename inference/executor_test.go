package inference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSpec_Sizes(t *testing.T) {
	spec := DefaultModelSpec("yolov8n-pose.onnx")

	assert.Equal(t, 3*640*640, spec.InputSize())
	assert.Equal(t, 56*8400, spec.OutputSize())
	assert.Equal(t, "images", spec.InputName)
	assert.Equal(t, "output0", spec.OutputName)
}

func TestModelSpec_Validate(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(model, []byte("onnx"), 0o644))

	assert.NoError(t, DefaultModelSpec(model).Validate())
	assert.ErrorIs(t, DefaultModelSpec(filepath.Join(dir, "missing.onnx")).Validate(), ErrModelLoad)
	assert.ErrorIs(t, DefaultModelSpec(dir).Validate(), ErrModelLoad)

	bad := DefaultModelSpec(model)
	bad.OutputCols = 0
	assert.ErrorIs(t, bad.Validate(), ErrModelLoad)
}

func TestCheckInput(t *testing.T) {
	assert.NoError(t, checkInput(context.Background(), make([]float32, 12), 12))
	assert.Error(t, checkInput(context.Background(), make([]float32, 11), 12))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, checkInput(ctx, make([]float32, 12), 12), context.Canceled)
}

func TestNewOutput_Copies(t *testing.T) {
	native := []float32{1, 2, 3, 4, 5, 6}

	out, err := newOutput(native, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int(out.Shape()))

	native[0] = 99
	assert.Equal(t, float32(1), out.Data().([]float32)[0])

	_, err = newOutput(native, 3, 3)
	assert.Error(t, err)
}

func TestEngineBuilder_Errors(t *testing.T) {
	_, err := NewEngineBuilder().Build()
	assert.ErrorIs(t, err, ErrModelLoad)

	_, err = NewEngineBuilder().WithEngine("tflite").WithModel(DefaultModelSpec("x.onnx")).Build()
	assert.ErrorContains(t, err, "unsupported engine")

	_, err = NewEngineBuilder().
		WithProvider(providers.Config{Backend: "tensorrt"}).
		WithEngine(EngineOpenCV).
		Build()
	assert.ErrorContains(t, err, "unsupported provider", "first error is kept")

	_, err = NewEngineBuilder().WithModel(ModelSpec{}).Build()
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestEngineBuilder_MissingModel(t *testing.T) {
	missing := DefaultModelSpec(filepath.Join(t.TempDir(), "absent.onnx"))

	for _, engine := range Engines {
		t.Run(string(engine), func(t *testing.T) {
			_, err := NewEngineBuilder().WithEngine(engine).WithModel(missing).Build()
			assert.ErrorIs(t, err, ErrModelLoad)
		})
	}

	assert.Panics(t, func() {
		NewEngineBuilder().WithModel(missing).MustBuild()
	})
}

func TestEngineTypeValid(t *testing.T) {
	assert.True(t, EngineONNX.Valid())
	assert.True(t, EngineOpenCV.Valid())
	assert.False(t, EngineType("openvino").Valid())
}
