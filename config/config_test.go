package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "yolov8n-pose.onnx", cfg.Model.Path)
	assert.Equal(t, 640, cfg.Model.InputHeight)
	assert.Equal(t, 56, cfg.Model.OutputRows)
	assert.Equal(t, 8400, cfg.Model.OutputCols)
	assert.InDelta(t, 0.3, cfg.Thresholds.Confidence, 1e-6)
	assert.InDelta(t, 0.25, cfg.Thresholds.Score, 1e-6)
	assert.InDelta(t, 0.45, cfg.Thresholds.IoU, 1e-6)
	assert.InDelta(t, 0.5, cfg.Thresholds.Visibility, 1e-6)
	assert.Equal(t, 5, cfg.Render.Radius)
	assert.Equal(t, images.DecoderOpenCV, cfg.Image.Decoder)
	assert.Equal(t, inference.EngineONNX, cfg.Runtime.Engine)
	assert.Equal(t, providers.CPUProviderBackend, cfg.Runtime.Provider.Backend)
	assert.Equal(t, "CPU", cfg.Runtime.Provider.OpenVINO.DeviceType)
	assert.Equal(t, logging.FormatText, cfg.Log.Format)

	spec := cfg.Model.Spec()
	assert.Equal(t, inference.DefaultModelSpec("yolov8n-pose.onnx"), spec)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pose.yaml")
	content := `
model:
  path: /models/pose.onnx
thresholds:
  iou: 0.6
runtime:
  engine: opencv
  provider:
    backend: openvino
    openvino:
      device_type: GPU
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/models/pose.onnx", cfg.Model.Path)
	assert.InDelta(t, 0.6, cfg.Thresholds.IoU, 1e-6)
	assert.InDelta(t, 0.25, cfg.Thresholds.Score, 1e-6, "unset keys keep defaults")
	assert.Equal(t, inference.EngineOpenCV, cfg.Runtime.Engine)
	assert.Equal(t, providers.OpenVINOProviderBackend, cfg.Runtime.Provider.Backend)
	assert.Equal(t, "GPU", cfg.Runtime.Provider.OpenVINO.DeviceType)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("POSE_THRESHOLDS_SCORE", "0.4")
	t.Setenv("POSE_IMAGE_PATH", "bus.jpg")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.InDelta(t, 0.4, cfg.Thresholds.Score, 1e-6)
	assert.Equal(t, "bus.jpg", cfg.Image.Path)
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("pose", pflag.ContinueOnError)
	flags.String("image", "", "")
	flags.Float64("iou", 0.45, "")
	flags.Bool("strict-bounds", false, "")
	flags.String("provider", "cpu", "")
	flags.String("unrelated", "", "")

	v := New()
	require.NoError(t, BindFlags(v, flags))
	require.NoError(t, flags.Parse([]string{
		"--image", "person.jpg",
		"--iou", "0.7",
		"--strict-bounds",
		"--provider", "cuda",
	}))

	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "person.jpg", cfg.Image.Path)
	assert.InDelta(t, 0.7, cfg.Thresholds.IoU, 1e-6)
	assert.True(t, cfg.Render.StrictBounds)
	assert.Equal(t, providers.CUDAProviderBackend, cfg.Runtime.Provider.Backend)
	assert.Equal(t, "HEURISTIC", cfg.Runtime.Provider.CUDA.CudnnConvAlgoSearch)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		cfg.Image.Path = "person.jpg"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no model", func(c *Config) { c.Model.Path = "" }},
		{"no image", func(c *Config) { c.Image.Path = "" }},
		{"zero columns", func(c *Config) { c.Model.OutputCols = 0 }},
		{"negative score", func(c *Config) { c.Thresholds.Score = -0.1 }},
		{"iou above one", func(c *Config) { c.Thresholds.IoU = 1.5 }},
		{"zero radius", func(c *Config) { c.Render.Radius = 0 }},
		{"decoder", func(c *Config) { c.Image.Decoder = "vips" }},
		{"engine", func(c *Config) { c.Runtime.Engine = "tflite" }},
		{"provider", func(c *Config) { c.Runtime.Provider.Backend = "tensorrt" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"export format", func(c *Config) { c.Export.Format = "csv" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
