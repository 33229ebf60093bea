package providers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()

	for _, backend := range Backends {
		t.Run(string(backend), func(t *testing.T) {
			cfg.Backend = backend
			p, err := NewProvider(cfg)
			require.NoError(t, err)
			assert.Equal(t, backend, p.Backend())
		})
	}

	cfg.Backend = ""
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, CPUProviderBackend, p.Backend())

	cfg.Backend = "tensorrt"
	_, err = NewProvider(cfg)
	assert.Error(t, err)
}

func TestProviderBackendValid(t *testing.T) {
	assert.True(t, ProviderBackend("openvino").Valid())
	assert.False(t, ProviderBackend("dnnl").Valid())
	assert.False(t, ProviderBackend("").Valid())
}

func TestOpenVINOOptions(t *testing.T) {
	assert.Equal(t, map[string]string{"device_type": "CPU"}, NewOpenVINOProvider(OpenVINOOptions{}).Options())

	p := NewOpenVINOProvider(OpenVINOOptions{
		DeviceType:           "AUTO:GPU,CPU",
		Precision:            "FP16",
		NumOfThreads:         4,
		NumStreams:           2,
		CacheDir:             "/tmp/ov",
		DisableDynamicShapes: true,
	})
	assert.Equal(t, map[string]string{
		"device_type":            "AUTO:GPU,CPU",
		"precision":              "FP16",
		"num_of_threads":         "4",
		"num_streams":            "2",
		"cache_dir":              "/tmp/ov",
		"disable_dynamic_shapes": "true",
	}, p.Options())
}

func TestCUDAOptions(t *testing.T) {
	p := NewCUDAProvider(DefaultCUDAOptions())
	assert.Equal(t, map[string]string{
		"device_id":                 "0",
		"do_copy_in_default_stream": "1",
		"use_tf32":                  "0",
		"arena_extend_strategy":     "kSameAsRequested",
		"cudnn_conv_algo_search":    "HEURISTIC",
	}, p.Options())

	p = NewCUDAProvider(CUDAOptions{DeviceID: 1, GPUMemLimit: 2 << 30, UseTF32: true})
	opts := p.Options()
	assert.Equal(t, "1", opts["device_id"])
	assert.Equal(t, "2147483648", opts["gpu_mem_limit"])
	assert.Equal(t, "1", opts["use_tf32"])
	assert.NotContains(t, opts, "arena_extend_strategy")
}

func TestCoreMLFlags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x5), CoreMLOptions{UseCPUOnly: true, OnlyEnableDeviceWithANE: true}.Flags())
	assert.Equal(t, map[string]string{"flags": "0x2"},
		NewCoreMLProvider(CoreMLOptions{EnableOnSubgraph: true}).Options())
}

func TestSharedLibPath(t *testing.T) {
	path, err := SharedLibPath("/opt/ort/libonnxruntime.so")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", path)

	t.Setenv(LibraryPathEnv, "/env/libonnxruntime.so")
	path, err = SharedLibPath("")
	require.NoError(t, err)
	assert.Equal(t, "/env/libonnxruntime.so", path)
}

func TestInitializeEnvironment_MissingLibrary(t *testing.T) {
	err := InitializeEnvironment(filepath.Join(t.TempDir(), "missing", "libonnxruntime.so"))
	assert.Error(t, err)
}
