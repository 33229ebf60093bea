package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU, AUTO:GPU,CPU, ...).
	DeviceType string `mapstructure:"device_type" json:"deviceType" yaml:"device_type"`
	// Supported precisions for HW {CPU:FP32, GPU:[FP32, FP16, ACCURACY], NPU:FP16}. Empty keeps
	// the device default.
	Precision string `mapstructure:"precision" json:"precision" yaml:"precision"`
	// Overrides the accelerator default number of threads. Zero keeps the default.
	NumOfThreads int `mapstructure:"num_of_threads" json:"numOfThreads" yaml:"num_of_threads"`
	// Overrides the accelerator default streams. Zero keeps the default.
	NumStreams int `mapstructure:"num_streams" json:"numStreams" yaml:"num_streams"`
	// Directory where compiled blobs are cached between runs.
	CacheDir string `mapstructure:"cache_dir" json:"cacheDir" yaml:"cache_dir"`
	// Rewrites dynamic shaped models to static shape at runtime.
	DisableDynamicShapes bool `mapstructure:"disable_dynamic_shapes" json:"disableDynamicShapes" yaml:"disable_dynamic_shapes"`
}

// DefaultOpenVINOOptions targets the CPU device.
func DefaultOpenVINOOptions() OpenVINOOptions {
	return OpenVINOOptions{DeviceType: "CPU"}
}

// OpenVINOProvider implements the ExecutionProvider interface.
type OpenVINOProvider struct {
	options OpenVINOOptions
}

// NewOpenVINOProvider creates a new OpenVINO provider.
func NewOpenVINOProvider(args OpenVINOOptions) *OpenVINOProvider {
	if args.DeviceType == "" {
		args.DeviceType = DefaultOpenVINOOptions().DeviceType
	}
	return &OpenVINOProvider{options: args}
}

// Backend returns the backend of the OpenVINO provider.
func (p *OpenVINOProvider) Backend() ProviderBackend {
	return OpenVINOProviderBackend
}

// Options returns the non-default OpenVINO options.
func (p *OpenVINOProvider) Options() map[string]string {
	o := p.options
	config := map[string]string{
		"device_type": o.DeviceType,
	}
	if o.Precision != "" {
		config["precision"] = o.Precision
	}
	if o.NumOfThreads > 0 {
		config["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		config["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	if o.CacheDir != "" {
		config["cache_dir"] = o.CacheDir
	}
	if o.DisableDynamicShapes {
		config["disable_dynamic_shapes"] = "true"
	}
	return config
}

// Apply appends the OpenVINO provider to the session options.
func (p *OpenVINOProvider) Apply(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderOpenVINO(p.Options()); err != nil {
		return errors.Wrap(err, "error enabling OpenVINO")
	}
	return nil
}
