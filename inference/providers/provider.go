// Package providers - ONNX Runtime execution providers.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

// Backends lists every supported provider.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	OpenVINOProviderBackend,
	CUDAProviderBackend,
	CoreMLProviderBackend,
}

// Valid reports whether b is a supported backend.
func (b ProviderBackend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	// Backend returns the provider name.
	Backend() ProviderBackend
	// Options returns the provider options as ONNX Runtime key/value pairs.
	Options() map[string]string
	// Apply appends the provider to the session options.
	Apply(options *ort.SessionOptions) error
}

// Config selects a provider and carries the options of each one.
type Config struct {
	// Backend specifies the provider to use.
	Backend ProviderBackend `mapstructure:"backend" json:"backend" yaml:"backend"`
	// OpenVINO options, used when Backend is openvino.
	OpenVINO OpenVINOOptions `mapstructure:"openvino" json:"openvino" yaml:"openvino"`
	// CUDA options, used when Backend is cuda.
	CUDA CUDAOptions `mapstructure:"cuda" json:"cuda" yaml:"cuda"`
	// CoreML options, used when Backend is coreml.
	CoreML CoreMLOptions `mapstructure:"coreml" json:"coreml" yaml:"coreml"`
}

// DefaultConfig returns a CPU configuration with default options for every
// other provider.
func DefaultConfig() Config {
	return Config{
		Backend:  CPUProviderBackend,
		OpenVINO: DefaultOpenVINOOptions(),
		CUDA:     DefaultCUDAOptions(),
	}
}

// NewProvider creates a new provider based on the required backend.
//
// Arguments:
//   - cfg: The provider selection and options.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the backend is unknown.
func NewProvider(cfg Config) (ExecutionProvider, error) {
	switch cfg.Backend {
	case CPUProviderBackend, "":
		return NewCPUProvider(), nil
	case OpenVINOProviderBackend:
		return NewOpenVINOProvider(cfg.OpenVINO), nil
	case CUDAProviderBackend:
		return NewCUDAProvider(cfg.CUDA), nil
	case CoreMLProviderBackend:
		return NewCoreMLProvider(cfg.CoreML), nil
	default:
		return nil, errors.Errorf("no matching provider backend registered: %s", cfg.Backend)
	}
}
