package providers

import ort "github.com/yalue/onnxruntime_go"

// CPUProviderBackend runs the model on the default CPU provider.
const CPUProviderBackend ProviderBackend = "cpu"

// CPUProvider is the built-in ONNX Runtime CPU provider. It needs no setup.
type CPUProvider struct{}

// NewCPUProvider creates a new CPU provider.
func NewCPUProvider() *CPUProvider {
	return &CPUProvider{}
}

// Backend returns the backend of the CPU provider.
func (p *CPUProvider) Backend() ProviderBackend {
	return CPUProviderBackend
}

// Options returns an empty option set.
func (p *CPUProvider) Options() map[string]string {
	return map[string]string{}
}

// Apply leaves the session options untouched; ONNX Runtime always falls back to CPU.
func (p *CPUProvider) Apply(*ort.SessionOptions) error {
	return nil
}
