package providers

import (
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains the ONNX Runtime session settings.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization.
	GraphOptimizationLevel ort.GraphOptimizationLevel
	// ExecutionMode controls sequential vs parallel execution.
	ExecutionMode ort.ExecutionMode
	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets ONNX Runtime decide.
	IntraOpNumThreads int
	// InterOpNumThreads sets threads for parallelizing independent ops. Zero lets ONNX Runtime decide.
	InterOpNumThreads int
}

// DefaultOptimizationConfig returns extended graph optimizations with half the
// CPUs for intra-op work.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
		ExecutionMode:          ort.ExecutionModeSequential,
		IntraOpNumThreads:      max(1, runtime.NumCPU()/2),
		InterOpNumThreads:      1,
	}
}

// NewSessionOptions creates session options and appends the provider.
//
// The caller owns the returned options and must Destroy them once the session
// has been created.
//
// Arguments:
//   - config: Optimization settings to apply.
//   - provider: The execution provider to append.
//
// Returns:
//   - *ort.SessionOptions: Configured session options.
//   - error: Configuration error if any.
func NewSessionOptions(config OptimizationConfig, provider ExecutionProvider) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	setters := []func() error{
		func() error { return options.SetGraphOptimizationLevel(config.GraphOptimizationLevel) },
		func() error { return options.SetExecutionMode(config.ExecutionMode) },
		func() error { return options.SetIntraOpNumThreads(config.IntraOpNumThreads) },
		func() error { return options.SetInterOpNumThreads(config.InterOpNumThreads) },
	}
	for _, set := range setters {
		if err := set(); err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error configuring ORT session options")
		}
	}

	if provider != nil {
		if err := provider.Apply(options); err != nil {
			options.Destroy()
			return nil, errors.Wrapf(err, "error applying %s provider", provider.Backend())
		}
	}

	return options, nil
}
