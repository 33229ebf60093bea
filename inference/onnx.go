package inference

import (
	"context"
	"log/slog"

	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// ORTExecutor runs a model through ONNX Runtime with preallocated tensors.
type ORTExecutor struct {
	spec    ModelSpec
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewORTExecutor creates an ONNX Runtime session for the model.
//
// Order of operations:
//  1. Environment setup from the shared library.
//  2. Model inspection: input/output names and shapes are logged, and a static
//     output shape overrides spec.OutputCols.
//  3. Tensor allocation for the fixed [1, 3, H, W] input and [1, Rows, N] output.
//  4. Session options and execution provider.
//  5. Session creation.
//
// Arguments:
//   - spec: The model file and geometry.
//   - provider: The execution provider. Nil selects CPU.
//   - libPath: The ONNX Runtime shared library. Empty selects the default.
//   - logger: Receives model information.
//
// Returns:
//   - *ORTExecutor: The ready executor.
//   - error: ErrModelLoad if any step fails.
func NewORTExecutor(spec ModelSpec, provider providers.ExecutionProvider, libPath string, logger *slog.Logger) (*ORTExecutor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = providers.NewCPUProvider()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if err := providers.InitializeEnvironment(libPath); err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "%v", err)
	}

	spec = inspectModel(spec, logger)

	input, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, int64(spec.InputHeight), int64(spec.InputWidth)),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "error creating input tensor: %v", err)
	}

	output, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(spec.OutputRows), int64(spec.OutputCols)),
	)
	if err != nil {
		input.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "error creating output tensor: %v", err)
	}

	options, err := providers.NewSessionOptions(providers.DefaultOptimizationConfig(), provider)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "%v", err)
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		spec.Path,
		[]string{spec.InputName},
		[]string{spec.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "error creating ORT session: %v", err)
	}

	logger.Info("onnxruntime session ready",
		"model", spec.Path,
		"provider", provider.Backend(),
		"provider_options", provider.Options(),
		"input", []int{1, 3, spec.InputHeight, spec.InputWidth},
		"output", []int{1, spec.OutputRows, spec.OutputCols},
	)

	return &ORTExecutor{
		spec:    spec,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// inspectModel logs the model's declared inputs and outputs and adopts a static
// output shape when the file declares one.
func inspectModel(spec ModelSpec, logger *slog.Logger) ModelSpec {
	inputs, outputs, err := ort.GetInputOutputInfo(spec.Path)
	if err != nil {
		logger.Warn("unable to read model inputs and outputs", "model", spec.Path, "error", err)
		return spec
	}

	for _, in := range inputs {
		logger.Info("model input", "name", in.Name, "type", in.DataType.String(), "shape", in.Dimensions.String())
	}
	for _, out := range outputs {
		logger.Info("model output", "name", out.Name, "type", out.DataType.String(), "shape", out.Dimensions.String())
		if out.Name != spec.OutputName || len(out.Dimensions) != 3 {
			continue
		}
		if rows, cols := out.Dimensions[1], out.Dimensions[2]; rows == int64(spec.OutputRows) && cols > 0 {
			spec.OutputCols = int(cols)
		}
	}
	return spec
}

// Spec returns the geometry the session was built with.
func (e *ORTExecutor) Spec() ModelSpec {
	return e.spec
}

// Infer runs the session once.
func (e *ORTExecutor) Infer(ctx context.Context, input []float32) (*tensor.Dense, error) {
	if e.session == nil {
		return nil, errors.New("onnxruntime executor is closed")
	}
	if err := checkInput(ctx, input, e.spec.InputSize()); err != nil {
		return nil, err
	}

	copy(e.input.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}

	return newOutput(e.output.GetData(), e.spec.OutputRows, e.spec.OutputCols)
}

// Close releases the resources associated with the session.
func (e *ORTExecutor) Close() error {
	if e.input != nil {
		e.input.Destroy()
		e.input = nil
	}
	if e.output != nil {
		e.output.Destroy()
		e.output = nil
	}
	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}
