package inference

import (
	"context"
	"log/slog"

	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// DNNExecutor runs a model through the OpenCV DNN module.
type DNNExecutor struct {
	spec   ModelSpec
	net    gocv.Net
	blob   gocv.Mat
	closed bool
}

// NewDNNExecutor loads the model with gocv.ReadNet.
//
// The provider picks the DNN backend and target: openvino uses the OpenVINO
// backend, cuda the CUDA backend, anything else the OpenCV CPU path.
//
// Arguments:
//   - spec: The model file and geometry.
//   - backend: The requested provider.
//   - logger: Receives setup information.
//
// Returns:
//   - *DNNExecutor: The ready executor.
//   - error: ErrModelLoad if the network cannot be read.
func NewDNNExecutor(spec ModelSpec, backend providers.ProviderBackend, logger *slog.Logger) (*DNNExecutor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	net := gocv.ReadNet(spec.Path, "")
	if net.Empty() {
		net.Close()
		return nil, errors.Wrapf(ErrModelLoad, "failed to load ONNX model: %s", spec.Path)
	}

	dnnBackend, dnnTarget := dnnPreference(backend)
	if err := net.SetPreferableBackend(dnnBackend); err != nil {
		net.Close()
		return nil, errors.Wrapf(ErrModelLoad, "error setting DNN backend: %v", err)
	}
	if err := net.SetPreferableTarget(dnnTarget); err != nil {
		net.Close()
		return nil, errors.Wrapf(ErrModelLoad, "error setting DNN target: %v", err)
	}

	blob := gocv.NewMatWithSizes([]int{1, 3, spec.InputHeight, spec.InputWidth}, gocv.MatTypeCV32F)

	logger.Info("opencv dnn network ready",
		"model", spec.Path,
		"backend", backend,
		"layers", len(net.GetLayerNames()),
		"input", []int{1, 3, spec.InputHeight, spec.InputWidth},
	)

	return &DNNExecutor{spec: spec, net: net, blob: blob}, nil
}

// dnnPreference maps an execution provider onto an OpenCV DNN backend and target.
func dnnPreference(backend providers.ProviderBackend) (gocv.NetBackendType, gocv.NetTargetType) {
	switch backend {
	case providers.OpenVINOProviderBackend:
		return gocv.NetBackendOpenVINO, gocv.NetTargetCPU
	case providers.CUDAProviderBackend:
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA
	default:
		return gocv.NetBackendOpenCV, gocv.NetTargetCPU
	}
}

// Infer runs a forward pass.
func (e *DNNExecutor) Infer(ctx context.Context, input []float32) (*tensor.Dense, error) {
	if e.closed {
		return nil, errors.New("opencv executor is closed")
	}
	if err := checkInput(ctx, input, e.spec.InputSize()); err != nil {
		return nil, err
	}

	data, err := e.blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "error accessing input blob")
	}
	copy(data, input)

	e.net.SetInput(e.blob, "")
	out := e.net.Forward("")
	defer out.Close()

	if out.Empty() {
		return nil, errors.New("opencv forward pass produced no output")
	}

	sizes := out.Size()
	rows, cols := e.spec.OutputRows, e.spec.OutputCols
	if len(sizes) == 3 {
		rows, cols = sizes[1], sizes[2]
	}

	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "error accessing output blob")
	}
	return newOutput(values, rows, cols)
}

// Close releases the network and the input blob.
func (e *DNNExecutor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.blob.Close(); err != nil {
		return errors.Wrap(err, "error closing input blob")
	}
	if err := e.net.Close(); err != nil {
		return errors.Wrap(err, "error closing network")
	}
	return nil
}
