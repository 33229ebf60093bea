// Package pipeline - Runs letterbox, inference, decode and suppression on one image.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/nvr-ai/go-pose/models/preprocess"
	"github.com/nvr-ai/go-pose/profiler"
	"github.com/pkg/errors"
)

// Stage names recorded by Run.
const (
	StagePreprocess = "preprocess"
	StageInference  = "inference"
	StageDecode     = "decode"
	StageSuppress   = "suppress"
)

// Options configures a Pipeline.
type Options struct {
	// InputHeight and InputWidth are the model input size.
	InputHeight, InputWidth int
	// Confidence is the decode cutoff; candidates at or below it are dropped.
	Confidence float32
	// NMS configures suppression.
	NMS postprocess.NMSConfig
	// Contract describes the output layout.
	Contract pose.Contract
	// Logger receives stage timings at debug level.
	Logger *slog.Logger
}

// DefaultOptions returns the YOLOv8-pose defaults for a 640x640 model.
func DefaultOptions() Options {
	return Options{
		InputHeight: 640,
		InputWidth:  640,
		Confidence:  postprocess.DefaultConfidenceThreshold,
		NMS:         postprocess.DefaultNMSConfig(),
		Contract:    pose.DefaultContract(),
		Logger:      slog.Default(),
	}
}

// Result is the outcome of one Run.
type Result struct {
	// Detections holds every candidate above the confidence cutoff, in column order.
	Detections []postprocess.Detection
	// Kept indexes the survivors of suppression, best first.
	Kept []int
	// InverseScale maps model coordinates back to image pixels.
	InverseScale float32
	// Elapsed is the wall-clock time of all four stages.
	Elapsed time.Duration
	// Stages holds the per-stage timings.
	Stages []profiler.Stage
}

// Survivors returns the kept detections in Kept order.
func (r *Result) Survivors() []postprocess.Detection {
	out := make([]postprocess.Detection, 0, len(r.Kept))
	for _, i := range r.Kept {
		out = append(out, r.Detections[i])
	}
	return out
}

// Pipeline owns the input tensor and reuses it across runs. It is not safe
// for concurrent use.
type Pipeline struct {
	executor  inference.Executor
	options   Options
	tensor    *preprocess.Tensor
	stopwatch *profiler.Stopwatch
	logger    *slog.Logger
}

// New creates a pipeline around executor.
//
// Arguments:
//   - executor: The inference capability. The pipeline does not close it.
//   - opts: The geometry, thresholds and contract.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: pose.ErrShape if the geometry or contract is invalid.
func New(executor inference.Executor, opts Options) (*Pipeline, error) {
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if opts.InputHeight <= 0 || opts.InputWidth <= 0 {
		return nil, errors.Wrapf(pose.ErrShape, "input size %dx%d", opts.InputWidth, opts.InputHeight)
	}
	if err := opts.Contract.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		executor:  executor,
		options:   opts,
		tensor:    preprocess.NewTensor(opts.InputHeight, opts.InputWidth),
		stopwatch: profiler.NewStopwatch(),
		logger:    logging.Module(opts.Logger, "pipeline"),
	}, nil
}

// Run processes one image.
//
// Arguments:
//   - ctx: Checked before inference.
//   - img: The source image in BGR order.
//
// Returns:
//   - *Result: The candidates, survivors and timings.
//   - error: images.ErrImageLoad for an empty image, pose.ErrShape for layout
//     problems, or the executor's error.
func (p *Pipeline) Run(ctx context.Context, img images.Raster) (*Result, error) {
	if img.Empty() {
		return nil, errors.Wrap(images.ErrImageLoad, "empty image")
	}

	p.stopwatch.Reset()

	stop := p.stopwatch.StartOperation(StagePreprocess)
	inverseScale, err := preprocess.Letterbox(img, p.tensor)
	stop()
	if err != nil {
		return nil, errors.Wrap(err, "error preprocessing image")
	}

	stop = p.stopwatch.StartOperation(StageInference)
	output, err := p.executor.Infer(ctx, p.tensor.Data)
	stop()
	if err != nil {
		return nil, errors.Wrap(err, "error running inference")
	}

	stop = p.stopwatch.StartOperation(StageDecode)
	dets, err := postprocess.Decode(output, inverseScale, p.options.Confidence, p.options.Contract)
	stop()
	if err != nil {
		return nil, errors.Wrap(err, "error decoding output")
	}

	stop = p.stopwatch.StartOperation(StageSuppress)
	kept := postprocess.SuppressDetections(dets, p.options.NMS)
	stop()

	result := &Result{
		Detections:   dets,
		Kept:         kept,
		InverseScale: inverseScale,
		Elapsed:      p.stopwatch.Total(),
		Stages:       p.stopwatch.Stages(),
	}

	p.logger.Debug("pipeline run complete",
		"image", slog.GroupValue(slog.Int("rows", img.Rows), slog.Int("cols", img.Cols)),
		"candidates", len(dets),
		"kept", len(kept),
		"timings", p.stopwatch,
	)

	return result, nil
}
