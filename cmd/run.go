package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/export"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/nvr-ai/go-pose/pipeline"
	"github.com/nvr-ai/go-pose/render"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const windowName = "pose"

// session holds the decoded image and the loaded model for one invocation.
type session struct {
	mat      gocv.Mat
	raster   images.Raster
	contract pose.Contract
	executor inference.Executor
	pipeline *pipeline.Pipeline
	log      *slog.Logger
}

// openSession loads the image, then the model, and assembles the pipeline.
func openSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{contract: pose.DefaultContract(), log: logging.Module(logger, "cmd")}

	mat, err := images.Load(cfg.Image.Path, cfg.Image.Decoder)
	if err != nil {
		_ = mat.Close()
		return nil, err
	}
	s.mat = mat

	s.raster, err = images.FromMat(mat)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.log.Info("image loaded", "path", cfg.Image.Path, "width", s.raster.Cols, "height", s.raster.Rows)

	s.executor, err = inference.NewEngineBuilder().
		WithEngine(cfg.Runtime.Engine).
		WithModel(cfg.Model.Spec()).
		WithProvider(cfg.Runtime.Provider).
		WithLibrary(cfg.Runtime.Library).
		WithLogger(logger).
		Build()
	if err != nil {
		s.Close()
		return nil, err
	}

	s.pipeline, err = pipeline.New(s.executor, pipeline.Options{
		InputHeight: cfg.Model.InputHeight,
		InputWidth:  cfg.Model.InputWidth,
		Confidence:  cfg.Thresholds.Confidence,
		NMS: postprocess.NMSConfig{
			ScoreThreshold: cfg.Thresholds.Score,
			IoUThreshold:   cfg.Thresholds.IoU,
		},
		Contract: s.contract,
		Logger:   logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the executor and the image.
func (s *session) Close() {
	if s.executor != nil {
		if err := s.executor.Close(); err != nil {
			s.log.Warn("error closing executor", "error", err)
		}
	}
	_ = s.mat.Close()
}

// run processes the image once, renders the survivors and delivers the result
// to stdout, the export file, the output image and the window.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	s, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.pipeline.Run(ctx, s.raster)
	if err != nil {
		return err
	}

	renderer := render.NewRenderer(s.contract)
	renderer.VisibilityThreshold = cfg.Thresholds.Visibility
	renderer.Radius = cfg.Render.Radius
	if cfg.Render.StrictBounds {
		renderer.Bounds = render.BoundsStrict
	}

	canvas := render.NewMatCanvas(&s.mat)
	renderer.Draw(canvas, result.Detections, result.Kept)
	if cfg.Render.FPS {
		renderer.DrawFPS(canvas, result.Elapsed)
	}

	fmt.Fprintf(stdout, "Infer time(ms): %dms; Detections: %d\n", result.Elapsed.Milliseconds(), len(result.Kept))

	if cfg.Export.Path != "" {
		report := export.NewReport(cfg.Image.Path, s.raster.Cols, s.raster.Rows, result.Elapsed, result.Detections, result.Kept)
		if err := export.WriteFile(cfg.Export.Path, cfg.Export.Format, report); err != nil {
			return err
		}
		s.log.Info("detections exported", "path", cfg.Export.Path, "format", cfg.Export.Format)
	}

	if cfg.Image.Output != "" {
		if !gocv.IMWrite(cfg.Image.Output, s.mat) {
			return errors.Errorf("error writing image to %s", cfg.Image.Output)
		}
		s.log.Info("rendered image written", "path", cfg.Image.Output)
	}

	if cfg.Image.Show {
		show(s.mat)
	}
	return nil
}

// show displays mat until a key is pressed.
func show(mat gocv.Mat) {
	window := gocv.NewWindow(windowName)
	defer window.Close()

	window.IMShow(mat)
	window.WaitKey(0)
}
