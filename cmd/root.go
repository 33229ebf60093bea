// Package cmd - The pose command line interface.
package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates the pose command. Settings resolve from flags, then
// POSE_* environment variables, then the optional config file, then defaults.
func RootCommand(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	// load resolves the configuration and installs the logger.
	load := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(v, configPath)
		if err != nil {
			return nil, nil, err
		}

		logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(logger)

		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	rootCmd := &cobra.Command{
		Use:           "pose",
		Short:         "Multi-person pose detection on a single image",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, logger)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	setupFlags(rootCmd, v)

	rootCmd.AddCommand(benchCommand(load, stdout))

	return rootCmd
}

// setupFlags defines every flag with its current default and binds it.
func setupFlags(rootCmd *cobra.Command, v *viper.Viper) {
	flags := rootCmd.PersistentFlags()

	flags.String("model", v.GetString("model.path"), "Path to the ONNX pose model")
	flags.String("image", v.GetString("image.path"), "Path to the input image")
	flags.String("decoder", v.GetString("image.decoder"), "Image decoder: opencv or go")
	flags.String("output", v.GetString("image.output"), "Write the rendered image to this path")
	flags.Bool("show", v.GetBool("image.show"), "Show the rendered image and wait for a key press")

	flags.Float64("confidence", v.GetFloat64("thresholds.confidence"), "Minimum score for a candidate detection")
	flags.Float64("score", v.GetFloat64("thresholds.score"), "Minimum score kept by non-maximum suppression")
	flags.Float64("iou", v.GetFloat64("thresholds.iou"), "Overlap above which a weaker box is suppressed")
	flags.Float64("visibility", v.GetFloat64("thresholds.visibility"), "Minimum keypoint visibility to draw")
	flags.Int("radius", v.GetInt("render.radius"), "Keypoint circle radius in pixels")
	flags.Bool("strict-bounds", v.GetBool("render.strict_bounds"), "Draw keypoints anywhere inside the frame")

	flags.String("backend", v.GetString("runtime.engine"), "Inference engine: onnx or opencv")
	flags.String("provider", v.GetString("runtime.provider.backend"), "Execution provider: cpu, openvino, cuda or coreml")
	flags.String("device", v.GetString("runtime.provider.openvino.device_type"), "OpenVINO device type, e.g. CPU, GPU or AUTO")
	flags.String("ort-lib", v.GetString("runtime.library"), "Path to the ONNX Runtime shared library")

	flags.String("export", v.GetString("export.path"), "Write the detections to this path")
	flags.String("export-format", v.GetString("export.format"), "Export encoding: json, yaml or msgpack")

	flags.String("log-level", v.GetString("log.level"), "Log level: debug, info, warn or error")
	flags.String("log-format", v.GetString("log.format"), "Log format: text or json")

	// Every flag above has an entry in config.FlagKeys.
	_ = config.BindFlags(v, flags)
}

// Execute runs the pose command with args. Failures, including panics from
// native code, are logged to stderr and returned; the process is expected to
// exit normally either way.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := RootCommand(config.New(), stdout, stderr)
	rootCmd.SetArgs(args)

	err := guard(func() error {
		return rootCmd.ExecuteContext(ctx)
	})
	if err != nil {
		slog.New(slog.NewTextHandler(stderr, nil)).Error("pose failed", "error", err)
	}
	return err
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered panic: %v", r)
		}
	}()
	return fn()
}
