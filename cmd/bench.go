package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nvr-ai/go-pose/benchmark"
	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/profiler"
	"github.com/spf13/cobra"
)

// benchCommand runs the pipeline repeatedly on the configured image.
func benchCommand(load func() (*config.Config, *slog.Logger, error), stdout io.Writer) *cobra.Command {
	var (
		iterations int
		warmup     int
		results    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure pipeline latency on the configured image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			s, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			suite := benchmark.NewSuite(s.pipeline, logger)
			metrics, err := suite.RunScenario(cmd.Context(), benchmark.Scenario{
				Name:       fmt.Sprintf("%s-%s", cfg.Runtime.Engine, cfg.Runtime.Provider.Backend),
				Image:      cfg.Image.Path,
				Engine:     string(cfg.Runtime.Engine),
				Provider:   string(cfg.Runtime.Provider.Backend),
				Iterations: iterations,
				WarmupRuns: warmup,
			}, s.raster)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "FPS: %.2f; p50(ms): %.2f; p95(ms): %.2f; Detections: %d; Errors: %.2f%%\n",
				metrics.FramesPerSecond,
				profiler.Milliseconds(metrics.Latency.P50),
				profiler.Milliseconds(metrics.Latency.P95),
				metrics.DetectionCount,
				metrics.ErrorRate*100,
			)

			if results != "" {
				return benchmark.SaveResults(results, suite.Results())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 50, "Number of measured runs")
	cmd.Flags().IntVar(&warmup, "warmup", 5, "Number of unmeasured runs before measuring")
	cmd.Flags().StringVar(&results, "results", "", "Write the metrics to this .json or .yaml file")

	return cmd
}
