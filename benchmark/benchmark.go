package benchmark

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/nvr-ai/go-pose/pipeline"
	"github.com/nvr-ai/go-pose/profiler"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Runner processes one image. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, img images.Raster) (*pipeline.Result, error)
}

// Scenario defines a specific test configuration.
type Scenario struct {
	Name       string `json:"name" yaml:"name"`
	Image      string `json:"image" yaml:"image"`
	Engine     string `json:"engine" yaml:"engine"`
	Provider   string `json:"provider" yaml:"provider"`
	Iterations int    `json:"iterations" yaml:"iterations"`
	WarmupRuns int    `json:"warmup_runs" yaml:"warmup_runs"`
}

// Validate checks the iteration counts.
func (s Scenario) Validate() error {
	if s.Iterations <= 0 {
		return errors.Errorf("scenario %q: iterations must be positive, got %d", s.Name, s.Iterations)
	}
	if s.WarmupRuns < 0 {
		return errors.Errorf("scenario %q: warmup runs must not be negative, got %d", s.Name, s.WarmupRuns)
	}
	return nil
}

// Suite runs scenarios against a Runner and keeps their results.
type Suite struct {
	runner  Runner
	logger  *slog.Logger
	mu      sync.RWMutex
	results []PerformanceMetrics
}

// NewSuite creates a new benchmark suite.
func NewSuite(runner Runner, logger *slog.Logger) *Suite {
	return &Suite{
		runner:  runner,
		logger:  logging.Module(logger, "benchmark"),
		results: make([]PerformanceMetrics, 0),
	}
}

// RunScenario executes a single benchmark scenario on img.
//
// Warmup runs are not measured. A failed iteration counts towards the error
// rate; a cancelled context stops the scenario.
//
// Arguments:
//   - ctx: Cancels the scenario between iterations.
//   - scenario: The iteration counts and labels.
//   - img: The image processed on every iteration.
//
// Returns:
//   - *PerformanceMetrics: The collected metrics, also kept by the suite.
//   - error: An error if the scenario is invalid or the context ends.
func (s *Suite) RunScenario(ctx context.Context, scenario Scenario, img images.Raster) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.runner.Run(ctx, img); err != nil {
			s.logger.Debug("warmup run failed", "scenario", scenario.Name, "error", err)
		}
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	stages := profiler.NewStopwatch()
	samples := make([]time.Duration, 0, scenario.Iterations)
	detections, failures := 0, 0
	start := time.Now()

	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.runner.Run(ctx, img)
		if err != nil {
			failures++
			s.logger.Debug("benchmark run failed", "scenario", scenario.Name, "iteration", i, "error", err)
			continue
		}

		samples = append(samples, result.Elapsed)
		for _, st := range result.Stages {
			stages.Record(st.Name, st.Duration)
		}
		detections += len(result.Kept)
	}

	total := time.Since(start)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics := &PerformanceMetrics{
		Scenario:       scenario,
		Timestamp:      start,
		TotalDuration:  total,
		Latency:        summarize(samples),
		Stages:         stageMeans(stages.Stages(), len(samples)),
		DetectionCount: detections,
		ErrorRate:      float64(failures) / float64(scenario.Iterations),
		MemoryStats: MemoryMetrics{
			AllocBytes:      endMem.Alloc,
			TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
			SysBytes:        endMem.Sys,
			NumGC:           endMem.NumGC - startMem.NumGC,
			HeapAllocBytes:  endMem.HeapAlloc,
			HeapSysBytes:    endMem.HeapSys,
		},
		CPUStats: CPUMetrics{NumCPU: runtime.NumCPU()},
	}
	if mean := metrics.Latency.Mean; mean > 0 {
		metrics.FramesPerSecond = float64(time.Second) / float64(mean)
	}

	s.mu.Lock()
	s.results = append(s.results, *metrics)
	s.mu.Unlock()

	s.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"fps", metrics.FramesPerSecond,
		"p50_ms", profiler.Milliseconds(metrics.Latency.P50),
		"p95_ms", profiler.Milliseconds(metrics.Latency.P95),
		"error_rate", metrics.ErrorRate,
	)

	return metrics, nil
}

// Results returns all benchmark results.
func (s *Suite) Results() []PerformanceMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]PerformanceMetrics(nil), s.results...)
}

// SaveResults writes results to path as YAML for a .yaml or .yml extension
// and as indented JSON otherwise. Parent directories are created.
func SaveResults(path string, results []PerformanceMetrics) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(results)
	default:
		data, err = json.MarshalIndent(results, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write results file")
	}
	return nil
}
