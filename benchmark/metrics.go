// Package benchmark - Repeated pipeline runs with latency and memory metrics.
package benchmark

import (
	"slices"
	"time"

	"github.com/nvr-ai/go-pose/profiler"
)

// PerformanceMetrics captures detailed performance data for one scenario.
type PerformanceMetrics struct {
	Scenario        Scenario       `json:"scenario" yaml:"scenario"`
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	TotalDuration   time.Duration  `json:"total_duration" yaml:"total_duration"`
	Latency         LatencyMetrics `json:"latency" yaml:"latency"`
	Stages          []StageMetrics `json:"stages" yaml:"stages"`
	FramesPerSecond float64        `json:"frames_per_second" yaml:"frames_per_second"`
	MemoryStats     MemoryMetrics  `json:"memory_stats" yaml:"memory_stats"`
	CPUStats        CPUMetrics     `json:"cpu_stats" yaml:"cpu_stats"`
	DetectionCount  int            `json:"detection_count" yaml:"detection_count"`
	ErrorRate       float64        `json:"error_rate" yaml:"error_rate"`
}

// LatencyMetrics summarises the per-run pipeline time.
type LatencyMetrics struct {
	Min  time.Duration `json:"min" yaml:"min"`
	Mean time.Duration `json:"mean" yaml:"mean"`
	P50  time.Duration `json:"p50" yaml:"p50"`
	P95  time.Duration `json:"p95" yaml:"p95"`
	Max  time.Duration `json:"max" yaml:"max"`
}

// StageMetrics is the mean duration of one pipeline stage.
type StageMetrics struct {
	Name string        `json:"name" yaml:"name"`
	Mean time.Duration `json:"mean" yaml:"mean"`
}

// MemoryMetrics captures memory usage statistics.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes" yaml:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes" yaml:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes" yaml:"sys_bytes"`
	NumGC           uint32 `json:"num_gc" yaml:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes" yaml:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes" yaml:"heap_sys_bytes"`
}

// CPUMetrics captures CPU information.
type CPUMetrics struct {
	NumCPU int `json:"num_cpu" yaml:"num_cpu"`
}

// summarize computes latency statistics. samples is sorted in place.
func summarize(samples []time.Duration) LatencyMetrics {
	if len(samples) == 0 {
		return LatencyMetrics{}
	}
	slices.Sort(samples)

	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return LatencyMetrics{
		Min:  samples[0],
		Mean: total / time.Duration(len(samples)),
		P50:  percentile(samples, 50),
		P95:  percentile(samples, 95),
		Max:  samples[len(samples)-1],
	}
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// stageMeans averages accumulated stage totals over n runs, keeping order.
func stageMeans(totals []profiler.Stage, n int) []StageMetrics {
	out := make([]StageMetrics, 0, len(totals))
	if n == 0 {
		return out
	}
	for _, st := range totals {
		out = append(out, StageMetrics{Name: st.Name, Mean: st.Duration / time.Duration(n)})
	}
	return out
}
