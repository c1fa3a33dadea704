// Package telemetry aggregates per-frame pipeline timing so the daemon can
// log throughput and latency at a glance instead of per frame.
package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Config controls the reporting cadence.
type Config struct {
	// ReportInterval is how often accumulated stats are logged and reset.
	// Zero disables periodic reporting; Observe still accumulates.
	ReportInterval time.Duration `json:"report_interval"`
}

// DefaultConfig reports every five seconds.
func DefaultConfig() Config {
	return Config{ReportInterval: 5 * time.Second}
}

// Stats summarises one reporting window.
type Stats struct {
	Frames  int
	Dropped int
	FPS     float64
	P50     time.Duration
	P95     time.Duration
	Max     time.Duration
}

// Monitor accumulates frame timings from the capture loop. It is used from
// a single goroutine; the loop that observes is the loop that reports.
type Monitor struct {
	cfg Config
	log *slog.Logger

	windowStart time.Time
	latencies   []float64
	dropped     int
	maxLatency  time.Duration
}

// NewMonitor builds a monitor that logs through the given logger.
func NewMonitor(cfg Config, log *slog.Logger) *Monitor {
	return &Monitor{cfg: cfg, log: log, windowStart: time.Now()}
}

// Observe records the processing latency of one frame, then emits a report
// if the window has elapsed.
func (m *Monitor) Observe(latency time.Duration) {
	m.latencies = append(m.latencies, latency.Seconds())
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	if m.cfg.ReportInterval > 0 && time.Since(m.windowStart) >= m.cfg.ReportInterval {
		m.report()
	}
}

// ObserveDrop records a frame that was skipped rather than processed.
func (m *Monitor) ObserveDrop() {
	m.dropped++
}

// Flush reports whatever the current window holds and resets it.
func (m *Monitor) Flush() {
	if len(m.latencies) > 0 || m.dropped > 0 {
		m.report()
	}
}

// Snapshot computes stats for the current window without resetting it.
func (m *Monitor) Snapshot() Stats {
	s := Stats{
		Frames:  len(m.latencies),
		Dropped: m.dropped,
		Max:     m.maxLatency,
	}
	elapsed := time.Since(m.windowStart).Seconds()
	if elapsed > 0 {
		s.FPS = float64(len(m.latencies)) / elapsed
	}
	if len(m.latencies) > 0 {
		sorted := make([]float64, len(m.latencies))
		copy(sorted, m.latencies)
		sort.Float64s(sorted)
		s.P50 = secondsToDuration(stat.Quantile(0.50, stat.Empirical, sorted, nil))
		s.P95 = secondsToDuration(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	}
	return s
}

func (m *Monitor) report() {
	s := m.Snapshot()
	m.log.Info("pipeline stats",
		slog.Int("frames", s.Frames),
		slog.Int("dropped", s.Dropped),
		slog.Float64("fps", s.FPS),
		slog.Duration("p50", s.P50),
		slog.Duration("p95", s.P95),
		slog.Duration("max", s.Max))

	m.windowStart = time.Now()
	m.latencies = m.latencies[:0]
	m.dropped = 0
	m.maxLatency = 0
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
