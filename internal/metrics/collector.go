// Package metrics provides Prometheus metrics for go-pidlimit-probe.
//
// All metrics are aggregate; per-child labels are never used, so cardinality
// stays fixed regardless of the target count.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/probe"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	TargetCount int
	Command     string
	Version     string
}

// Collector records spawn and cleanup activity. It implements probe.Recorder.
type Collector struct {
	info          *prometheus.GaugeVec
	target        prometheus.Gauge
	attempts      prometheus.Counter
	failures      *prometheus.CounterVec
	live          prometheus.Gauge
	spawned       prometheus.Gauge
	exhausted     prometheus.Gauge
	spawnDuration prometheus.Histogram
	cleanups      *prometheus.CounterVec
	limits        *prometheus.GaugeVec
	runDuration   prometheus.Gauge

	mu        sync.Mutex
	startTime time.Time
	liveCount int
	peakLive  int
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pidprobe_info",
				Help: "Information about the probe run (value always 1)",
			},
			[]string{"version", "command"},
		),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidprobe_target_processes",
			Help: "Number of placeholder processes the probe will try to spawn",
		}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pidprobe_spawn_attempts_total",
			Help: "Spawn attempts made",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidprobe_spawn_failures_total",
				Help: "Spawn attempts that failed, by failure kind",
			},
			[]string{"kind"},
		),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidprobe_live_processes",
			Help: "Placeholder processes currently tracked by the probe",
		}),
		spawned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidprobe_spawned_processes",
			Help: "Processes successfully spawned in the last run",
		}),
		exhausted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidprobe_exhausted",
			Help: "1 if spawning stopped on a failure before reaching the target",
		}),
		spawnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "pidprobe_spawn_duration_seconds",
			Help: "Time taken by each spawn attempt",
			Buckets: []float64{
				0.0001, 0.00025, 0.0005, 0.001, 0.0025,
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
			},
		}),
		cleanups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidprobe_cleanup_total",
				Help: "Cleanup results per child, by outcome",
			},
			[]string{"outcome"},
		),
		limits: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pidprobe_process_limit",
				Help: "Process limits observed by preflight (-1 = unlimited)",
			},
			[]string{"source"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidprobe_run_duration_seconds",
			Help: "Wall time of the last run, spawn through cleanup",
		}),
		startTime: time.Now(),
	}

	registry.MustRegister(
		c.info,
		c.target,
		c.attempts,
		c.failures,
		c.live,
		c.spawned,
		c.exhausted,
		c.spawnDuration,
		c.cleanups,
		c.limits,
		c.runDuration,
	)

	// Pre-create label values so dashboards see zeros instead of gaps
	for _, kind := range []process.Kind{process.KindResourceExhausted, process.KindOther} {
		c.failures.WithLabelValues(kind.String())
	}
	for _, outcome := range []probe.CleanupOutcome{probe.OutcomeTerminated, probe.OutcomeAlreadyGone, probe.OutcomeFailed} {
		c.cleanups.WithLabelValues(string(outcome))
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	c.info.WithLabelValues(version, cfg.Command).Set(1)
	c.target.Set(float64(cfg.TargetCount))

	return c
}

// SpawnAttempt records one spawn attempt.
func (c *Collector) SpawnAttempt(latency time.Duration, err error) {
	c.attempts.Inc()
	c.spawnDuration.Observe(latency.Seconds())

	if err != nil {
		c.failures.WithLabelValues(process.KindOf(err).String()).Inc()
		return
	}

	c.mu.Lock()
	c.liveCount++
	if c.liveCount > c.peakLive {
		c.peakLive = c.liveCount
	}
	c.live.Set(float64(c.liveCount))
	c.mu.Unlock()
}

// CleanupResult records the outcome of terminating one child.
func (c *Collector) CleanupResult(outcome probe.CleanupOutcome) {
	c.cleanups.WithLabelValues(string(outcome)).Inc()

	c.mu.Lock()
	if c.liveCount > 0 {
		c.liveCount--
	}
	c.live.Set(float64(c.liveCount))
	c.mu.Unlock()
}

// RunFinished records the final result of a run.
func (c *Collector) RunFinished(spawned int, exhausted bool) {
	c.spawned.Set(float64(spawned))
	if exhausted {
		c.exhausted.Set(1)
	} else {
		c.exhausted.Set(0)
	}
	c.runDuration.Set(time.Since(c.startTime).Seconds())
}

// SetLimit records a process limit discovered by preflight.
// Negative values mean unlimited.
func (c *Collector) SetLimit(source string, value int64) {
	c.limits.WithLabelValues(source).Set(float64(value))
}

// PeakLive returns the highest number of simultaneously tracked children.
func (c *Collector) PeakLive() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peakLive
}
