package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

// StopReason records why the spawn loop ended.
type StopReason int

const (
	// StopComplete means every requested process was spawned.
	StopComplete StopReason = iota

	// StopExhausted means the environment refused to create another process.
	StopExhausted

	// StopSpawnError means spawning failed for a reason other than a PID
	// quota. The loop still stops, but the failure is reported separately.
	StopSpawnError

	// StopCancelled means the run context was cancelled between attempts.
	StopCancelled

	// StopPreflightFailed means a required preflight check failed and the
	// loop never started.
	StopPreflightFailed
)

// String returns the label used in logs and the summary.
func (r StopReason) String() string {
	switch r {
	case StopComplete:
		return "complete"
	case StopExhausted:
		return "exhausted"
	case StopSpawnError:
		return "spawn_error"
	case StopCancelled:
		return "cancelled"
	case StopPreflightFailed:
		return "preflight_failed"
	default:
		return "unknown"
	}
}

// LoopResult is the outcome of the spawn loop.
type LoopResult struct {
	Target   int
	Attempts int
	Spawned  int

	// Exhausted is true when the loop stopped on any spawn failure, which
	// is how the probe interprets "no more processes can be created".
	// StopReason tells a quota refusal apart from other OS errors.
	Exhausted  bool
	StopReason StopReason
	SpawnErr   error

	Duration   time.Duration
	LatencyP50 time.Duration
	LatencyP95 time.Duration
	LatencyP99 time.Duration
	LatencyMax time.Duration
}

// ControllerConfig holds configuration for a Controller.
type ControllerConfig struct {
	Spawner       process.Spawner
	Logger        *slog.Logger
	Recorder      Recorder  // optional
	Progress      *Progress // optional
	ProgressEvery int       // info-level progress cadence, default 10
}

// Controller drives a Spawner up to a target count, one attempt at a time.
type Controller struct {
	spawner       process.Spawner
	logger        *slog.Logger
	recorder      Recorder
	progress      *Progress
	progressEvery int
}

// NewController creates a Controller.
func NewController(cfg ControllerConfig) *Controller {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NewProgress(0)
	}
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		spawner:       cfg.Spawner,
		logger:        logger,
		recorder:      recorder,
		progress:      progress,
		progressEvery: every,
	}
}

// Run spawns up to target children into reg, stopping at the first failure.
//
// Attempt i+1 starts only after attempt i has completed and its child, if
// any, is in reg. The registry is supplied by the caller so that it can be
// cleaned up on every path, including a panic inside the loop.
func (c *Controller) Run(ctx context.Context, reg *Registry, target int) LoopResult {
	result := LoopResult{Target: target, StopReason: StopComplete}
	digest := tdigest.NewWithCompression(100)
	start := time.Now()

	c.progress.setPhase(PhaseSpawning)

	for i := 0; i < target; i++ {
		// Check for cancellation
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			break
		}

		c.logAttempt(i, target)

		attemptStart := time.Now()
		child, err := c.spawner.Spawn()
		latency := time.Since(attemptStart)

		result.Attempts++
		c.progress.attempted()
		c.recorder.SpawnAttempt(latency, err)
		digest.Add(latency.Seconds(), 1)
		if latency > result.LatencyMax {
			result.LatencyMax = latency
		}

		if err != nil {
			result.Exhausted = true
			result.SpawnErr = err
			if process.IsExhausted(err) {
				result.StopReason = StopExhausted
			} else {
				result.StopReason = StopSpawnError
				c.logger.Error("spawn_failed",
					"attempt", i+1,
					"kind", process.KindOf(err).String(),
					"error", err,
				)
			}
			break
		}

		reg.Append(child)
		c.progress.spawnedOne()
		c.logger.Debug("child_spawned", "attempt", i+1, "pid", child.PID())
	}

	result.Spawned = reg.Len()
	result.Duration = time.Since(start)
	if result.Attempts > 0 {
		result.LatencyP50 = quantile(digest, 0.50)
		result.LatencyP95 = quantile(digest, 0.95)
		result.LatencyP99 = quantile(digest, 0.99)
	}

	c.logSummary(result)
	return result
}

// logAttempt logs the first attempt and every progressEvery-th at info,
// everything else at debug.
func (c *Controller) logAttempt(i, target int) {
	n := i + 1
	switch {
	case i == 0:
		c.logger.Info("spawn_starting", "attempt", n, "target", target, "spawner", c.spawner.Name())
	case n%c.progressEvery == 0:
		c.logger.Info("spawn_progress", "attempt", n, "target", target)
	default:
		c.logger.Debug("spawn_attempt", "attempt", n, "target", target)
	}
}

func (c *Controller) logSummary(r LoopResult) {
	switch r.StopReason {
	case StopComplete:
		c.logger.Info("spawn_complete",
			"spawned", r.Spawned,
			"target", r.Target,
			"duration", r.Duration.String(),
		)
	case StopCancelled:
		c.logger.Warn("spawn_incomplete",
			"spawned", r.Spawned,
			"target", r.Target,
			"reason", r.StopReason.String(),
		)
	default:
		c.logger.Warn("spawn_exhausted",
			"spawned", r.Spawned,
			"target", r.Target,
			"reason", r.StopReason.String(),
			"error", r.SpawnErr,
		)
	}
}

func quantile(d *tdigest.TDigest, q float64) time.Duration {
	return time.Duration(d.Quantile(q) * float64(time.Second))
}
