// Package probe runs the PID-limit probe: it spawns placeholder processes
// until a target count is reached or the environment refuses, then
// terminates every process it started.
//
// The lifecycle of a run is:
//
//	preflight (optional) -> spawning -> holding (optional) -> cleanup -> done
//
// Cleanup is deferred by the orchestrator over a registry it owns, so it
// runs on every exit path including cancellation and panics.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/preflight"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

var (
	// ErrPreflightFailed is returned when a required preflight check fails.
	ErrPreflightFailed = errors.New("preflight checks failed")

	// ErrSpawnError is returned in strict mode when spawning stopped on an
	// error that was not a process quota refusal.
	ErrSpawnError = errors.New("spawn failed for a reason other than resource exhaustion")
)

// Config configures a probe run.
type Config struct {
	Target        int
	Spawner       process.Spawner
	Logger        *slog.Logger
	Recorder      Recorder  // optional
	Progress      *Progress // optional; created if nil
	ProgressEvery int

	// Hold keeps the spawned children alive for this long before cleanup.
	Hold time.Duration

	// Strict makes Run return ErrSpawnError when the loop stopped on a
	// non-quota spawn error.
	Strict bool

	// Preflight, if set, runs before spawning.
	Preflight func() *preflight.Result
}

// Result is the outcome of a whole run.
type Result struct {
	LoopResult
	Cleanup   CleanupReport
	Preflight *preflight.Result
	Duration  time.Duration
}

// Probe orchestrates one run.
type Probe struct {
	cfg        Config
	logger     *slog.Logger
	recorder   Recorder
	progress   *Progress
	controller *Controller
	reaper     *Reaper
}

// New creates a Probe.
func New(cfg Config) *Probe {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NewProgress(cfg.Target)
	}

	return &Probe{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		progress: progress,
		controller: NewController(ControllerConfig{
			Spawner:       cfg.Spawner,
			Logger:        logger,
			Recorder:      recorder,
			Progress:      progress,
			ProgressEvery: cfg.ProgressEvery,
		}),
		reaper: NewReaper(logger, recorder, progress),
	}
}

// Progress returns the live counters of this run.
func (p *Probe) Progress() *Progress {
	return p.progress
}

// Run executes the probe. Running out of processes is the expected outcome
// and is not an error; the returned error is non-nil only for a failed
// preflight or, in strict mode, a non-quota spawn error.
func (p *Probe) Run(ctx context.Context) (result Result, err error) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		p.progress.setPhase(PhaseDone)
	}()

	result.Target = p.cfg.Target

	if p.cfg.Preflight != nil {
		result.Preflight = p.runPreflight()
		if !result.Preflight.Passed {
			result.StopReason = StopPreflightFailed
			return result, fmt.Errorf("%w (use -skip-preflight to override)", ErrPreflightFailed)
		}
	}

	result.LoopResult, result.Cleanup = p.spawnAndCleanup(ctx)
	p.recorder.RunFinished(result.Spawned, result.Exhausted)

	p.logger.Info("probe_finished",
		"target", result.Target,
		"spawned", result.Spawned,
		"exhausted", result.Exhausted,
		"reason", result.StopReason.String(),
		"cleaned", result.Cleanup.Visited,
	)

	if p.cfg.Strict && result.StopReason == StopSpawnError {
		return result, fmt.Errorf("%w: %v", ErrSpawnError, result.SpawnErr)
	}
	return result, nil
}

// spawnAndCleanup runs the spawn loop and the optional hold, then cleans up
// every spawned child regardless of how the loop ended.
func (p *Probe) spawnAndCleanup(ctx context.Context) (loop LoopResult, report CleanupReport) {
	reg := NewRegistry(p.cfg.Target)
	defer func() {
		report = p.reaper.Cleanup(reg)
	}()

	loop = p.controller.Run(ctx, reg, p.cfg.Target)
	p.hold(ctx, reg.Len())
	return loop, report
}

// hold keeps children alive for the configured duration or until ctx is done.
func (p *Probe) hold(ctx context.Context, live int) {
	if p.cfg.Hold <= 0 || live == 0 || ctx.Err() != nil {
		return
	}

	p.progress.setPhase(PhaseHolding)
	p.logger.Info("holding", "children", live, "duration", p.cfg.Hold.String())

	timer := time.NewTimer(p.cfg.Hold)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		p.logger.Info("hold_interrupted")
	}
}

func (p *Probe) runPreflight() *preflight.Result {
	p.progress.setPhase(PhasePreflight)
	res := p.cfg.Preflight()

	for _, c := range res.Checks {
		switch {
		case !c.Passed:
			p.logger.Error("preflight_check_failed",
				"check", c.Name,
				"message", c.Message,
				"fix", preflight.SuggestFix(c.Name),
			)
		case c.Warning:
			p.logger.Warn("preflight_check", "check", c.Name, "message", c.Message)
		default:
			p.logger.Info("preflight_check", "check", c.Name, "message", c.Message)
		}
	}
	return res
}
