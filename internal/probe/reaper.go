package probe

import (
	"errors"
	"log/slog"
	"time"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

// CleanupReport summarizes one cleanup pass.
type CleanupReport struct {
	Visited     int
	Terminated  int
	AlreadyGone int
	Failed      int
	Duration    time.Duration
}

// Reaper terminates every child in a registry.
type Reaper struct {
	logger   *slog.Logger
	recorder Recorder
	progress *Progress
}

// NewReaper creates a Reaper. recorder and progress may be nil.
func NewReaper(logger *slog.Logger, recorder Recorder, progress *Progress) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if progress == nil {
		progress = NewProgress(0)
	}
	return &Reaper{logger: logger, recorder: recorder, progress: progress}
}

// Cleanup terminates every child in reg, in insertion order.
// A failure on one child never stops the others from being visited.
func (r *Reaper) Cleanup(reg *Registry) CleanupReport {
	start := time.Now()
	var report CleanupReport

	r.progress.setPhase(PhaseCleanup)
	r.logger.Debug("cleanup_starting", "children", reg.Len())

	reg.Each(func(_ int, child process.Child) {
		outcome := r.terminate(child)
		report.Visited++
		switch outcome {
		case OutcomeTerminated:
			report.Terminated++
		case OutcomeAlreadyGone:
			report.AlreadyGone++
		default:
			report.Failed++
		}
		r.recorder.CleanupResult(outcome)
		r.progress.cleanedOne()
	})

	report.Duration = time.Since(start)
	r.logger.Info("cleanup_complete",
		"visited", report.Visited,
		"terminated", report.Terminated,
		"already_gone", report.AlreadyGone,
		"failed", report.Failed,
	)
	return report
}

// terminate signals one child, converting panics into a failed outcome.
func (r *Reaper) terminate(child process.Child) (outcome CleanupOutcome) {
	pid := child.PID()
	defer func() {
		if v := recover(); v != nil {
			r.logger.Warn("child_terminate_panic", "pid", pid, "panic", v)
			outcome = OutcomeFailed
		}
	}()

	err := child.Terminate()
	switch {
	case err == nil:
		r.logger.Debug("child_terminated", "pid", pid)
		return OutcomeTerminated
	case errors.Is(err, process.ErrProcessGone):
		r.logger.Info("child_already_gone", "pid", pid)
		return OutcomeAlreadyGone
	default:
		r.logger.Warn("child_terminate_failed", "pid", pid, "error", err)
		return OutcomeFailed
	}
}
