package probe

import "time"

// CleanupOutcome is the result of terminating one child.
type CleanupOutcome string

const (
	OutcomeTerminated  CleanupOutcome = "terminated"
	OutcomeAlreadyGone CleanupOutcome = "already_gone"
	OutcomeFailed      CleanupOutcome = "failed"
)

// Recorder receives run events for metrics. metrics.Collector implements it.
type Recorder interface {
	// SpawnAttempt is called after every spawn attempt; err is nil on success.
	SpawnAttempt(latency time.Duration, err error)

	// CleanupResult is called once per child during cleanup.
	CleanupResult(outcome CleanupOutcome)

	// RunFinished is called once after cleanup.
	RunFinished(spawned int, exhausted bool)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func (NoopRecorder) SpawnAttempt(time.Duration, error) {}
func (NoopRecorder) CleanupResult(CleanupOutcome)      {}
func (NoopRecorder) RunFinished(int, bool)             {}
