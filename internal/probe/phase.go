package probe

// Phase represents where a probe run currently is.
type Phase int32

const (
	// PhaseIdle is the initial phase before Run is called.
	PhaseIdle Phase = iota

	// PhasePreflight indicates limits are being inspected.
	PhasePreflight

	// PhaseSpawning indicates the spawn loop is running.
	PhaseSpawning

	// PhaseHolding indicates children are being kept alive before cleanup.
	PhaseHolding

	// PhaseCleanup indicates children are being terminated.
	PhaseCleanup

	// PhaseDone indicates the run finished and every child was visited.
	PhaseDone
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreflight:
		return "preflight"
	case PhaseSpawning:
		return "spawning"
	case PhaseHolding:
		return "holding"
	case PhaseCleanup:
		return "cleanup"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once the run has finished.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone
}
