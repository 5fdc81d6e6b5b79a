package probe

import "sync/atomic"

// Progress exposes live counters of a run to other goroutines (TUI, metrics)
// without sharing the registry.
type Progress struct {
	target   atomic.Int64
	attempts atomic.Int64
	spawned  atomic.Int64
	cleaned  atomic.Int64
	phase    atomic.Int32
}

// Snapshot is a point-in-time copy of Progress.
type Snapshot struct {
	Target   int
	Attempts int
	Spawned  int
	Cleaned  int
	Phase    Phase
}

// NewProgress creates progress counters for a run of target attempts.
func NewProgress(target int) *Progress {
	p := &Progress{}
	p.target.Store(int64(target))
	return p
}

func (p *Progress) setPhase(phase Phase) {
	p.phase.Store(int32(phase))
}

func (p *Progress) attempted() {
	p.attempts.Add(1)
}

func (p *Progress) spawnedOne() {
	p.spawned.Add(1)
}

func (p *Progress) cleanedOne() {
	p.cleaned.Add(1)
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Target:   int(p.target.Load()),
		Attempts: int(p.attempts.Load()),
		Spawned:  int(p.spawned.Load()),
		Cleaned:  int(p.cleaned.Load()),
		Phase:    Phase(p.phase.Load()),
	}
}

// Fraction returns spawn progress towards the target in [0, 1].
func (s Snapshot) Fraction() float64 {
	if s.Target <= 0 {
		return 0
	}
	f := float64(s.Spawned) / float64(s.Target)
	if f > 1 {
		f = 1
	}
	return f
}
