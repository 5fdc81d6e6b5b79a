package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies why a spawn attempt failed.
type Kind int

const (
	// KindOther is any OS error that is not a process quota refusal
	// (missing binary, out of memory, permission denied, ...).
	KindOther Kind = iota

	// KindResourceExhausted means the kernel refused to create a process
	// because a PID quota was hit (pids cgroup, RLIMIT_NPROC, pid_max).
	KindResourceExhausted
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// SpawnError is returned by Spawner.Spawn when a process could not be created.
type SpawnError struct {
	Kind Kind
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn failed (%s): %v", e.Kind, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a spawn error. Errors that are not a
// *SpawnError are reported as KindOther.
func KindOf(err error) Kind {
	var se *SpawnError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindOther
}

// IsExhausted reports whether err is a spawn refusal caused by a PID quota.
func IsExhausted(err error) bool {
	return err != nil && KindOf(err) == KindResourceExhausted
}

// classifySpawnError wraps a process start error into a *SpawnError.
// fork(2) and clone(2) report quota refusals as EAGAIN.
func classifySpawnError(err error) *SpawnError {
	kind := KindOther
	if errors.Is(err, unix.EAGAIN) {
		kind = KindResourceExhausted
	}
	return &SpawnError{Kind: kind, Err: err}
}
