// Package process provides abstractions for spawning and terminating
// placeholder child processes.
package process

import "errors"

// ErrProcessGone is returned by Child.Terminate when the process had already
// exited (or been reaped) before the termination signal could be delivered.
var ErrProcessGone = errors.New("process already gone")

// Child is a handle to one spawned process.
type Child interface {
	// PID returns the operating system process identifier.
	PID() int

	// Terminate kills the process and reaps it. Calling Terminate on a
	// process that no longer exists returns ErrProcessGone; it never panics,
	// so it is safe to call more than once.
	Terminate() error
}

// Spawner creates placeholder child processes.
// This interface allows the probe to be decoupled from the exact command.
type Spawner interface {
	// Spawn starts one child process. On failure the error is a *SpawnError.
	Spawn() (Child, error)

	// Name returns a human-readable name for this process type.
	Name() string
}
