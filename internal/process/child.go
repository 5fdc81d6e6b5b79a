package process

import (
	"errors"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// execChild is a Child backed by a started *exec.Cmd.
//
// The child is reaped with wait4 directly instead of cmd.Wait: a process
// killed by someone else stays a zombie until reaped, and kill(2) on a zombie
// succeeds, so a non-blocking wait4 is the only way to tell that it was
// already gone.
type execChild struct {
	cmd  *exec.Cmd
	pid  int
	done bool
}

func newExecChild(cmd *exec.Cmd) *execChild {
	return &execChild{cmd: cmd, pid: cmd.Process.Pid}
}

// PID returns the process identifier.
func (c *execChild) PID() int {
	return c.pid
}

// Terminate sends SIGKILL and reaps the process.
func (c *execChild) Terminate() error {
	if c.done {
		return ErrProcessGone
	}

	exited, err := c.reap(unix.WNOHANG)
	if err != nil {
		return fmt.Errorf("wait4 pid %d: %w", c.pid, err)
	}
	if exited {
		return ErrProcessGone
	}

	if err := unix.Kill(c.pid, unix.SIGKILL); err != nil {
		if errors.Is(err, unix.ESRCH) {
			c.finish()
			return ErrProcessGone
		}
		return fmt.Errorf("kill pid %d: %w", c.pid, err)
	}

	if _, err := c.reap(0); err != nil {
		return fmt.Errorf("wait4 pid %d after kill: %w", c.pid, err)
	}
	return nil
}

// reap waits for the child with the given wait4 options.
// Returns true once the child has been collected.
func (c *execChild) reap(options int) (bool, error) {
	var status unix.WaitStatus
	for {
		wpid, err := unix.Wait4(c.pid, &status, options, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// Reaped elsewhere.
			c.finish()
			return true, nil
		case err != nil:
			return false, err
		case wpid == c.pid:
			c.finish()
			return true, nil
		default:
			// WNOHANG and still running
			return false, nil
		}
	}
}

func (c *execChild) finish() {
	c.done = true
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Release()
	}
}
