//go:build linux

package process

import "syscall"

// sysProcAttr puts the child in its own process group, so a terminal Ctrl+C
// reaches only the probe, and kills it if the probe dies without cleaning up.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
