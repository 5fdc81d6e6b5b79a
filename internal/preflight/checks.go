// Package preflight inspects the process limits that apply to a probe run.
//
// Limits are informational: the probe exists to run into them. Only a
// missing placeholder binary fails preflight, since every spawn would fail
// for a reason unrelated to the limit under test.
package preflight

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// Unlimited marks a limit that is not set.
const Unlimited int64 = -1

// cgroupRoot is where the cgroup v2 unified hierarchy is mounted.
const cgroupRoot = "/sys/fs/cgroup"

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Limit   int64  // Limit found; Unlimited, or 0 if unknown
	Current int64  // Current usage, if the source reports it
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool

	// Headroom is how many more processes the cgroup allows, or Unlimited
	// if no cgroup pids limit was found. Zero means the cgroup is already at
	// pids.max.
	Headroom int64
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks for a run of target processes using
// the placeholder binary.
func RunAll(target int, binary string) *Result {
	result := &Result{
		Checks: make([]Check, 0, 5),
		Passed: true,
	}

	result.add(checkRlimitNproc())
	result.add(checkPidMax())

	cgCheck := checkCgroupPids(cgroupRoot, selfCgroupPath())
	result.add(cgCheck)
	result.Headroom = cgroupHeadroom(cgCheck)

	result.add(checkPlaceholder(binary))
	result.add(expectation(target, result.Headroom))

	return result
}

func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// Find returns the check with the given name.
func (r *Result) Find(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// checkRlimitNproc reports RLIMIT_NPROC. The limit counts every process of
// the real user ID, not only the probe's children, and is not enforced for
// root.
func checkRlimitNproc() Check {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NPROC, &lim); err != nil {
		return Check{
			Name:    "rlimit_nproc",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to read: %v", err),
		}
	}

	limit := rlimitValue(lim.Cur)
	msg := fmt.Sprintf("ulimit -u %s", formatLimit(limit))
	if os.Geteuid() == 0 {
		msg += " (not enforced for root)"
	}
	return Check{
		Name:    "rlimit_nproc",
		Limit:   limit,
		Passed:  true,
		Message: msg,
	}
}

// checkPidMax reports the system-wide PID ceiling.
func checkPidMax() Check {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return Check{
			Name:    "pid_max",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Linux or restricted)",
		}
	}

	values, err := fs.SysctlInts("kernel.pid_max")
	if err != nil || len(values) == 0 {
		return Check{
			Name:    "pid_max",
			Passed:  true,
			Warning: true,
			Message: "unable to read kernel.pid_max",
		}
	}

	return Check{
		Name:    "pid_max",
		Limit:   int64(values[0]),
		Passed:  true,
		Message: fmt.Sprintf("kernel.pid_max %d", values[0]),
	}
}

// selfCgroupPath returns the cgroup v2 path of this process, or "" if it
// cannot be determined.
func selfCgroupPath() string {
	self, err := procfs.Self()
	if err != nil {
		return ""
	}
	cgroups, err := self.Cgroups()
	if err != nil {
		return ""
	}
	for _, cg := range cgroups {
		// The unified hierarchy has ID 0 and no controller list.
		if cg.HierarchyID == 0 {
			return cg.Path
		}
	}
	return ""
}

// checkCgroupPids reads pids.max and pids.current for the cgroup at cgPath
// under root. This is the limit a container runtime applies for a pod's
// PID limit.
func checkCgroupPids(root, cgPath string) Check {
	if cgPath == "" {
		return Check{
			Name:    "cgroup_pids",
			Passed:  true,
			Warning: true,
			Message: "no cgroup v2 membership found",
		}
	}

	dir := filepath.Join(root, cgPath)
	limit, err := readPidsFile(filepath.Join(dir, "pids.max"))
	if err != nil {
		return Check{
			Name:    "cgroup_pids",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("pids controller not available for %s", cgPath),
		}
	}
	current, err := readPidsFile(filepath.Join(dir, "pids.current"))
	if err != nil {
		current = 0
	}

	return Check{
		Name:    "cgroup_pids",
		Limit:   limit,
		Current: current,
		Passed:  true,
		Message: fmt.Sprintf("pids.max %s, pids.current %d (%s)", formatLimit(limit), current, cgPath),
	}
}

// readPidsFile parses a cgroup pids file: an integer or "max".
func readPidsFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "max" {
		return Unlimited, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

// checkPlaceholder verifies the placeholder binary can be found.
func checkPlaceholder(binary string) Check {
	path, err := exec.LookPath(binary)
	if err != nil {
		return Check{
			Name:    "placeholder",
			Passed:  false,
			Message: fmt.Sprintf("%s not found: %v", binary, errors.Unwrap(err)),
		}
	}
	return Check{
		Name:    "placeholder",
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

// cgroupHeadroom returns how many more processes the cgroup check allows, or
// Unlimited when it found no limit.
func cgroupHeadroom(cg Check) int64 {
	if cg.Limit <= 0 {
		return Unlimited
	}
	if cg.Current >= cg.Limit {
		return 0
	}
	return cg.Limit - cg.Current
}

// expectation states whether the cgroup limit should stop the run early.
func expectation(target int, headroom int64) Check {
	switch {
	case headroom < 0:
		return Check{
			Name:    "expectation",
			Passed:  true,
			Warning: true,
			Message: "no cgroup pids limit found; exhaustion depends on other limits",
		}
	case headroom == 0:
		return Check{
			Name:    "expectation",
			Passed:  true,
			Message: "cgroup already at pids.max; exhaustion expected on the first spawn",
		}
	case headroom < int64(target):
		return Check{
			Name:    "expectation",
			Passed:  true,
			Message: fmt.Sprintf("exhaustion expected after about %d of %d spawns", headroom, target),
		}
	default:
		return Check{
			Name:    "expectation",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("headroom %d covers target %d; exhaustion not expected", headroom, target),
		}
	}
}

// SuggestFix returns a suggestion for fixing a failed check.
func SuggestFix(name string) string {
	switch name {
	case "placeholder":
		return "install coreutils or pass -command with a binary that blocks forever"
	case "cgroup_pids":
		return "set a pod PID limit (kubelet podPidsLimit) or docker run --pids-limit"
	default:
		return "see documentation"
	}
}

func rlimitValue(v uint64) int64 {
	// RLIM_INFINITY is all ones.
	if v > math.MaxInt64 {
		return Unlimited
	}
	return int64(v)
}

func formatLimit(v int64) string {
	if v == Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(v, 10)
}
