package process

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newSleepSpawner creates a spawner whose children sleep long enough to
// outlive any test.
func newSleepSpawner(t *testing.T) *PlaceholderSpawner {
	t.Helper()
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available, skipping process test")
	}
	return NewPlaceholderSpawner(&PlaceholderConfig{
		BinaryPath: "sleep",
		Args:       []string{"300"},
	})
}

// isAlive reports whether a process with pid exists (zombies included).
func isAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

// =============================================================================
// Tests: PlaceholderConfig
// =============================================================================

func TestDefaultPlaceholderConfig(t *testing.T) {
	cfg := DefaultPlaceholderConfig()

	if cfg.BinaryPath != "tail" {
		t.Errorf("BinaryPath = %q, want %q", cfg.BinaryPath, "tail")
	}
	if strings.Join(cfg.Args, " ") != "-f /dev/null" {
		t.Errorf("Args = %v, want [-f /dev/null]", cfg.Args)
	}
}

func TestNewPlaceholderSpawner_NilConfig(t *testing.T) {
	s := NewPlaceholderSpawner(nil)
	if s.config.BinaryPath != "tail" {
		t.Errorf("nil config should fall back to defaults, got %q", s.config.BinaryPath)
	}
}

func TestPlaceholderSpawner_Name(t *testing.T) {
	s := NewPlaceholderSpawner(nil)
	if s.Name() != "placeholder" {
		t.Errorf("Name() = %q, want %q", s.Name(), "placeholder")
	}
}

func TestPlaceholderSpawner_CommandString(t *testing.T) {
	s := NewPlaceholderSpawner(nil)
	if got := s.CommandString(); got != "tail -f /dev/null" {
		t.Errorf("CommandString() = %q, want %q", got, "tail -f /dev/null")
	}
}

func TestPlaceholderSpawner_BuildCommand(t *testing.T) {
	s := NewPlaceholderSpawner(nil)
	cmd := s.BuildCommand()

	if cmd.Process != nil {
		t.Error("BuildCommand must not start the process")
	}
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Error("child should run in its own process group")
	}
	if cmd.Stdin != nil || cmd.Stdout != nil || cmd.Stderr != nil {
		t.Error("stdio should be left to the null device")
	}
}

// =============================================================================
// Tests: Spawn / Terminate
// =============================================================================

func TestSpawn_Terminate(t *testing.T) {
	s := newSleepSpawner(t)

	child, err := s.Spawn()
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	pid := child.PID()
	if pid <= 0 {
		t.Fatalf("PID() = %d, want > 0", pid)
	}
	if !isAlive(pid) {
		t.Fatalf("child %d should be running", pid)
	}

	if err := child.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if isAlive(pid) {
		t.Errorf("child %d should be killed and reaped", pid)
	}
}

func TestTerminate_Twice(t *testing.T) {
	s := newSleepSpawner(t)

	child, err := s.Spawn()
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if err := child.Terminate(); err != nil {
		t.Fatalf("first Terminate() error = %v", err)
	}

	err = child.Terminate()
	if !errors.Is(err, ErrProcessGone) {
		t.Errorf("second Terminate() = %v, want ErrProcessGone", err)
	}
}

func TestSpawn_MissingBinary(t *testing.T) {
	s := NewPlaceholderSpawner(&PlaceholderConfig{
		BinaryPath: "/nonexistent/placeholder-binary",
	})

	child, err := s.Spawn()
	if err == nil {
		child.Terminate()
		t.Fatal("Spawn() should fail for a missing binary")
	}
	if child != nil {
		t.Error("failed Spawn() should return a nil child")
	}

	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("error should be *SpawnError, got %T", err)
	}
	if se.Kind != KindOther {
		t.Errorf("Kind = %v, want %v", se.Kind, KindOther)
	}
	if IsExhausted(err) {
		t.Error("missing binary must not be reported as exhaustion")
	}
}
