package process

import (
	"os/exec"
	"strings"
)

// PlaceholderConfig holds configuration for the placeholder command.
type PlaceholderConfig struct {
	// BinaryPath is the command to run. Resolved through PATH if it has no slash.
	BinaryPath string

	// Args are passed to the command unchanged.
	Args []string
}

// DefaultPlaceholderConfig returns a command that blocks forever without
// doing any work: tail following the null device.
func DefaultPlaceholderConfig() *PlaceholderConfig {
	return &PlaceholderConfig{
		BinaryPath: "tail",
		Args:       []string{"-f", "/dev/null"},
	}
}

// PlaceholderSpawner launches inert, long-running processes that only occupy
// a process slot.
type PlaceholderSpawner struct {
	config *PlaceholderConfig
}

// NewPlaceholderSpawner creates a spawner for the given command.
func NewPlaceholderSpawner(cfg *PlaceholderConfig) *PlaceholderSpawner {
	if cfg == nil {
		cfg = DefaultPlaceholderConfig()
	}
	return &PlaceholderSpawner{config: cfg}
}

// Name returns the process type name.
func (s *PlaceholderSpawner) Name() string {
	return "placeholder"
}

// BuildCommand returns a ready-to-start command. The command is NOT started.
//
// Stdio is left nil so the child gets the null device and the parent keeps
// no pipes or copy goroutines per child.
func (s *PlaceholderSpawner) BuildCommand() *exec.Cmd {
	cmd := exec.Command(s.config.BinaryPath, s.config.Args...)
	cmd.SysProcAttr = sysProcAttr()
	return cmd
}

// Spawn starts one placeholder process.
func (s *PlaceholderSpawner) Spawn() (Child, error) {
	cmd := s.BuildCommand()
	if err := cmd.Start(); err != nil {
		return nil, classifySpawnError(err)
	}
	return newExecChild(cmd), nil
}

// CommandString returns the command line as a single string (for logging).
func (s *PlaceholderSpawner) CommandString() string {
	parts := append([]string{s.config.BinaryPath}, s.config.Args...)
	return strings.Join(parts, " ")
}
