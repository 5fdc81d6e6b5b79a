package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/probe"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// DoneMsg carries the finished run. The TUI exits once it arrives.
type DoneMsg struct {
	Result probe.Result
	Err    error
}

// =============================================================================
// Model
// =============================================================================

// SnapshotSource provides live run counters.
type SnapshotSource interface {
	Snapshot() probe.Snapshot
}

// Config holds TUI configuration.
type Config struct {
	Target      int
	Command     string
	MetricsAddr string
	Source      SnapshotSource

	// Cancel stops the run. The TUI keeps drawing until DoneMsg arrives so
	// cleanup progress stays visible.
	Cancel func()
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	target      int
	command     string
	metricsAddr string
	source      SnapshotSource
	cancel      func()

	// Current state
	snap       probe.Snapshot
	startTime  time.Time
	lastUpdate time.Time
	stopping   bool
	done       bool
	result     probe.Result
	err        error

	// Display options
	width  int
	height int
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		target:      cfg.Target,
		command:     cfg.Command,
		metricsAddr: cfg.MetricsAddr,
		source:      cfg.Source,
		cancel:      cfg.Cancel,
		snap:        probe.Snapshot{Target: cfg.Target},
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if m.source != nil {
			m.snap = m.source.Snapshot()
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if m.source != nil {
			m.snap = m.source.Snapshot()
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.done {
		return ""
	}
	return m.renderView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 200ms.
func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// SendDone delivers the finished run to the program.
func SendDone(p *tea.Program, res probe.Result, err error) {
	p.Send(DoneMsg{Result: res, Err: err})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the run started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot returns the last counters seen.
func (m Model) Snapshot() probe.Snapshot {
	return m.snap
}

// Stopping reports whether the user asked to stop the run.
func (m Model) Stopping() bool {
	return m.stopping
}

// Done reports whether the run has finished.
func (m Model) Done() bool {
	return m.done
}

// Result returns the finished run, valid once Done is true.
func (m Model) Result() (probe.Result, error) {
	return m.result, m.err
}

// CleanupProgress returns the fraction of spawned children already visited
// by cleanup.
func (m Model) CleanupProgress() float64 {
	if m.snap.Spawned <= 0 {
		return 0
	}
	f := float64(m.snap.Cleaned) / float64(m.snap.Spawned)
	if f > 1 {
		f = 1
	}
	return f
}

// =============================================================================
// Formatting
// =============================================================================

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
