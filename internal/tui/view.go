package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/probe"
)

func (m Model) renderView() string {
	sections := []string{
		m.renderHeader(),
		m.renderSpawnProgress(),
	}
	if m.snap.Phase == probe.PhaseCleanup || m.snap.Phase == probe.PhaseDone {
		sections = append(sections, m.renderCleanupProgress())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" go-pidlimit-probe │ %s │ Spawned: %d/%d │ Elapsed: %s ",
		m.snap.Phase,
		m.snap.Spawned,
		m.target,
		formatDuration(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Sections
// =============================================================================

func (m Model) barWidth() int {
	w := m.width - 30
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderSpawnProgress() string {
	var status string
	switch {
	case m.stopping && !m.snap.Phase.IsTerminal():
		status = statusWarning.Render("Stopping... cleaning up spawned processes")
	case m.snap.Phase == probe.PhaseSpawning:
		status = PhaseStyle(m.snap.Phase).Render(fmt.Sprintf("Spawning... %d/%d", m.snap.Spawned, m.target))
	case m.snap.Phase == probe.PhaseHolding:
		status = PhaseStyle(m.snap.Phase).Render(fmt.Sprintf("Holding %d processes", m.snap.Spawned))
	case m.snap.Spawned >= m.target && m.target > 0:
		status = statusOK.Render("✓ Target reached")
	case m.snap.Attempts > m.snap.Spawned:
		status = statusError.Render(fmt.Sprintf("Spawning stopped after %d processes", m.snap.Spawned))
	default:
		status = PhaseStyle(m.snap.Phase).Render(m.snap.Phase.String())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Spawn Progress"),
		RenderProgressBar(m.snap.Fraction(), m.barWidth()),
		status,
		RenderKeyValue("Attempts", fmt.Sprintf("%d", m.snap.Attempts)),
		RenderKeyValue("Spawned", fmt.Sprintf("%d", m.snap.Spawned)),
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

func (m Model) renderCleanupProgress() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Cleanup"),
		RenderProgressBar(m.CleanupProgress(), m.barWidth()),
		RenderKeyValue("Cleaned", fmt.Sprintf("%d/%d", m.snap.Cleaned, m.snap.Spawned)),
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	shortcuts := []string{"q: stop and clean up"}
	if m.metricsAddr != "" {
		shortcuts = append(shortcuts, "metrics: "+m.metricsAddr)
	}

	cmd := m.command
	maxLen := m.width - 50
	if len(cmd) > maxLen && maxLen > 10 {
		cmd = cmd[:maxLen-3] + "..."
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))
	right := dimStyle.Render("Command: " + cmd)

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}
