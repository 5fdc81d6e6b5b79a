// Package report formats the exit summary printed after a probe run.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/probe"
	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Command is the placeholder command line
	Command string

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// MetricsTextfile is where the final metrics were written, if anywhere
	MetricsTextfile string

	// PeakLive is the highest number of children alive at once
	PeakLive int
}

var (
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(24)
)

const ruleWidth = 79

// FormatSummary formats a run result for display at program exit.
func FormatSummary(res probe.Result, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("═", ruleWidth)) + "\n")
	b.WriteString(titleStyle.Render(center("go-pidlimit-probe Exit Summary", ruleWidth)) + "\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("═", ruleWidth)) + "\n\n")

	b.WriteString(Verdict(res.LoopResult) + "\n\n")

	row(&b, "Run Duration", FormatDuration(res.Duration))
	if cfg.Command != "" {
		row(&b, "Placeholder", cfg.Command)
	}
	row(&b, "Target", fmt.Sprintf("%d", res.Target))
	row(&b, "Attempts", fmt.Sprintf("%d", res.Attempts))
	row(&b, "Spawned", fmt.Sprintf("%d", res.Spawned))
	if cfg.PeakLive > 0 {
		row(&b, "Peak Live", fmt.Sprintf("%d", cfg.PeakLive))
	}
	row(&b, "Stop Reason", res.StopReason.String())
	if res.SpawnErr != nil {
		row(&b, "Last Spawn Error", res.SpawnErr.Error())
	}

	if res.Attempts > 0 {
		section(&b, "Spawn Latency")
		row(&b, "P50", FormatMs(res.LatencyP50))
		row(&b, "P95", FormatMs(res.LatencyP95))
		row(&b, "P99", FormatMs(res.LatencyP99))
		row(&b, "Max", FormatMs(res.LatencyMax))
		row(&b, "Spawn Phase", FormatMs(res.LoopResult.Duration))
	}

	section(&b, "Cleanup")
	row(&b, "Visited", fmt.Sprintf("%d", res.Cleanup.Visited))
	row(&b, "Terminated", fmt.Sprintf("%d", res.Cleanup.Terminated))
	row(&b, "Already Gone", fmt.Sprintf("%d", res.Cleanup.AlreadyGone))
	failed := fmt.Sprintf("%d", res.Cleanup.Failed)
	if res.Cleanup.Failed > 0 {
		failed = badStyle.Render(failed)
	}
	row(&b, "Failed", failed)
	row(&b, "Cleanup Time", FormatMs(res.Cleanup.Duration))

	if res.Preflight != nil && len(res.Preflight.Checks) > 0 {
		section(&b, "Limits")
		for _, c := range res.Preflight.Checks {
			b.WriteString(c.String() + "\n")
		}
	}

	if cfg.MetricsAddr != "" || cfg.MetricsTextfile != "" {
		section(&b, "Metrics")
		if cfg.MetricsAddr != "" {
			row(&b, "Endpoint", "http://"+cfg.MetricsAddr+"/metrics")
		}
		if cfg.MetricsTextfile != "" {
			row(&b, "Textfile", cfg.MetricsTextfile)
		}
	}

	b.WriteString("\n" + ruleStyle.Render(strings.Repeat("═", ruleWidth)) + "\n")
	return b.String()
}

// Verdict returns the one-line outcome of the spawn loop.
func Verdict(r probe.LoopResult) string {
	switch r.StopReason {
	case probe.StopComplete:
		return goodStyle.Render(fmt.Sprintf("✓ Reached target: spawned %d of %d processes", r.Spawned, r.Target))
	case probe.StopExhausted:
		return warnStyle.Render(fmt.Sprintf("⚠ Ran out of PIDs before reaching target: spawned %d of %d processes", r.Spawned, r.Target))
	case probe.StopCancelled:
		return warnStyle.Render(fmt.Sprintf("⚠ Interrupted: spawned %d of %d processes", r.Spawned, r.Target))
	case probe.StopPreflightFailed:
		return badStyle.Render(fmt.Sprintf("✗ Preflight failed: spawned %d of %d processes", r.Spawned, r.Target))
	default:
		return badStyle.Render(fmt.Sprintf("✗ Spawning failed (%s) before reaching target: spawned %d of %d processes",
			process.KindOf(r.SpawnErr), r.Spawned, r.Target))
	}
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("─", ruleWidth)) + "\n")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString("  " + labelStyle.Render(label+":") + value + "\n")
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// =============================================================================
// Formatting Helper Functions
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	if d <= 0 {
		return "0ms"
	}
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1 {
		return fmt.Sprintf("%.3fms", ms)
	}
	return fmt.Sprintf("%.1fms", ms)
}
