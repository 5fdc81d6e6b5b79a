// Package config provides configuration management for go-pidlimit-probe.
package config

import "time"

// Config holds all configuration options for a probe run.
type Config struct {
	// Probe
	TargetCount   int           `json:"target_count"` // from TARGET_PID_COUNT
	ProgressEvery int           `json:"progress_every"`
	Hold          time.Duration `json:"hold"` // 0 = clean up immediately
	Strict        bool          `json:"strict"`

	// Placeholder process
	PlaceholderBinary string   `json:"placeholder_binary"`
	PlaceholderArgs   []string `json:"placeholder_args"`

	// Observability
	MetricsAddr     string `json:"metrics_addr"` // empty = disabled
	MetricsTextfile string `json:"metrics_textfile"`
	Verbose         bool   `json:"verbose"`
	LogFormat       string `json:"log_format"` // json, text
	LogLevel        string `json:"log_level"`
	TUIEnabled      bool   `json:"tui_enabled"`

	// Diagnostic modes
	SkipPreflight bool `json:"skip_preflight"`
}

// DefaultConfig returns a Config with sensible defaults.
// TargetCount has no default: it must come from the environment.
func DefaultConfig() *Config {
	return &Config{
		ProgressEvery: 10,

		PlaceholderBinary: "tail",
		PlaceholderArgs:   []string{"-f", "/dev/null"},

		LogFormat: "json",
		LogLevel:  "info",
	}
}
