package config

import (
	"errors"
	"flag"
	"strings"
	"testing"
	"time"
)

// envMap builds a LookupFunc over a fixed set of variables.
func envMap(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.TargetCount = 5
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"TargetCount", cfg.TargetCount, 0},
		{"ProgressEvery", cfg.ProgressEvery, 10},
		{"Hold", cfg.Hold, time.Duration(0)},
		{"Strict", cfg.Strict, false},
		{"PlaceholderBinary", cfg.PlaceholderBinary, "tail"},
		{"PlaceholderArgs", strings.Join(cfg.PlaceholderArgs, " "), "-f /dev/null"},
		{"MetricsAddr", cfg.MetricsAddr, ""},
		{"LogFormat", cfg.LogFormat, "json"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"TUIEnabled", cfg.TUIEnabled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

// =============================================================================
// Tests: TARGET_PID_COUNT
// =============================================================================

func TestParseTargetCount(t *testing.T) {
	testCases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"5", 5, false},
		{"100", 100, false},
		{" 37 ", 37, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
		{"99999999999999999999999", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseTargetCount(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTargetCount(%q) expected error, got %d", tc.input, got)
				}
				if !errors.Is(err, ErrTargetCountInvalid) {
					t.Errorf("error should wrap ErrTargetCountInvalid: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTargetCount(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseTargetCount(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestTargetCountFromEnv_Missing(t *testing.T) {
	_, err := TargetCountFromEnv(envMap(nil))
	if !errors.Is(err, ErrTargetCountMissing) {
		t.Errorf("missing variable error = %v, want ErrTargetCountMissing", err)
	}
}

func TestTargetCountFromEnv_Present(t *testing.T) {
	got, err := TargetCountFromEnv(envMap(map[string]string{TargetCountEnv: "42"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("TargetCountFromEnv() = %d, want 42", got)
	}
}

// =============================================================================
// Tests: ParseFlags
// =============================================================================

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags(nil, envMap(map[string]string{TargetCountEnv: "5"}))
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.TargetCount != 5 {
		t.Errorf("TargetCount = %d, want 5", cfg.TargetCount)
	}
	if cfg.PlaceholderBinary != "tail" {
		t.Errorf("PlaceholderBinary = %q, want tail", cfg.PlaceholderBinary)
	}
	if strings.Join(cfg.PlaceholderArgs, " ") != "-f /dev/null" {
		t.Errorf("PlaceholderArgs = %v", cfg.PlaceholderArgs)
	}
}

func TestParseFlags_AllFlags(t *testing.T) {
	args := []string{
		"-command", "sleep infinity",
		"-progress-every", "25",
		"-hold", "30s",
		"-strict",
		"-skip-preflight",
		"-metrics", "127.0.0.1:9200",
		"-metrics-textfile", "/tmp/probe.prom",
		"-v",
		"-log-format", "text",
		"-log-level", "debug",
		"-tui",
	}

	cfg, err := ParseFlags(args, envMap(map[string]string{TargetCountEnv: "100"}))
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"TargetCount", cfg.TargetCount, 100},
		{"PlaceholderBinary", cfg.PlaceholderBinary, "sleep"},
		{"PlaceholderArgs", strings.Join(cfg.PlaceholderArgs, " "), "infinity"},
		{"ProgressEvery", cfg.ProgressEvery, 25},
		{"Hold", cfg.Hold, 30 * time.Second},
		{"Strict", cfg.Strict, true},
		{"SkipPreflight", cfg.SkipPreflight, true},
		{"MetricsAddr", cfg.MetricsAddr, "127.0.0.1:9200"},
		{"MetricsTextfile", cfg.MetricsTextfile, "/tmp/probe.prom"},
		{"Verbose", cfg.Verbose, true},
		{"LogFormat", cfg.LogFormat, "text"},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"TUIEnabled", cfg.TUIEnabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestParseFlags_TargetCountErrors(t *testing.T) {
	testCases := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"absent", map[string]string{}, ErrTargetCountMissing},
		{"zero", map[string]string{TargetCountEnv: "0"}, ErrTargetCountInvalid},
		{"non-numeric", map[string]string{TargetCountEnv: "abc"}, ErrTargetCountInvalid},
		{"negative", map[string]string{TargetCountEnv: "-1"}, ErrTargetCountInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseFlags(nil, envMap(tc.env))
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if cfg != nil {
				t.Error("config should be nil on error")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
			var ve ValidationError
			if !errors.As(err, &ve) || ve.Field != "target_count" {
				t.Errorf("error should be a target_count ValidationError, got %#v", err)
			}
		})
	}
}

func TestParseFlags_LogLevelFromEnv(t *testing.T) {
	env := map[string]string{TargetCountEnv: "3", LogLevelEnv: "warn"}

	cfg, err := ParseFlags(nil, envMap(env))
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn from %s", cfg.LogLevel, LogLevelEnv)
	}

	// An explicit flag wins over the environment
	cfg, err = ParseFlags([]string{"-log-level", "error"}, envMap(env))
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error from flag", cfg.LogLevel)
	}
}

func TestParseFlags_EmptyCommand(t *testing.T) {
	cfg, err := ParseFlags([]string{"-command", "   "}, envMap(map[string]string{TargetCountEnv: "1"}))
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.PlaceholderBinary != "" {
		t.Errorf("PlaceholderBinary = %q, want empty", cfg.PlaceholderBinary)
	}
	if err := Validate(cfg); err == nil {
		t.Error("Validate should reject an empty command")
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := ParseFlags([]string{"-h"}, envMap(nil))
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h error = %v, want flag.ErrHelp", err)
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, err := ParseFlags([]string{"-nope"}, envMap(map[string]string{TargetCountEnv: "1"}))
	if err == nil {
		t.Error("unknown flag should be an error")
	}
}

// =============================================================================
// Tests: Validate
// =============================================================================

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero target", func(c *Config) { c.TargetCount = 0 }, "target_count"},
		{"negative target", func(c *Config) { c.TargetCount = -1 }, "target_count"},
		{"empty command", func(c *Config) { c.PlaceholderBinary = "" }, "command"},
		{"progress every zero", func(c *Config) { c.ProgressEvery = 0 }, "progress_every"},
		{"negative hold", func(c *Config) { c.Hold = -time.Second }, "hold"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"bad metrics addr", func(c *Config) { c.MetricsAddr = "localhost" }, "metrics_addr"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q should mention %q", err.Error(), tc.field)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.TargetCount = 0
	cfg.LogFormat = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "target_count") || !strings.Contains(err.Error(), "log_format") {
		t.Errorf("all problems should be reported: %v", err)
	}
	if !errors.Is(err, ErrTargetCountInvalid) {
		t.Error("joined error should still match ErrTargetCountInvalid")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError{Field: "hold", Message: "must not be negative"}
	if err.Error() != "hold: must not be negative" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
}

func TestFlagType(t *testing.T) {
	testCases := []struct {
		name     string
		defValue string
		expected string
	}{
		{"bool true", "true", ""},
		{"bool false", "false", ""},
		{"int", "10", "int"},
		{"string", "tail -f /dev/null", "string"},
		{"duration seconds", "5s", "duration"},
		{"duration minutes", "5m", "duration"},
		{"empty", "", "string"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := &flag.Flag{DefValue: tc.defValue}
			if got := flagType(f); got != tc.expected {
				t.Errorf("flagType(%q) = %q, want %q", tc.defValue, got, tc.expected)
			}
		})
	}
}
