package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and the environment and returns a
// Config. args excludes the program name. Returns an error if a flag is
// malformed or TARGET_PID_COUNT is missing or invalid.
func ParseFlags(args []string, lookup LookupFunc) (*Config, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("go-pidlimit-probe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	command := strings.Join(append([]string{cfg.PlaceholderBinary}, cfg.PlaceholderArgs...), " ")

	// Custom usage message
	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, `go-pidlimit-probe - verify that a PID limit is enforced

Usage:
  %s=<N> go-pidlimit-probe [flags]

Probe Flags:
`, TargetCountEnv)
		printFlagCategory(fs, w, []string{"command", "progress-every", "hold", "strict"})

		fmt.Fprintf(w, "\nSafety & Diagnostics:\n")
		printFlagCategory(fs, w, []string{"skip-preflight"})

		fmt.Fprintf(w, "\nObservability:\n")
		printFlagCategory(fs, w, []string{"metrics", "metrics-textfile", "v", "log-format", "log-level", "tui"})

		fmt.Fprintf(w, `
Environment:
  %s   number of placeholder processes to spawn (required, > 0)
  %s    log level when -log-level is not given

Examples:
  # Expect the pod's pids.max of 100 to stop the probe early
  %s=200 go-pidlimit-probe

  # Keep the children around for a minute so the limit can be inspected
  %s=50 go-pidlimit-probe -hold 1m -log-format text

`, TargetCountEnv, LogLevelEnv, TargetCountEnv, TargetCountEnv)
	}

	// Probe flags
	fs.StringVar(&command, "command", command, "Placeholder command that blocks forever")
	fs.IntVar(&cfg.ProgressEvery, "progress-every", cfg.ProgressEvery, "Log spawn progress at info level every N attempts")
	fs.DurationVar(&cfg.Hold, "hold", cfg.Hold, "Keep spawned processes alive this long before cleanup")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Fail the run if spawning stops on an error other than PID exhaustion")

	// Safety & Diagnostics
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write final metrics to this file (node_exporter textfile format)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn", "error"`)
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fields := strings.Fields(command)
	if len(fields) > 0 {
		cfg.PlaceholderBinary = fields[0]
		cfg.PlaceholderArgs = fields[1:]
	} else {
		cfg.PlaceholderBinary = ""
		cfg.PlaceholderArgs = nil
	}

	if !flagWasSet(fs, "log-level") {
		if level, ok := lookup(LogLevelEnv); ok && level != "" {
			cfg.LogLevel = level
		}
	}

	count, err := TargetCountFromEnv(lookup)
	if err != nil {
		return nil, ValidationError{
			Field:   "target_count",
			Message: err.Error(),
			Err:     err,
		}
	}
	cfg.TargetCount = count

	return cfg, nil
}

// flagWasSet reports whether name was given on the command line.
func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
