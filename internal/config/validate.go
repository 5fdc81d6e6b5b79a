package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional cause, for errors.Is
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	// Target count must be positive
	if cfg.TargetCount < 1 {
		errs = append(errs, ValidationError{
			Field:   "target_count",
			Message: fmt.Sprintf("must be at least 1 (got %d)", cfg.TargetCount),
			Err:     ErrTargetCountInvalid,
		})
	}

	// Placeholder command is required
	if strings.TrimSpace(cfg.PlaceholderBinary) == "" {
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: "placeholder command must not be empty",
		})
	}

	if cfg.ProgressEvery < 1 {
		errs = append(errs, ValidationError{
			Field:   "progress_every",
			Message: "must be at least 1",
		})
	}

	if cfg.Hold < 0 {
		errs = append(errs, ValidationError{
			Field:   "hold",
			Message: "must not be negative",
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.LogFormat)] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Log level must be valid
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error (got %q)", cfg.LogLevel),
		})
	}

	if cfg.MetricsAddr != "" && !strings.Contains(cfg.MetricsAddr, ":") {
		errs = append(errs, ValidationError{
			Field:   "metrics_addr",
			Message: fmt.Sprintf("must be host:port (got %q)", cfg.MetricsAddr),
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
