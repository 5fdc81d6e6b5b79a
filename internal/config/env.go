package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// TargetCountEnv names the environment variable holding the number of
	// processes to spawn.
	TargetCountEnv = "TARGET_PID_COUNT"

	// LogLevelEnv is consulted when -log-level is not given.
	LogLevelEnv = "PROBE_LOG_LEVEL"
)

var (
	// ErrTargetCountMissing is returned when TARGET_PID_COUNT is not set.
	ErrTargetCountMissing = errors.New("environment variable " + TargetCountEnv + " was not found")

	// ErrTargetCountInvalid is returned when TARGET_PID_COUNT is not a
	// positive integer.
	ErrTargetCountInvalid = errors.New(TargetCountEnv + " must be a positive integer")
)

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// TargetCountFromEnv reads and parses TARGET_PID_COUNT.
// Zero, negative and unparsable values are rejected the same way as a
// missing variable: the probe never runs with a zero target.
func TargetCountFromEnv(lookup LookupFunc) (int, error) {
	raw, ok := lookup(TargetCountEnv)
	if !ok {
		return 0, ErrTargetCountMissing
	}
	return ParseTargetCount(raw)
}

// ParseTargetCount parses a target count value.
func ParseTargetCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w (got %q)", ErrTargetCountInvalid, raw)
	}
	return n, nil
}
