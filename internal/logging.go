package internal

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	EnvLogLevel = "STITCH_LOG_LEVEL"
	EnvStrict   = "STITCH_STRICT"
)

// NewLogger returns the root logger of a runtime writing to w at the level
// named by STITCH_LOG_LEVEL, warn if unset or unknown.
func NewLogger(w io.Writer) hclog.Logger {
	level := hclog.Warn
	if env := os.Getenv(EnvLogLevel); env != "" {
		if l := hclog.LevelFromString(strings.TrimSpace(env)); l != hclog.NoLevel {
			level = l
		}
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "stitch",
		Level:  level,
		Output: w,
	})
}

// StrictnessFromEnv reads STITCH_STRICT, any of 1/true/yes selects Strict.
func StrictnessFromEnv() Strictness {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvStrict))) {
	case "1", "true", "yes":
		return Strict
	default:
		return Lenient
	}
}
