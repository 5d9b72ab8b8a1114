package xslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// EnvKey names the variable every bellhop binary reads its log level from.
const EnvKey = "LOG_LEVEL"

const Default = slog.LevelInfo

// Parse accepts the slog level names (debug, info, warn, error), any case,
// optionally with an offset such as "debug+2".
func Parse(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return Default, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// FromEnv returns the level named by LOG_LEVEL, or Default when it is unset
// or unparseable.
func FromEnv() slog.Level {
	s, ok := os.LookupEnv(EnvKey)
	if !ok || s == "" {
		return Default
	}
	level, err := Parse(s)
	if err != nil {
		return Default
	}
	return level
}

// NewLogger writes JSON records at or above level to w, stamped with the
// binary's version.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})).With(Version())
}

func NewLoggerFromEnv(w io.Writer) *slog.Logger {
	return NewLogger(w, FromEnv())
}
