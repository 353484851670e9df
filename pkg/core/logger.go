package core

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a timestamped logger at the given level. Unknown or
// empty levels fall back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// NewConsoleLogger is NewLogger with human-readable output.
func NewConsoleLogger(level string, w io.Writer) zerolog.Logger {
	return NewLogger(level, zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly})
}
