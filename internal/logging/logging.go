// Package logging builds the zerolog logger shared by the pipeline.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
)

// New returns a logger configured from the logging section.
// format "console" uses a human-friendly writer, anything else emits JSON.
func New(cfg config.Logging, verbose bool) zerolog.Logger {
	return newWithWriter(os.Stderr, cfg, verbose)
}

func newWithWriter(w io.Writer, cfg config.Logging, verbose bool) zerolog.Logger {
	out := w
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level := ParseLevel(cfg.Level)
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps config level names (INFO, warning, ...) to zerolog levels.
// Unknown names fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warning":
		return zerolog.WarnLevel
	case "critical", "fatal":
		return zerolog.FatalLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
