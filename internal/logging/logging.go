// Package logging provides zerolog construction and context helpers used
// across the CLI and the enrichment engine. Loggers travel through
// context.Context so library code never reaches for a global.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Format selects the log output encoding.
type Format string

// Supported log formats.
const (
	// FormatConsole renders human-readable, colorized output.
	FormatConsole Format = "console"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
	// FormatAuto picks console when stderr is a terminal, JSON otherwise.
	FormatAuto Format = "auto"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unparseable values fall back to "info".
	Level string
	// Format selects the output encoding. Defaults to FormatAuto.
	Format Format
	// Writer receives log output. Defaults to os.Stderr.
	Writer io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	format := cfg.Format
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = FormatConsole
		}
	}

	if format == FormatConsole {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger when
// none was attached. Use zerolog's logger.WithContext to attach one.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
