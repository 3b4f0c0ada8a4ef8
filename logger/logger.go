// Package logger configures zerolog for the service.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. format is "json" or "console".
func Setup(level, format string) {
	SetupWithWriter(level, format, os.Stdout)
}

func SetupWithWriter(level, format string, out io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	var zl zerolog.Logger
	if format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		zl = zerolog.New(out)
	}
	log.Logger = zl.With().Timestamp().Str("service", "modeva-catalog-filters").Logger()
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) *zerolog.Logger {
	l := log.Logger.With().Str("component", component).Logger()
	return &l
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
