package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. dev gets a console writer, everything else JSON.
func New(service, level, env string) zerolog.Logger {
	return NewWithWriter(os.Stdout, service, level, env)
}

func NewWithWriter(w io.Writer, service, level, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if env == "dev" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", service).Logger()
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// Nop discards everything; handy as a default in constructors.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// FromContext returns the request scoped logger, or fallback if none was attached.
func FromContext(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
