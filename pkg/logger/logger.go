// Package logger provides structured logging for the trading agent.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
}

// New creates a new structured logger.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// SetGlobalLogger sets the package-level logger.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

// NewEventLogger creates a side-channel JSON logger for structured
// profit-rule/take-profit events, written to logDir/events.jsonl.
// Always JSON (never pretty) since it is meant to be machine-read.
func NewEventLogger(logDir string) (zerolog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	f, err := os.OpenFile(logDir+"/events.jsonl", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	l := zerolog.New(f).With().Timestamp().Str("component", "events").Logger()
	return l, f, nil
}
