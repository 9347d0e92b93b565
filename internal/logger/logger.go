package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger creates a new zerolog console logger at the info level
func NewLogger() zerolog.Logger {
	return NewLoggerWithLevel(zerolog.InfoLevel)
}

// NewLoggerWithLevel creates a new console logger with a specific log level
func NewLoggerWithLevel(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return log.Output(output).With().Timestamp().Logger().Level(level)
}

// ParseLevel maps a configured level name to a zerolog level. Unknown
// or empty values fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
