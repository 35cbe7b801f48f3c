// Package obs provides structured logging and metrics for Studybank.
package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions controls where log output goes
type LogOptions struct {
	Level string
	// File, when set, receives a rotated copy of every log line
	File string
}

// InitLogger initializes the global logger
func InitLogger(level string) {
	InitLoggerWithOptions(LogOptions{Level: level})
}

// InitLoggerWithOptions initializes the global logger with optional file rotation
func InitLoggerWithOptions(opts LogOptions) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Parse log level
	logLevel, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var out io.Writer = os.Stderr
	// Pretty print in development
	if os.Getenv("ENV") == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Logger returns a new logger with the given component name
func Logger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
