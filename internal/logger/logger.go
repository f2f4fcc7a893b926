package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger. Format "console" gets human-readable
// output; anything else gets JSON lines. It ensures that the logger is
// initialized only once.
func Init(level string, format string) {
	once.Do(func() {
		var out io.Writer = os.Stderr
		if format == "console" {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}

		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || level == "" {
			lvl = zerolog.InfoLevel
		}

		defaultLogger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	})
}

// Get returns the initialized default logger.
// It calls Init() with defaults to ensure the logger is ready before returning it.
func Get() zerolog.Logger {
	Init("info", "console")
	return defaultLogger
}

// Info logs an informational message using the default logger.
func Info(msg string, fields map[string]interface{}) {
	l := Get()
	l.Info().Fields(fields).Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, fields map[string]interface{}) {
	l := Get()
	l.Warn().Fields(fields).Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, fields map[string]interface{}) {
	l := Get()
	l.Error().Err(err).Fields(fields).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, fields map[string]interface{}) {
	l := Get()
	l.Debug().Fields(fields).Msg(msg)
}
