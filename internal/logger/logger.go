// Package logger provides the CLI's logging facade. Output goes to stderr
// so command output on stdout stays pipeable; debug logging is enabled with
// the --verbose flag.
package logger

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.Mutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
)

// SetVerbose toggles debug-level output.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	log.Debug().Msgf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	log.Info().Msgf(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	log.Warn().Msgf(format, args...)
}

// Errorf logs an error.
func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	log.Error().Msgf(format, args...)
}
