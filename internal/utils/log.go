// Package utils
package utils

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	logger zerolog.Logger
	once   sync.Once
)

// NewLogger builds a timestamped JSON logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	name := strings.ToLower(strings.TrimSpace(level))
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// GetLogger returns the process logger, writing info and above to stderr unless
// Configure was called first.
func GetLogger() *zerolog.Logger {
	once.Do(func() {
		logger = NewLogger(os.Stderr, "info")
	})
	return &logger
}

// Configure replaces the process logger. Call it at startup, before anything logs concurrently.
func Configure(w io.Writer, level string) {
	once.Do(func() {})
	logger = NewLogger(w, level)
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return GetLogger().With().Str("component", name).Logger()
}
