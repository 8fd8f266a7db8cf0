// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const logFileName = "pomobeat.log"

// Options configures New.
type Options struct {
	// Level is a zerolog level name. Empty means info.
	Level string
	// File routes output to a file instead of stderr. The terminal frontend
	// owns the screen, so it logs to a file.
	File string
	// Console pretty-prints output on stderr.
	Console bool
}

// New returns the configured logger and a closer for its output.
func New(options Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if strings.TrimSpace(options.Level) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(options.Level))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var (
		output io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	switch {
	case options.File != "":
		if err := os.MkdirAll(filepath.Dir(options.File), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(options.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		output, closer = file, file
	case options.Console:
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// DefaultFile returns the log file path under the user cache dir.
func DefaultFile(appName string) (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(cacheDir, appName, logFileName), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
