// Package logging points the standard logger at stderr and, optionally, a
// size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the global logger and returns a closer for the log
// file. The closer is a no-op when no file is configured.
func Setup(config Config) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if config.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(config.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := newRotator(config)
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	log.Printf("Logging: writing to %s", config.File)
	return rotator, nil
}

func newRotator(config Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
