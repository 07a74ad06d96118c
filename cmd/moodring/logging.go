package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// openLogger returns a file logger, or a no-op logger when path is empty.
// The terminal belongs to the session, so diagnostics never go to stdout.
func openLogger(path, level string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to open log file: %w", err)
	}
	writer := zerolog.ConsoleWriter{Out: file, NoColor: true, TimeFormat: "15:04:05.000"}
	logger := zerolog.New(writer).Level(lvl).With().Timestamp().Str("pid", fmt.Sprint(os.Getpid())).Logger()
	closeFn := func() {
		if cerr := file.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return logger, closeFn, nil
}
