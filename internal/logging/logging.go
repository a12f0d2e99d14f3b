// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Settings controls log level and destination
type Settings struct {
	Level      string // trace, debug, info, warn, error
	File       string // rotated log file; empty logs to the console only
	MaxSizeMB  int
	MaxBackups int
	JSON       bool // plain JSON on stderr instead of the console writer
}

// Setup installs the global logger described by settings. Extra writers
// receive every event as well.
func Setup(settings Settings, writers ...io.Writer) error {
	level, err := ParseLevel(settings.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var out []io.Writer
	if settings.JSON {
		out = append(out, os.Stderr)
	} else {
		out = append(out, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}

	if settings.File != "" {
		maxSize := settings.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		out = append(out, &lumberjack.Logger{
			Filename:   settings.File,
			MaxSize:    maxSize,
			MaxBackups: settings.MaxBackups,
		})
	}
	out = append(out, writers...)

	log.Logger = zerolog.New(io.MultiWriter(out...)).
		With().Timestamp().Caller().Logger()

	return nil
}

// ParseLevel maps a level name to a zerolog level; empty means info
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
