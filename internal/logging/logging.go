// Package logging wires stdlib log and log/slog onto a rotating file writer.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Abrechen2/sublarr-sub006/internal/config"
)

// Setup configures process-wide logging: a rotating file under cfg.File,
// mirrored to stdout, with the slog default logger set to a level derived
// from cfg.Level. It returns the lumberjack writer so callers can close it
// on shutdown.
func Setup(cfg config.LogConfig) *lumberjack.Logger {
	var writer io.Writer = os.Stdout

	var fileWriter *lumberjack.Logger
	if cfg.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxOr(cfg.MaxSizeMB, 50),
			MaxBackups: maxOr(cfg.MaxBackups, 5),
			MaxAge:     maxOr(cfg.MaxAgeDays, 28),
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
	}

	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	slog.SetDefault(slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: levelFromString(cfg.Level),
	})))

	return fileWriter
}

func maxOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func levelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
