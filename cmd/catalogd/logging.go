package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shapedtime/catalogd/internal/config"
)

// setupLogging installs the default slog logger. Records go to out and,
// when a log file is configured, to a rotating file as well.
func setupLogging(cfg config.LogConfig, out io.Writer) io.Closer {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return closer
}

// stderrOrStdout keeps stdout clean for commands that print results.
func stderrOrStdout(printsResults bool) io.Writer {
	if printsResults {
		return os.Stderr
	}
	return os.Stdout
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
