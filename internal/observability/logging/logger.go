// Package logging provides structured logging utilities using the standard
// library's log/slog package.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/pkg/config"
)

// NewRunLogger creates a text-handler logger writing to both stderr and
// logs/log_YYYY_MM_DD-HH_MM.log, creating the logs directory if absent.
// Each invocation of the CLI gets its own file, matching the original
// tool's per-run log naming. The returned func closes the log file and
// should be deferred by the caller.
func NewRunLogger(now time.Time) (*slog.Logger, func() error, error) {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("NewRunLogger: MkdirAll: %w", err)
	}

	name := now.Format("log_2006_01_02-15_04.log")
	f, err := os.Create(filepath.Join(logsDir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("NewRunLogger: Create: %w", err)
	}

	logLevel := slog.LevelInfo
	if config.LoadEnvString("LOG_LEVEL", "info") == "debug" {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(f, os.Stderr), &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	})

	return slog.New(handler), f.Close, nil
}
