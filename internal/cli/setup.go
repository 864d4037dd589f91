package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/loanguard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging routes structured logs to stderr and, when logFile is not
// empty, appends them to that file too. It returns a closer for the file.
func SetupLogging(logFile, format string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = closerFunc(func() error { return nil })
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(w)); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return closer, nil
}

// ShowHelp prints usage information for the CLI.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `LoanGuard CLI
=============

Scores micro-loan applicants with the same pipeline the server uses.

Usage:
  loanguard-cli [options] <command> [profile]

Commands:
  simulate   Generate synthetic borrowers for every profile and store them
  score      Score a stored borrower; prompts for one when none is given
  evaluate   Score synthetic borrowers through the worker pool and print accuracy
  smoke      Check a running server: health, then /predict for every profile

Options:
  -count int
        Fixtures generated per profile by simulate (default 1)
  -months int
        Months of history to simulate (default from config)
  -samples int
        Samples per profile for evaluate (default 100)
  -url string
        Base URL of the server for smoke (default "http://localhost:9080")
  -timeout duration
        HTTP request timeout for smoke (default 10s)
  -log string
        Also append logs to this file
  -verbose
        Print feature vectors with each decision
  -help
        Show this help message

Configuration is read from $LOANGUARD_CONFIG and LOANGUARD_* variables.

Examples:
  loanguard-cli simulate
  loanguard-cli score good_spender
  loanguard-cli -samples 500 evaluate
`)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// since formats the elapsed time since start for summaries.
func since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
