package testraces

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/nircadb/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "race_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the race test tool.
func ShowHelp() {
	os.Stdout.WriteString(`NIRCAdb Race Import Tool
========================

Generates a synthetic result sheet and drives it through the full
import workflow against a running service.

Usage:
  go run cmd/gen-results/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams int
        Number of teams in the generated race (default 12)
  -runners int
        Finishers per team (default 7)
  -distance int
        Race distance in meters: 5000, 6000, or 8000 (default 8000)
  -division string
        Division to import into, M or F (default "M")
  -seed int
        Generator seed; same seed yields the same sheet (default 1)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Also write the generated sheet to this file
  -log string
        Log file for test output
  -verbose
        Enable verbose logging
`)
}
