package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/nircadb/internal/testraces"
)

// Default configuration constants.
const (
	defaultTeams       = 12
	defaultRunners     = 7
	defaultDistance    = 8000
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams      = flag.Int("teams", defaultTeams, "Number of teams in the generated race")
		runners    = flag.Int("runners", defaultRunners, "Finishers per team")
		distance   = flag.Int("distance", defaultDistance, "Race distance in meters")
		division   = flag.String("division", "M", "Division to import into, M or F")
		seed       = flag.Int64("seed", 1, "Generator seed")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Also write the generated sheet to this file")
		logFile    = flag.String("log", "", "Log file for test output")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testraces.ShowHelp()
		return
	}

	if err := testraces.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &testraces.Config{
		BaseURL:        *baseURL,
		Teams:          *teams,
		RunnersPerTeam: *runners,
		Distance:       *distance,
		Division:       *division,
		Seed:           *seed,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := testraces.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
