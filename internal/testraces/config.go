package testraces

import "time"

// Config holds configuration for the race import test.
type Config struct {
	BaseURL        string        // Base URL of the service
	Teams          int           // Number of teams in the generated race
	RunnersPerTeam int           // Finishers per team
	Distance       int           // Race distance in meters
	Division       string        // "M" or "F"
	Seed           int64         // Generator seed for reproducible sheets
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Optional path to also write the sheet to
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}
