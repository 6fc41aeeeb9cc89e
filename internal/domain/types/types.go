// Package types contains common types used across the application
package types

// TeamRow is a ranked team table row.
type TeamRow struct {
	Rank  int    `json:"rank"`
	Team  string `json:"team"`
	Score int    `json:"score"`
}

// RunnerRow is a ranked runner table row.
type RunnerRow struct {
	Place  int     `json:"place"`
	Name   string  `json:"name"`
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
}

// OutcomeRow is a simulated team projection row.
type OutcomeRow struct {
	Team     string  `json:"team"`
	AvgScore float64 `json:"avg_score"`
	AvgRank  float64 `json:"avg_rank"`
}

// MatchRow is a fuzzy-search candidate row.
type MatchRow struct {
	Candidate string `json:"candidate"`
	Score     int    `json:"score"`
}

// ReviewRow is one unresolved name from a pending import.
type ReviewRow struct {
	Index      int        `json:"index"`
	Name       string     `json:"name"`
	Context    string     `json:"context,omitempty"`
	Candidates []MatchRow `json:"candidates"`
}

// Decision is a human resolution for one pending import name.
type Decision struct {
	Index  int    `json:"index"`
	Action string `json:"action"` // confirm, override, or new
	Name   string `json:"name,omitempty"`
}

// ImportStatus describes a pending import and what it still needs.
type ImportStatus struct {
	Race    string      `json:"race"`
	Stage   string      `json:"stage"` // teams, runners, or ready
	Rows    int         `json:"rows"`
	Pending []ReviewRow `json:"pending,omitempty"`
}

// ResultRow is one line of a runner's race history.
type ResultRow struct {
	Race     string  `json:"race"`
	Date     string  `json:"date"`
	Distance int     `json:"distance"`
	Seconds  float64 `json:"seconds"`
	Rating   float64 `json:"rating"`
}

// ImportReport summarizes a committed import.
type ImportReport struct {
	Race       string `json:"race"`
	Results    int    `json:"results"`
	NewTeams   int    `json:"new_teams"`
	NewRunners int    `json:"new_runners"`
}
