// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Gender identifies the competition division a runner scores in.
type Gender string

// Division constants as stored in rosters.
const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Runner represents an athlete on a club roster.
//
// Rating is nil until the runner has a committed result; after that it is
// always a finite value. Active is false for runners who have left the
// roster or sat out a season; their next result resets the rating.
type Runner struct {
	ID     uuid.UUID
	Name   string
	TeamID uuid.UUID
	Gender Gender
	Rating *float64
	Active bool
}

// Rated reports whether the runner has an established rating.
func (r Runner) Rated() bool {
	return r.Rating != nil
}

// Team represents a club team and its roster.
// Runner order carries no meaning; scoring sorts copies on demand.
type Team struct {
	ID      uuid.UUID
	Name    string
	Region  string
	Runners []Runner
}

// ActiveRunners returns the team's active runners of the given gender,
// preserving roster order.
func (t Team) ActiveRunners(g Gender) []Runner {
	out := make([]Runner, 0, len(t.Runners))
	for _, r := range t.Runners {
		if r.Active && r.Gender == g {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the team so callers can sort or trim the
// roster without touching repository-backed state.
func (t Team) Clone() Team {
	cp := t
	cp.Runners = make([]Runner, len(t.Runners))
	copy(cp.Runners, t.Runners)
	return cp
}

// Result is a single race performance by a runner. Immutable once the
// rating has been derived from the raw time.
type Result struct {
	RaceName string
	Date     time.Time
	Distance int     // meters
	Seconds  float64 // raw finish time
	Rating   float64 // derived by the rating converter
	RunnerID uuid.UUID
}

// Race is the event header of one imported result sheet.
type Race struct {
	Name     string
	Date     time.Time
	Distance int
	Scale    float64 // distance-derived rating scale
	Ref200   float64 // finish time calibrated to a rating of 200
	Pending  bool    // true until the import commits
}
