// Package repository defines the roster store interface and errors.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/nircadb/internal/domain/model"
)

// TeamFilter narrows Teams queries. Zero value matches everything.
type TeamFilter struct {
	Region string
}

// RunnerFilter narrows Runners queries. Zero value matches everything.
type RunnerFilter struct {
	TeamID     uuid.UUID
	Gender     model.Gender
	ActiveOnly bool
}

// Store provides read/write access to the roster state.
//
// Writes stage into a journal and become visible only after Commit, so a
// failed import never leaves partial state behind. AddTeam and AddRunner
// assign IDs immediately; callers use those IDs for follow-up writes in
// the same journal.
type Store interface {
	// Teams returns teams matching the filter, ordered by name.
	Teams(ctx context.Context, f TeamFilter) ([]model.Team, error)
	// TeamByName looks up a team by exact normalized name.
	TeamByName(ctx context.Context, name string) (model.Team, bool, error)

	// Runners returns runners matching the filter, ordered by name.
	Runners(ctx context.Context, f RunnerFilter) ([]model.Runner, error)
	// RunnerByName looks up a runner by exact normalized name within a
	// team.
	RunnerByName(ctx context.Context, name string, teamID uuid.UUID) (model.Runner, bool, error)
	// RunnerResults returns a runner's result history, newest first.
	// Returns ErrNotFound if the runner is unknown.
	RunnerResults(ctx context.Context, id uuid.UUID) ([]model.Result, error)

	// AddTeam stages a new team and returns it with an assigned ID.
	AddTeam(ctx context.Context, t model.Team) (model.Team, error)
	// AddRunner stages a new runner and returns it with an assigned ID.
	AddRunner(ctx context.Context, r model.Runner) (model.Runner, error)
	// SetRunnerRating stages a rating update for a runner, marks the
	// runner active, and appends the result to its history.
	SetRunnerRating(ctx context.Context, id uuid.UUID, ratingVal float64, res model.Result) error
	// DeactivateAll stages deactivation of every runner for season
	// rollover.
	DeactivateAll(ctx context.Context) error

	// Commit applies all staged writes atomically.
	Commit(ctx context.Context) error
	// Discard drops all staged writes.
	Discard(ctx context.Context) error

	// Counts returns the number of committed teams and runners.
	Counts(ctx context.Context) (teams, runners int)
}
