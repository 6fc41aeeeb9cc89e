package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	"github.com/okian/nircadb/internal/domain/match"
	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/scoring"
	"github.com/okian/nircadb/internal/domain/sim"
	"github.com/okian/nircadb/internal/domain/types"
	"github.com/okian/nircadb/pkg/logger"
	"github.com/okian/nircadb/pkg/metrics"
)

// TeamRankings scores every eligible team of the division and returns the
// ranked table.
func (s *Service) TeamRankings(ctx context.Context, g model.Gender) ([]types.TeamRow, error) {
	if g != model.Male && g != model.Female {
		return nil, fmt.Errorf("%w: %q", ErrBadDivision, g)
	}
	teams, err := s.store.Teams(ctx, repository.TeamFilter{})
	if err != nil {
		return nil, err
	}

	standings, _ := scoring.Score(teams, g)
	rows := make([]types.TeamRow, len(standings))
	for i, st := range standings {
		rows[i] = types.TeamRow{Rank: st.Rank, Team: st.Team.Name, Score: st.Score}
	}
	return rows, nil
}

// RunnerRankings returns active rated runners of the division ordered by
// rating, best first, capped at limit.
func (s *Service) RunnerRankings(ctx context.Context, g model.Gender, limit int) ([]types.RunnerRow, error) {
	if g != model.Male && g != model.Female {
		return nil, fmt.Errorf("%w: %q", ErrBadDivision, g)
	}
	if limit < 1 || limit > s.maxTableLimit {
		limit = s.maxTableLimit
	}

	runners, err := s.store.Runners(ctx, repository.RunnerFilter{Gender: g, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	teams, err := s.store.Teams(ctx, repository.TeamFilter{})
	if err != nil {
		return nil, err
	}
	teamName := make(map[string]string, len(teams))
	for _, t := range teams {
		teamName[t.ID.String()] = t.Name
	}

	rated := runners[:0]
	for _, r := range runners {
		if r.Rated() {
			rated = append(rated, r)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		if *rated[i].Rating != *rated[j].Rating {
			return *rated[i].Rating > *rated[j].Rating
		}
		return rated[i].Name < rated[j].Name
	})
	if len(rated) > limit {
		rated = rated[:limit]
	}

	rows := make([]types.RunnerRow, len(rated))
	for i, r := range rated {
		rows[i] = types.RunnerRow{
			Place:  i + 1,
			Name:   r.Name,
			Team:   teamName[r.TeamID.String()],
			Rating: *r.Rating,
		}
	}
	return rows, nil
}

// Predict runs a Monte Carlo simulation over the division's eligible
// teams. Non-positive trials or dispersion fall back to configured
// defaults; mode is "maxwell" (default) or "normal".
func (s *Service) Predict(ctx context.Context, g model.Gender, trials int, dispersion float64, mode string) ([]types.OutcomeRow, error) {
	if g != model.Male && g != model.Female {
		return nil, fmt.Errorf("%w: %q", ErrBadDivision, g)
	}
	if trials <= 0 {
		trials = s.simTrials
	}
	if dispersion <= 0 {
		dispersion = s.simDispersion
	}
	var m sim.Mode
	switch mode {
	case "", string(sim.ModeMaxwell):
		m = sim.ModeMaxwell
	case string(sim.ModeNormal):
		m = sim.ModeNormal
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	teams, err := s.store.Teams(ctx, repository.TeamFilter{})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outcomes, _, err := sim.New(
		sim.WithTrials(trials),
		sim.WithDispersion(dispersion),
		sim.WithWorkers(s.simWorkers),
		sim.WithSeed(s.simSeed),
		sim.WithMode(m),
	).Simulate(ctx, teams, g)
	if err != nil {
		metrics.RecordErrorByComponent("simulation", "run_failed")
		return nil, err
	}
	elapsed := time.Since(start)
	metrics.RecordSimulation(float64(elapsed.Milliseconds()))
	s.logger.Info(ctx, "simulation finished",
		logger.Int("trials", trials),
		logger.Int("teams", len(outcomes)),
		logger.Duration("elapsed", elapsed),
	)

	rows := make([]types.OutcomeRow, len(outcomes))
	for i, o := range outcomes {
		rows[i] = types.OutcomeRow{Team: o.Team.Name, AvgScore: o.AvgScore, AvgRank: o.AvgRank}
	}
	return rows, nil
}

// SearchTeams fuzzy-matches a query against team names, keeping
// candidates at or above the team threshold.
func (s *Service) SearchTeams(ctx context.Context, query string) ([]types.MatchRow, error) {
	pool, err := s.teamNames(ctx)
	if err != nil {
		return nil, err
	}
	return filterMatches(match.Resolve(query, pool, s.searchTopK), s.teamThreshold), nil
}

// SearchRunners fuzzy-matches a query against runner names, optionally
// scoped to one team, keeping candidates at or above the runner
// threshold.
func (s *Service) SearchRunners(ctx context.Context, query, teamName string) ([]types.MatchRow, error) {
	var pool []string
	if teamName != "" {
		t, found, err := s.store.TeamByName(ctx, teamName)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: team %q", repository.ErrNotFound, teamName)
		}
		for _, r := range t.Runners {
			pool = append(pool, r.Name)
		}
	} else {
		runners, err := s.store.Runners(ctx, repository.RunnerFilter{})
		if err != nil {
			return nil, err
		}
		for _, r := range runners {
			pool = append(pool, r.Name)
		}
	}
	return filterMatches(match.Resolve(query, pool, s.searchTopK), s.runnerThreshold), nil
}

// RunnerHistory returns a runner's race results, newest first.
func (s *Service) RunnerHistory(ctx context.Context, teamName, runnerName string) ([]types.ResultRow, error) {
	t, found, err := s.store.TeamByName(ctx, teamName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: team %q", repository.ErrNotFound, teamName)
	}
	r, found, err := s.store.RunnerByName(ctx, runnerName, t.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: runner %q", repository.ErrNotFound, runnerName)
	}

	results, err := s.store.RunnerResults(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	rows := make([]types.ResultRow, len(results))
	for i, res := range results {
		rows[i] = types.ResultRow{
			Race:     res.RaceName,
			Date:     res.Date.Format("2006-01-02"),
			Distance: res.Distance,
			Seconds:  res.Seconds,
			Rating:   res.Rating,
		}
	}
	return rows, nil
}

// Rollover deactivates every runner for the new season. Their ratings
// survive but reset on their next result.
func (s *Service) Rollover(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeactivateAll(ctx); err != nil {
		return err
	}
	if err := s.store.Commit(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "season rollover applied")
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"simTrials":     s.simTrials,
		"simDispersion": s.simDispersion,
		"simWorkers":    s.simWorkers,
	}

	if s.started {
		teams, runners := s.store.Counts(context.Background())
		stats["teams"] = teams
		stats["runners"] = runners
		stats["importPending"] = s.pending != nil
		if s.pending != nil {
			stats["pendingRace"] = s.pending.sheet.Race.Name
		}

		metrics.SetTeamCount(float64(teams))
		metrics.SetRunnerCount(float64(runners))
	}

	return stats
}

func filterMatches(matches []match.Match, threshold int) []types.MatchRow {
	var rows []types.MatchRow
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		rows = append(rows, types.MatchRow{Candidate: m.Candidate, Score: m.Score})
	}
	return rows
}
