package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	"github.com/okian/nircadb/internal/domain/match"
	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/race"
	"github.com/okian/nircadb/internal/domain/rating"
	"github.com/okian/nircadb/internal/domain/resolve"
	"github.com/okian/nircadb/internal/domain/types"
	"github.com/okian/nircadb/pkg/logger"
	"github.com/okian/nircadb/pkg/metrics"
)

// Import stages as reported in ImportStatus.
const (
	StageTeams   = "teams"
	StageRunners = "runners"
	StageReady   = "ready"
)

// pendingImport is the in-flight import: the parsed sheet plus the
// two-stage resolution state. Team names resolve first; runner names
// resolve within their resolved team.
type pendingImport struct {
	sheet  race.Sheet
	gender model.Gender

	teams    *resolve.Batch
	teamItem map[string]int // normalized raw team name -> team batch index

	runners    *resolve.Batch // nil until the team stage completes
	runnerItem map[string]int // row key -> runner batch index
}

// rowKey identifies a (runner, team) pair within one sheet.
func rowKey(row race.Row) string {
	return match.Normalize(row.RunnerName) + "|" + match.Normalize(row.TeamName)
}

// BeginImport parses a result sheet and opens the resolution workflow for
// it. Only one import may be pending at a time.
func (s *Service) BeginImport(ctx context.Context, r io.Reader, g model.Gender) (types.ImportStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g != model.Male && g != model.Female {
		return types.ImportStatus{}, fmt.Errorf("%w: %q", ErrBadDivision, g)
	}
	if s.pending != nil {
		return types.ImportStatus{}, fmt.Errorf("%w: %q", ErrImportPending, s.pending.sheet.Race.Name)
	}

	sheet, err := race.Parse(r)
	if err != nil {
		metrics.RecordImportError()
		return types.ImportStatus{}, err
	}

	pool, err := s.teamNames(ctx)
	if err != nil {
		return types.ImportStatus{}, err
	}

	seen := make(map[string]struct{})
	var pairs []resolve.Pair
	teamItem := make(map[string]int)
	for _, row := range sheet.Rows {
		key := match.Normalize(row.TeamName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		teamItem[key] = len(pairs)
		pairs = append(pairs, resolve.Pair{Name: row.TeamName})
	}

	p := &pendingImport{
		sheet:    sheet,
		gender:   g,
		teams:    resolve.NewBatch(pairs, func(string) []string { return pool }, s.searchTopK),
		teamItem: teamItem,
	}
	recordPerfect(p.teams)

	if err := s.advanceLocked(ctx, p); err != nil {
		return types.ImportStatus{}, err
	}
	s.pending = p

	status := s.statusLocked()
	s.logger.Info(ctx, "import opened",
		logger.String("race", sheet.Race.Name),
		logger.Int("rows", len(sheet.Rows)),
		logger.String("stage", status.Stage),
	)
	return status, nil
}

// PendingImport reports the current import and what it still needs.
func (s *Service) PendingImport(ctx context.Context) (types.ImportStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return types.ImportStatus{}, ErrNoImportPending
	}
	return s.statusLocked(), nil
}

// ResolveImport applies human decisions to the current resolution stage
// and returns the refreshed status.
func (s *Service) ResolveImport(ctx context.Context, decisions []types.Decision) (types.ImportStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	if p == nil {
		return types.ImportStatus{}, ErrNoImportPending
	}
	batch := p.teams
	if p.runners != nil {
		batch = p.runners
	}

	for _, d := range decisions {
		switch d.Action {
		case "confirm":
			if err := batch.Confirm(d.Index); err != nil {
				return types.ImportStatus{}, err
			}
			metrics.RecordResolution(string(resolve.StatusConfirmed))
		case "override":
			if d.Name == "" {
				return types.ImportStatus{}, fmt.Errorf("%w: override at index %d", ErrMissingName, d.Index)
			}
			if err := batch.Override(d.Index, d.Name); err != nil {
				return types.ImportStatus{}, err
			}
			metrics.RecordResolution(string(resolve.StatusConfirmed))
		case "new":
			name := d.Name
			if name == "" {
				items := batch.Items()
				if d.Index < 0 || d.Index >= len(items) {
					return types.ImportStatus{}, fmt.Errorf("%w: %d", resolve.ErrBadIndex, d.Index)
				}
				name = items[d.Index].Source
			}
			if err := batch.MarkNew(d.Index, name); err != nil {
				return types.ImportStatus{}, err
			}
			metrics.RecordResolution(string(resolve.StatusNew))
		default:
			return types.ImportStatus{}, fmt.Errorf("%w: %q", ErrUnknownAction, d.Action)
		}
	}

	if err := s.advanceLocked(ctx, p); err != nil {
		return types.ImportStatus{}, err
	}
	return s.statusLocked(), nil
}

// CommitImport writes the fully resolved import to the store.
func (s *Service) CommitImport(ctx context.Context) (types.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	if p == nil {
		return types.ImportReport{}, ErrNoImportPending
	}
	if p.runners == nil || !p.runners.Complete() {
		return types.ImportReport{}, ErrImportNotReady
	}

	report, err := s.commitLocked(ctx)
	if err != nil {
		_ = s.store.Discard(ctx)
		metrics.RecordImportError()
		return types.ImportReport{}, err
	}
	s.pending = nil

	s.logger.Info(ctx, "import committed",
		logger.String("race", report.Race),
		logger.Int("results", report.Results),
		logger.Int("newTeams", report.NewTeams),
		logger.Int("newRunners", report.NewRunners),
	)
	return report, nil
}

// DiscardImport abandons the pending import. Nothing has touched the
// store yet, so this only drops in-memory state.
func (s *Service) DiscardImport(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ErrNoImportPending
	}
	s.logger.Info(ctx, "import discarded", logger.String("race", s.pending.sheet.Race.Name))
	s.pending = nil
	return nil
}

// advanceLocked builds the runner batch once every team name is resolved.
func (s *Service) advanceLocked(ctx context.Context, p *pendingImport) error {
	if p.runners != nil || !p.teams.Complete() {
		return nil
	}

	items := p.teams.Items()
	pools := make(map[string][]string, len(items))
	for _, it := range items {
		if it.Status == resolve.StatusNew {
			pools[it.Resolution] = nil
			continue
		}
		t, found, err := s.store.TeamByName(ctx, it.Resolution)
		if err != nil {
			return err
		}
		if !found {
			pools[it.Resolution] = nil
			continue
		}
		var names []string
		for _, r := range t.Runners {
			if r.Gender == p.gender {
				names = append(names, r.Name)
			}
		}
		pools[it.Resolution] = names
	}

	seen := make(map[string]struct{})
	var pairs []resolve.Pair
	runnerItem := make(map[string]int)
	for _, row := range p.sheet.Rows {
		canon := items[p.teamItem[match.Normalize(row.TeamName)]].Resolution
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		runnerItem[key] = len(pairs)
		pairs = append(pairs, resolve.Pair{Name: row.RunnerName, Context: canon})
	}

	p.runners = resolve.NewBatch(pairs, func(c string) []string { return pools[c] }, s.searchTopK)
	p.runnerItem = runnerItem
	recordPerfect(p.runners)
	return nil
}

// commitLocked stages every entity and rating write for the resolved
// import, then commits the journal.
func (s *Service) commitLocked(ctx context.Context) (types.ImportReport, error) {
	p := s.pending
	meta := p.sheet.Race
	report := types.ImportReport{Race: meta.Name}

	// Teams first: create new ones, look up the rest.
	teamItems := p.teams.Items()
	teamIDs := make(map[string]uuid.UUID, len(teamItems))
	for _, it := range teamItems {
		if it.Status == resolve.StatusNew {
			t, err := s.store.AddTeam(ctx, model.Team{Name: it.Resolution})
			if err != nil {
				return report, err
			}
			teamIDs[match.Normalize(it.Resolution)] = t.ID
			report.NewTeams++
			continue
		}
		t, found, err := s.store.TeamByName(ctx, it.Resolution)
		if err != nil {
			return report, err
		}
		if !found {
			return report, fmt.Errorf("%w: team %q", repository.ErrNotFound, it.Resolution)
		}
		teamIDs[match.Normalize(it.Resolution)] = t.ID
	}

	// Runner state tracked locally so repeat finishers within one sheet
	// blend against the in-flight rating, not the stale stored one.
	type runnerState struct {
		id     uuid.UUID
		rating *float64
		active bool
	}
	runnerItems := p.runners.Items()
	states := make([]*runnerState, len(runnerItems))
	for i, it := range runnerItems {
		teamID := teamIDs[match.Normalize(it.Context)]
		if it.Status == resolve.StatusNew {
			r, err := s.store.AddRunner(ctx, model.Runner{Name: it.Resolution, TeamID: teamID, Gender: p.gender})
			if err != nil {
				return report, err
			}
			states[i] = &runnerState{id: r.ID}
			report.NewRunners++
			continue
		}
		r, found, err := s.store.RunnerByName(ctx, it.Resolution, teamID)
		if err != nil {
			return report, err
		}
		if !found {
			return report, fmt.Errorf("%w: runner %q", repository.ErrNotFound, it.Resolution)
		}
		states[i] = &runnerState{id: r.ID, rating: r.Rating, active: r.Active}
	}

	for _, row := range p.sheet.Rows {
		st := states[p.runnerItem[rowKey(row)]]

		perf, err := rating.TimeToRating(row.Seconds, meta.Distance, meta.Ref200)
		if err != nil {
			return report, err
		}

		current, active := st.rating, st.active
		if current == nil && row.OldRating != nil {
			// Sheet-provided prior rating seeds runners whose history
			// predates the database.
			current, active = row.OldRating, true
		}
		updated, reset := rating.Update(current, active, perf)

		res := model.Result{
			RaceName: meta.Name,
			Date:     meta.Date,
			Distance: meta.Distance,
			Seconds:  row.Seconds,
			Rating:   perf,
		}
		if err := s.store.SetRunnerRating(ctx, st.id, updated, res); err != nil {
			return report, err
		}
		v := updated
		st.rating, st.active = &v, true
		metrics.RecordRatingUpdate()
		if reset {
			s.logger.Debug(ctx, "rating reset",
				logger.String("runner", row.RunnerName),
				logger.Float64("rating", updated),
			)
		}
		report.Results++
	}

	if err := s.store.Commit(ctx); err != nil {
		return report, err
	}
	metrics.RecordRaceImported()
	metrics.RecordResultsImported(report.Results)
	return report, nil
}

// statusLocked builds the ImportStatus for the pending import. Caller
// holds at least the read lock and has checked s.pending.
func (s *Service) statusLocked() types.ImportStatus {
	p := s.pending
	status := types.ImportStatus{Race: p.sheet.Race.Name, Rows: len(p.sheet.Rows)}

	var batch *resolve.Batch
	switch {
	case p.runners == nil:
		status.Stage = StageTeams
		batch = p.teams
	case !p.runners.Complete():
		status.Stage = StageRunners
		batch = p.runners
	default:
		status.Stage = StageReady
		return status
	}

	for i, it := range batch.Items() {
		if it.Resolved() {
			continue
		}
		row := types.ReviewRow{Index: i, Name: it.Source, Context: it.Context}
		for _, c := range it.Candidates {
			row.Candidates = append(row.Candidates, types.MatchRow{Candidate: c.Candidate, Score: c.Score})
		}
		status.Pending = append(status.Pending, row)
	}
	return status
}

func (s *Service) teamNames(ctx context.Context) ([]string, error) {
	teams, err := s.store.Teams(ctx, repository.TeamFilter{})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names, nil
}

func recordPerfect(b *resolve.Batch) {
	for _, it := range b.Items() {
		if it.Status == resolve.StatusPerfect {
			metrics.RecordResolution(string(resolve.StatusPerfect))
		}
	}
}
