package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/nircadb/internal/domain/match"
	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/pkg/metrics"
)

// In-memory Store implementation.
//
// Committed state lives in id-keyed maps plus normalized-name indexes for
// exact lookups. Writes append to a journal and only mutate committed
// state inside Commit, under the write lock, so readers never observe a
// half-applied import.

// runnerKey indexes runners by team and normalized name.
type runnerKey struct {
	teamID uuid.UUID
	name   string
}

// journalOp is one staged mutation, applied in order at Commit.
type journalOp func(s *MemStore) error

// MemStore is the in-memory roster store.
// Construct with NewMemStore; the zero value is not usable.
type MemStore struct {
	mu sync.RWMutex

	teams   map[uuid.UUID]model.Team
	runners map[uuid.UUID]model.Runner
	results map[uuid.UUID][]model.Result

	teamNames   map[string]uuid.UUID
	runnerNames map[runnerKey]uuid.UUID

	journal []journalOp
	// Names and IDs staged but not yet committed, for duplicate and
	// existence checks within an open journal.
	pendingTeamNames   map[string]struct{}
	pendingRunnerNames map[runnerKey]struct{}
	pendingRunnerIDs   map[uuid.UUID]struct{}

	metricsUpdateInterval time.Duration
	stopMetrics           chan struct{}
	stopOnce              sync.Once
}

// NewMemStore builds an empty store and starts the background gauge
// refresher. Call Close to stop it.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		teams:                 make(map[uuid.UUID]model.Team),
		runners:               make(map[uuid.UUID]model.Runner),
		results:               make(map[uuid.UUID][]model.Result),
		teamNames:             make(map[string]uuid.UUID),
		runnerNames:           make(map[runnerKey]uuid.UUID),
		pendingTeamNames:      make(map[string]struct{}),
		pendingRunnerNames:    make(map[runnerKey]struct{}),
		pendingRunnerIDs:      make(map[uuid.UUID]struct{}),
		metricsUpdateInterval: 5 * time.Second,
		stopMetrics:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.refreshGauges()
	return s
}

// Close stops the background gauge refresher.
func (s *MemStore) Close() {
	s.stopOnce.Do(func() { close(s.stopMetrics) })
}

func (s *MemStore) refreshGauges() {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopMetrics:
			return
		case <-ticker.C:
			s.mu.RLock()
			teams, runners := len(s.teams), len(s.runners)
			s.mu.RUnlock()
			metrics.SetTeamCount(float64(teams))
			metrics.SetRunnerCount(float64(runners))
		}
	}
}

// Teams returns committed teams matching the filter, ordered by name,
// each with its runner slice populated.
func (s *MemStore) Teams(ctx context.Context, f TeamFilter) ([]model.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		if f.Region != "" && t.Region != f.Region {
			continue
		}
		out = append(out, s.assembleLocked(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TeamByName looks up a committed team by exact normalized name.
func (s *MemStore) TeamByName(ctx context.Context, name string) (model.Team, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Team{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.teamNames[match.Normalize(name)]
	if !ok {
		return model.Team{}, false, nil
	}
	return s.assembleLocked(s.teams[id]), true, nil
}

// Runners returns committed runners matching the filter, ordered by name.
func (s *MemStore) Runners(ctx context.Context, f RunnerFilter) ([]model.Runner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Runner, 0, len(s.runners))
	for _, r := range s.runners {
		if f.TeamID != uuid.Nil && r.TeamID != f.TeamID {
			continue
		}
		if f.Gender != "" && r.Gender != f.Gender {
			continue
		}
		if f.ActiveOnly && !r.Active {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RunnerByName looks up a committed runner by exact normalized name
// within a team.
func (s *MemStore) RunnerByName(ctx context.Context, name string, teamID uuid.UUID) (model.Runner, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Runner{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.runnerNames[runnerKey{teamID: teamID, name: match.Normalize(name)}]
	if !ok {
		return model.Runner{}, false, nil
	}
	return s.runners[id], true, nil
}

// RunnerResults returns a runner's committed result history, newest first.
func (s *MemStore) RunnerResults(ctx context.Context, id uuid.UUID) ([]model.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runners[id]; !ok {
		return nil, fmt.Errorf("%w: runner %s", ErrNotFound, id)
	}
	history := s.results[id]
	out := make([]model.Result, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// AddTeam stages a new team. The returned team carries its assigned ID.
func (s *MemStore) AddTeam(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ctx.Err(); err != nil {
		return model.Team{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := match.Normalize(t.Name)
	if _, ok := s.teamNames[key]; ok {
		return model.Team{}, fmt.Errorf("%w: team %q", ErrDuplicate, t.Name)
	}
	if _, ok := s.pendingTeamNames[key]; ok {
		return model.Team{}, fmt.Errorf("%w: team %q", ErrDuplicate, t.Name)
	}

	t.ID = uuid.New()
	t.Runners = nil
	s.pendingTeamNames[key] = struct{}{}
	staged := t
	s.journal = append(s.journal, func(s *MemStore) error {
		s.teams[staged.ID] = staged
		s.teamNames[key] = staged.ID
		return nil
	})
	return t, nil
}

// AddRunner stages a new runner. The returned runner carries its
// assigned ID.
func (s *MemStore) AddRunner(ctx context.Context, r model.Runner) (model.Runner, error) {
	if err := ctx.Err(); err != nil {
		return model.Runner{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := runnerKey{teamID: r.TeamID, name: match.Normalize(r.Name)}
	if _, ok := s.runnerNames[key]; ok {
		return model.Runner{}, fmt.Errorf("%w: runner %q", ErrDuplicate, r.Name)
	}
	if _, ok := s.pendingRunnerNames[key]; ok {
		return model.Runner{}, fmt.Errorf("%w: runner %q", ErrDuplicate, r.Name)
	}

	r.ID = uuid.New()
	s.pendingRunnerNames[key] = struct{}{}
	s.pendingRunnerIDs[r.ID] = struct{}{}
	staged := r
	s.journal = append(s.journal, func(s *MemStore) error {
		s.runners[staged.ID] = staged
		s.runnerNames[key] = staged.ID
		return nil
	})
	return r, nil
}

// SetRunnerRating stages a rating update, marks the runner active, and
// appends the result to its history. The runner may itself be staged in
// the same journal.
func (s *MemStore) SetRunnerRating(ctx context.Context, id uuid.UUID, ratingVal float64, res model.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, committed := s.runners[id]
	_, pending := s.pendingRunnerIDs[id]
	if !committed && !pending {
		return fmt.Errorf("%w: runner %s", ErrNotFound, id)
	}

	res.RunnerID = id
	s.journal = append(s.journal, func(s *MemStore) error {
		r, ok := s.runners[id]
		if !ok {
			return fmt.Errorf("%w: runner %s", ErrNotFound, id)
		}
		v := ratingVal
		r.Rating = &v
		r.Active = true
		s.runners[id] = r
		s.results[id] = append(s.results[id], res)
		return nil
	})
	return nil
}

// DeactivateAll stages deactivation of every runner.
func (s *MemStore) DeactivateAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, func(s *MemStore) error {
		for id, r := range s.runners {
			r.Active = false
			s.runners[id] = r
		}
		return nil
	})
	return nil
}

// Commit applies staged writes in order and clears the journal. The
// first failing op aborts the commit; earlier ops in the same journal
// stay applied, so ops validate at stage time.
func (s *MemStore) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range s.journal {
		if err := op(s); err != nil {
			s.resetJournalLocked()
			return err
		}
	}
	s.resetJournalLocked()
	return nil
}

// Discard drops all staged writes.
func (s *MemStore) Discard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetJournalLocked()
	return nil
}

// Counts returns the number of committed teams and runners.
func (s *MemStore) Counts(ctx context.Context) (teams, runners int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.teams), len(s.runners)
}

func (s *MemStore) resetJournalLocked() {
	s.journal = nil
	s.pendingTeamNames = make(map[string]struct{})
	s.pendingRunnerNames = make(map[runnerKey]struct{})
	s.pendingRunnerIDs = make(map[uuid.UUID]struct{})
}

// assembleLocked copies a team and attaches its runners. Caller holds at
// least the read lock.
func (s *MemStore) assembleLocked(t model.Team) model.Team {
	out := t
	out.Runners = nil
	for _, r := range s.runners {
		if r.TeamID == t.ID {
			out.Runners = append(out.Runners, r)
		}
	}
	sort.Slice(out.Runners, func(i, j int) bool { return out.Runners[i].Name < out.Runners[j].Name })
	return out
}
