// Package sim runs Monte Carlo race simulations between teams, answering
// how uncertain a projected finish is rather than producing the single
// deterministic projection the scorer gives.
package sim

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/scoring"
)

// Default simulation parameters. The dispersion default matches the
// legacy Maxwell factor.
const (
	defaultTrials     = 1000
	defaultDispersion = 4.0
	defaultSeed       = 1
)

// Mode selects the per-runner sampling law.
type Mode string

// Supported sampling modes.
const (
	ModeMaxwell Mode = "maxwell"
	ModeNormal  Mode = "normal"
)

// RunnerOutcome is one runner's aggregate over all trials.
type RunnerOutcome struct {
	Runner    model.Runner
	Team      string
	AvgRating float64
}

// Outcome is one team's aggregate over all trials.
type Outcome struct {
	Team     model.Team
	AvgScore float64
	AvgRank  float64
}

// Simulator draws stochastic race outcomes for eligible teams.
// Construct with New; the zero value is not usable.
type Simulator struct {
	trials     int
	dispersion float64
	seed       uint64
	workers    int
	mode       Mode
}

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithTrials sets the number of Monte Carlo trials.
func WithTrials(n int) Option {
	return func(s *Simulator) {
		s.trials = n
	}
}

// WithDispersion sets the spread of the per-runner rating distribution.
func WithDispersion(f float64) Option {
	return func(s *Simulator) {
		if f >= 0 {
			s.dispersion = f
		}
	}
}

// WithSeed fixes the random source so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithWorkers bounds the trial fan-out.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMode selects the sampling law.
func WithMode(m Mode) Option {
	return func(s *Simulator) {
		if m == ModeMaxwell || m == ModeNormal {
			s.mode = m
		}
	}
}

// New constructs a Simulator with defaults applied.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		trials:     defaultTrials,
		dispersion: defaultDispersion,
		seed:       defaultSeed,
		workers:    runtime.NumCPU(),
		mode:       ModeMaxwell,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs the configured number of trials for the eligible teams of
// the given gender and aggregates per-team average score and rank.
// Outcomes come back ordered by ascending average score; runner outcomes
// in pooled roster order. Input teams are never mutated.
func (s *Simulator) Simulate(ctx context.Context, teams []model.Team, g model.Gender) ([]Outcome, []RunnerOutcome, error) {
	if s.trials < 1 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidTrials, s.trials)
	}

	// Same eligibility and roster trimming as the deterministic scorer.
	type entrant struct {
		teamIdx int // index into squads
		runner  model.Runner
	}
	var squads []model.Team
	var field []entrant
	for _, t := range teams {
		roster := scoring.Roster(t, g)
		if len(roster) < scoring.MinScoringRunners {
			continue
		}
		squad := t.Clone()
		squad.Runners = roster
		for _, r := range roster {
			field = append(field, entrant{teamIdx: len(squads), runner: r})
		}
		squads = append(squads, squad)
	}
	if len(squads) == 0 {
		return nil, nil, nil
	}

	// Each runner's full trial sequence comes from its own seed-derived
	// source, so results are reproducible regardless of how trials are
	// spread over workers.
	samples := make([][]float64, len(field))
	for k, e := range field {
		src := rand.NewSource(s.seed + uint64(k)*0x9e3779b97f4a7c15)
		dist := s.distribution(*e.runner.Rating, src)
		seq := make([]float64, s.trials)
		for i := range seq {
			seq[i] = dist.Sample()
		}
		samples[k] = seq
	}

	trialScores := make([][]int, s.trials) // trial -> team -> score
	trialRanks := make([][]int, s.trials)  // trial -> team -> rank
	teamOf := make([]int, len(field))      // entrant -> team index
	for k, e := range field {
		teamOf[k] = e.teamIdx
	}

	workers := s.workers
	if workers > s.trials {
		workers = s.trials
	}
	trialCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range trialCh {
				trialScores[trial], trialRanks[trial] = scoreTrial(samples, teamOf, len(squads), trial)
			}
		}()
	}

	var ctxErr error
	for trial := 0; trial < s.trials; trial++ {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		trialCh <- trial
	}
	close(trialCh)
	wg.Wait()
	if ctxErr != nil {
		return nil, nil, ctxErr
	}

	// Aggregate means per team over all trials.
	outcomes := make([]Outcome, len(squads))
	scoresBuf := make([]float64, s.trials)
	ranksBuf := make([]float64, s.trials)
	for ti := range squads {
		for trial := 0; trial < s.trials; trial++ {
			scoresBuf[trial] = float64(trialScores[trial][ti])
			ranksBuf[trial] = float64(trialRanks[trial][ti])
		}
		outcomes[ti] = Outcome{
			Team:     squads[ti],
			AvgScore: stat.Mean(scoresBuf, nil),
			AvgRank:  stat.Mean(ranksBuf, nil),
		}
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].AvgScore < outcomes[j].AvgScore
	})

	runnerOutcomes := make([]RunnerOutcome, len(field))
	for k, e := range field {
		runnerOutcomes[k] = RunnerOutcome{
			Runner:    e.runner,
			Team:      squads[e.teamIdx].Name,
			AvgRating: stat.Mean(samples[k], nil),
		}
	}
	return outcomes, runnerOutcomes, nil
}

// distribution builds the sampling law for one runner.
func (s *Simulator) distribution(ratingVal float64, src rand.Source) Distribution {
	if s.mode == ModeNormal {
		return newNormalDist(ratingVal, s.dispersion, src)
	}
	return newMaxwellDist(ratingVal, s.dispersion, src)
}

// scoreTrial pools one trial's samples, derives places, and scores every
// team exactly like the deterministic scorer. Sorting happens on a local
// index slice; shared inputs are read-only.
func scoreTrial(samples [][]float64, teamOf []int, teamCount, trial int) (scores, ranks []int) {
	order := make([]int, len(teamOf))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return samples[order[i]][trial] > samples[order[j]][trial]
	})

	places := make([][]int, teamCount)
	for pos, k := range order {
		ti := teamOf[k]
		places[ti] = append(places[ti], pos+1)
	}

	scores = make([]int, teamCount)
	for ti, pl := range places {
		sum := 0
		for _, p := range pl[:scoring.ScoringPlaces] {
			sum += p
		}
		scores[ti] = sum
	}

	byScore := make([]int, teamCount)
	for i := range byScore {
		byScore[i] = i
	}
	sort.SliceStable(byScore, func(i, j int) bool {
		return scores[byScore[i]] < scores[byScore[j]]
	})
	ranks = make([]int, teamCount)
	for pos, ti := range byScore {
		ranks[ti] = pos + 1
	}
	return scores, ranks
}
