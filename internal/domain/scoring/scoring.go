// Package scoring ranks teams from current speed ratings using
// cross-country rules: five of a seven-runner roster score, and the lowest
// summed place total wins.
package scoring

import (
	"sort"

	"github.com/okian/nircadb/internal/domain/model"
)

// Scoring rules.
const (
	// MinScoringRunners is the roster depth required for a team to field
	// a scoring squad.
	MinScoringRunners = 5
	// RosterSize caps how many runners per team enter the combined field.
	RosterSize = 7
	// ScoringPlaces is how many of a team's placements count.
	ScoringPlaces = 5
)

// Placement locates one runner inside the pooled field.
type Placement struct {
	Place  int // 1-based position in the combined field
	Runner model.Runner
	Team   string
}

// Standing is one team's computed score and rank.
type Standing struct {
	Team  model.Team
	Score int
	Rank  int
	// Sixth is the team's 6th-best place, 0 when the roster has only
	// five runners. Used as the score tiebreak.
	Sixth int
}

// Roster returns a team's scoring roster for a gender: active, rated
// runners sorted by rating descending, capped at RosterSize. Ties keep
// roster order. The input team is not modified.
func Roster(t model.Team, g model.Gender) []model.Runner {
	eligible := make([]model.Runner, 0, len(t.Runners))
	for _, r := range t.ActiveRunners(g) {
		if r.Rated() {
			eligible = append(eligible, r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return *eligible[i].Rating > *eligible[j].Rating
	})
	if len(eligible) > RosterSize {
		eligible = eligible[:RosterSize]
	}
	return eligible
}

// Eligible reports whether a team can field a scoring squad for a gender.
func Eligible(t model.Team, g model.Gender) bool {
	return len(Roster(t, g)) >= MinScoringRunners
}

// Score ranks teams deterministically from current ratings. Ineligible
// teams are absent from both returned tables. Standings come back ordered
// by rank; placements cover the full pooled field in place order.
//
// Equal score totals are broken by the teams' 6th-runner places (a team
// with no 6th runner loses the tie); remaining ties keep input order.
func Score(teams []model.Team, g model.Gender) ([]Standing, []Placement) {
	type entry struct {
		teamIdx int
		runner  model.Runner
	}

	rosters := make(map[int][]model.Runner, len(teams))
	var field []entry
	for i, t := range teams {
		roster := Roster(t, g)
		if len(roster) < MinScoringRunners {
			continue
		}
		rosters[i] = roster
		for _, r := range roster {
			field = append(field, entry{teamIdx: i, runner: r})
		}
	}

	// Combined field: place = 1 + index after sorting by rating desc.
	sort.SliceStable(field, func(i, j int) bool {
		return *field[i].runner.Rating > *field[j].runner.Rating
	})

	placements := make([]Placement, len(field))
	places := make(map[int][]int, len(rosters)) // teamIdx -> ascending places
	for pos, e := range field {
		place := pos + 1
		placements[pos] = Placement{
			Place:  place,
			Runner: e.runner,
			Team:   teams[e.teamIdx].Name,
		}
		places[e.teamIdx] = append(places[e.teamIdx], place)
	}

	standings := make([]Standing, 0, len(rosters))
	for i, t := range teams {
		pl, ok := places[i]
		if !ok {
			continue
		}
		score := 0
		for _, p := range pl[:ScoringPlaces] {
			score += p
		}
		sixth := 0
		if len(pl) > ScoringPlaces {
			sixth = pl[ScoringPlaces]
		}
		standings = append(standings, Standing{Team: t, Score: score, Sixth: sixth})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score < standings[j].Score
		}
		return lessSixth(standings[i].Sixth, standings[j].Sixth)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, placements
}

// lessSixth orders the score tiebreak: a real 6th-runner place beats a
// missing one, and lower places beat higher.
func lessSixth(a, b int) bool {
	if a == 0 || b == 0 {
		return a != 0 && b == 0
	}
	return a < b
}
