package testraces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// Name pools for synthetic rosters. Combinations give enough variety for
// realistic fuzzy-match exercise without colliding.
var (
	teamPrefixes = []string{
		"Northern", "Southern", "Eastern", "Western", "Central",
		"Lakeside", "Riverside", "Highland", "Valley", "Summit",
	}
	teamSuffixes = []string{
		"State", "Tech", "A&M", "College", "University",
	}
	firstNames = []string{
		"Alex", "Jordan", "Casey", "Riley", "Morgan", "Avery",
		"Quinn", "Reese", "Drew", "Blake", "Cameron", "Hayden",
		"Devon", "Emerson", "Finley", "Harper", "Kendall", "Logan",
		"Micah", "Parker", "Rowan", "Sage", "Skyler", "Taylor",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Hernandez",
		"Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
		"Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
	}
)

// Rough finish time parameters per distance (seconds).
var baseTimes = map[int]float64{
	4000: 780,
	5000: 940,
	6000: 1170,
	8000: 1560,
}

// GenerateSheet builds a CSV result sheet for one synthetic race. The
// same seed always yields the same sheet.
func GenerateSheet(cfg *Config) ([]byte, error) {
	base, ok := baseTimes[cfg.Distance]
	if !ok {
		return nil, fmt.Errorf("no base time for %dm", cfg.Distance)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	raceName := fmt.Sprintf("Generated Invitational %d", cfg.Seed)
	date := time.Now().Format("02012006")
	if err := w.Write([]string{raceName, date, strconv.Itoa(cfg.Distance)}); err != nil {
		return nil, err
	}

	usedTeams := make(map[string]struct{})
	for t := 0; t < cfg.Teams; t++ {
		team := uniqueName(rng, usedTeams, func() string {
			return teamPrefixes[rng.Intn(len(teamPrefixes))] + " " + teamSuffixes[rng.Intn(len(teamSuffixes))]
		})

		// Team strength offsets keep generated standings interesting.
		teamOffset := rng.NormFloat64() * 30

		usedRunners := make(map[string]struct{})
		for r := 0; r < cfg.RunnersPerTeam; r++ {
			runner := uniqueName(rng, usedRunners, func() string {
				return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
			})
			seconds := base + teamOffset + rng.NormFloat64()*45
			if seconds < base*0.8 {
				seconds = base * 0.8
			}
			row := []string{runner, team, formatTime(seconds), ""}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uniqueName draws names until one has not been used yet.
func uniqueName(rng *rand.Rand, used map[string]struct{}, draw func() string) string {
	for {
		name := draw()
		if _, ok := used[name]; !ok {
			used[name] = struct{}{}
			return name
		}
	}
}

// formatTime renders seconds as mm:ss.t.
func formatTime(seconds float64) string {
	m := int(seconds) / 60
	s := seconds - float64(m*60)
	return fmt.Sprintf("%d:%04.1f", m, s)
}
