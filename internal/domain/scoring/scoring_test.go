package scoring

import (
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/nircadb/internal/domain/model"
)

func buildTeam(name string, g model.Gender, ratings ...float64) model.Team {
	t := model.Team{ID: uuid.New(), Name: name}
	for _, r := range ratings {
		val := r
		t.Runners = append(t.Runners, model.Runner{
			ID:     uuid.New(),
			Name:   name + " runner",
			TeamID: t.ID,
			Gender: g,
			Rating: &val,
			Active: true,
		})
	}
	return t
}

func TestRoster(t *testing.T) {
	Convey("Given a team with more runners than the roster holds", t, func() {
		team := buildTeam("Overfull", model.Male, 100, 90, 80, 70, 60, 50, 40, 30, 20)

		Convey("When building the roster", func() {
			roster := Roster(team, model.Male)

			Convey("Then only the strongest seven make it, in rating order", func() {
				So(len(roster), ShouldEqual, RosterSize)
				So(*roster[0].Rating, ShouldEqual, 100)
				So(*roster[6].Rating, ShouldEqual, 40)
			})
		})

		Convey("When some runners are inactive or unrated", func() {
			team.Runners[0].Active = false
			team.Runners[1].Rating = nil

			roster := Roster(team, model.Male)

			Convey("Then they are excluded", func() {
				So(len(roster), ShouldEqual, RosterSize)
				So(*roster[0].Rating, ShouldEqual, 80)
			})
		})

		Convey("When asking for the other division", func() {
			roster := Roster(team, model.Female)

			Convey("Then no one qualifies", func() {
				So(roster, ShouldBeEmpty)
			})
		})
	})
}

func TestEligible(t *testing.T) {
	Convey("Given teams of varying depth", t, func() {
		full := buildTeam("Full Squad", model.Female, 100, 90, 80, 70, 60)
		thin := buildTeam("Thin Squad", model.Female, 100, 90, 80, 70)

		Convey("Then five rated active runners are required", func() {
			So(Eligible(full, model.Female), ShouldBeTrue)
			So(Eligible(thin, model.Female), ShouldBeFalse)
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given two eligible teams", t, func() {
		// Pooled descending: A,B,A,B,A,B,A,B,A,B,A,A by construction.
		a := buildTeam("Alpha", model.Male, 100, 90, 80, 70, 60, 50, 40)
		b := buildTeam("Bravo", model.Male, 95, 85, 75, 65, 55)

		Convey("When scoring the meet", func() {
			standings, placements := Score([]model.Team{a, b}, model.Male)

			Convey("Then places sum over each team's best five", func() {
				So(len(standings), ShouldEqual, 2)
				So(standings[0].Team.Name, ShouldEqual, "Alpha")
				So(standings[0].Score, ShouldEqual, 25)
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[1].Team.Name, ShouldEqual, "Bravo")
				So(standings[1].Score, ShouldEqual, 30)
				So(standings[1].Rank, ShouldEqual, 2)
			})

			Convey("Then every rostered runner gets a place", func() {
				So(len(placements), ShouldEqual, 12)
				So(placements[0].Place, ShouldEqual, 1)
				So(*placements[0].Runner.Rating, ShouldEqual, 100)
				So(placements[11].Place, ShouldEqual, 12)
			})
		})

		Convey("When a team lacks five rated runners", func() {
			thin := buildTeam("Charlie", model.Male, 99, 88, 77)

			standings, placements := Score([]model.Team{a, b, thin}, model.Male)

			Convey("Then the thin team is excluded entirely", func() {
				So(len(standings), ShouldEqual, 2)
				for _, p := range placements {
					So(p.Team, ShouldNotEqual, "Charlie")
				}
			})
		})
	})
}

func TestScoreTiebreak(t *testing.T) {
	Convey("Given two teams with identical best-five scores", t, func() {
		// Place order by rating: Y X Y X Y X X Y X X Y Y.
		// Both teams score 28; X's sixth finisher places 10th, Y's 12th.
		x := buildTeam("Xray", model.Female, 118, 116, 114, 113, 111, 110)
		y := buildTeam("Yankee", model.Female, 119, 117, 115, 112, 109, 108)

		Convey("When the sixth runner decides", func() {
			standings, _ := Score([]model.Team{y, x}, model.Female)

			So(standings[0].Score, ShouldEqual, standings[1].Score)
			So(standings[0].Team.Name, ShouldEqual, "Xray")
			So(standings[0].Sixth, ShouldEqual, 10)
			So(standings[1].Team.Name, ShouldEqual, "Yankee")
			So(standings[1].Sixth, ShouldEqual, 12)
		})
	})

	Convey("Given a tie where one team has no sixth runner", t, func() {
		// Place order: Y X Y X X X Y Y Y Y X. Both score 28.
		x := buildTeam("Xray", model.Female, 118, 116, 115, 114, 109)
		y := buildTeam("Yankee", model.Female, 119, 117, 113, 112, 111, 110)

		Convey("When the sixth runner decides", func() {
			standings, _ := Score([]model.Team{x, y}, model.Female)

			Convey("Then the team fielding a sixth wins the tie", func() {
				So(standings[0].Score, ShouldEqual, standings[1].Score)
				So(standings[0].Team.Name, ShouldEqual, "Yankee")
				So(standings[0].Sixth, ShouldEqual, 10)
				So(standings[1].Team.Name, ShouldEqual, "Xray")
				So(standings[1].Sixth, ShouldEqual, 0)
			})
		})
	})
}
