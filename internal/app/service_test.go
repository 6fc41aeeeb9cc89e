package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/race"
	"github.com/okian/nircadb/internal/domain/types"
	"github.com/okian/nircadb/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// meetOne carries two brand-new teams. Alex Veteran's row seeds a prior
// rating of 210 so the 180 performance blends to 205.5 instead of
// standing alone.
const meetOne = `Meet One,06092025,8000
Aaron Fast,Alpha,25:00
Andy Quick,Alpha,25:10
Adam Swift,Alpha,25:20
Abe Long,Alpha,25:30
Ant Hill,Alpha,25:40
Alex Veteran,Alpha,26:40,210
Ben Cole,Bravo,25:05
Bill Dean,Bravo,25:15
Bo Ellis,Bravo,25:25
Brad Fox,Bravo,25:35
Bart Gray,Bravo,25:45
`

// meetTwo names an existing team and runner exactly, so it resolves
// without review. 23:20 is a 220 performance against Aaron's 200.
const meetTwo = `Meet Two,15112025,8000
Aaron Fast,Alpha,23:20
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := repository.NewMemStore(repository.WithMetricsUpdateInterval(time.Hour))
	svc := New(WithStore(store), WithSimSeed(7))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() {
		svc.Stop()
		store.Close()
	})
	return svc
}

func resolveAllNew(ctx context.Context, svc *Service, status types.ImportStatus) (types.ImportStatus, error) {
	for status.Stage != StageReady {
		decisions := make([]types.Decision, len(status.Pending))
		for i, row := range status.Pending {
			decisions[i] = types.Decision{Index: row.Index, Action: "new"}
		}
		var err error
		status, err = svc.ResolveImport(ctx, decisions)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func TestImportWorkflow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh service", t, func() {
		svc := newTestService(t)

		Convey("When opening an import into an empty database", func() {
			status, err := svc.BeginImport(ctx, strings.NewReader(meetOne), model.Male)
			So(err, ShouldBeNil)

			Convey("Then both team names need review", func() {
				So(status.Race, ShouldEqual, "Meet One")
				So(status.Stage, ShouldEqual, StageTeams)
				So(status.Rows, ShouldEqual, 11)
				So(len(status.Pending), ShouldEqual, 2)
				So(status.Pending[0].Name, ShouldEqual, "Alpha")
				So(status.Pending[1].Name, ShouldEqual, "Bravo")
			})

			Convey("And a second import is refused while this one is open", func() {
				_, err := svc.BeginImport(ctx, strings.NewReader(meetTwo), model.Male)
				So(errors.Is(err, ErrImportPending), ShouldBeTrue)
			})

			Convey("And committing before resolution is refused", func() {
				_, err := svc.CommitImport(ctx)
				So(errors.Is(err, ErrImportNotReady), ShouldBeTrue)
			})

			Convey("When both teams are declared new", func() {
				status, err = svc.ResolveImport(ctx, []types.Decision{
					{Index: 0, Action: "new"},
					{Index: 1, Action: "new"},
				})
				So(err, ShouldBeNil)

				Convey("Then the runner stage opens with every finisher pending", func() {
					So(status.Stage, ShouldEqual, StageRunners)
					So(len(status.Pending), ShouldEqual, 11)
					So(status.Pending[0].Context, ShouldEqual, "Alpha")
					So(status.Pending[0].Candidates, ShouldBeEmpty)
				})

				Convey("When every runner is declared new and the import commits", func() {
					status, err = resolveAllNew(ctx, svc, status)
					So(err, ShouldBeNil)
					So(status.Stage, ShouldEqual, StageReady)

					report, err := svc.CommitImport(ctx)
					So(err, ShouldBeNil)
					So(report.Race, ShouldEqual, "Meet One")
					So(report.Results, ShouldEqual, 11)
					So(report.NewTeams, ShouldEqual, 2)
					So(report.NewRunners, ShouldEqual, 11)

					Convey("Then the seeded veteran blended instead of starting fresh", func() {
						rows, err := svc.RunnerHistory(ctx, "Alpha", "Alex Veteran")
						So(err, ShouldBeNil)
						So(len(rows), ShouldEqual, 1)
						So(rows[0].Rating, ShouldEqual, 180)

						table, err := svc.RunnerRankings(ctx, model.Male, 3)
						So(err, ShouldBeNil)
						So(table[0].Name, ShouldEqual, "Alex Veteran")
						So(table[0].Rating, ShouldEqual, 205.5)
					})

					Convey("Then a follow-up sheet with known names needs no review", func() {
						status, err := svc.BeginImport(ctx, strings.NewReader(meetTwo), model.Male)
						So(err, ShouldBeNil)
						So(status.Stage, ShouldEqual, StageReady)
						So(status.Pending, ShouldBeEmpty)

						report, err := svc.CommitImport(ctx)
						So(err, ShouldBeNil)
						So(report.NewTeams, ShouldEqual, 0)
						So(report.NewRunners, ShouldEqual, 0)
						So(report.Results, ShouldEqual, 1)

						Convey("And the 220 performance blends with the stored 200", func() {
							rows, err := svc.RunnerHistory(ctx, "Alpha", "Aaron Fast")
							So(err, ShouldBeNil)
							So(len(rows), ShouldEqual, 2)
							So(rows[0].Race, ShouldEqual, "Meet Two")
							So(rows[0].Rating, ShouldEqual, 220)
							So(rows[1].Race, ShouldEqual, "Meet One")

							table, err := svc.RunnerRankings(ctx, model.Male, 1)
							So(err, ShouldBeNil)
							So(table[0].Name, ShouldEqual, "Aaron Fast")
							So(table[0].Rating, ShouldEqual, 215)
						})
					})
				})
			})
		})
	})
}

func TestImportValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh service", t, func() {
		svc := newTestService(t)

		Convey("Then an unknown division is refused", func() {
			_, err := svc.BeginImport(ctx, strings.NewReader(meetOne), model.Gender("X"))
			So(errors.Is(err, ErrBadDivision), ShouldBeTrue)
		})

		Convey("Then a malformed sheet leaves no import behind", func() {
			_, err := svc.BeginImport(ctx, strings.NewReader("garbage"), model.Female)
			So(errors.Is(err, race.ErrMalformedSheet), ShouldBeTrue)

			_, err = svc.PendingImport(ctx)
			So(errors.Is(err, ErrNoImportPending), ShouldBeTrue)
		})

		Convey("Then resolution calls without an import are refused", func() {
			_, err := svc.ResolveImport(ctx, nil)
			So(errors.Is(err, ErrNoImportPending), ShouldBeTrue)

			_, err = svc.CommitImport(ctx)
			So(errors.Is(err, ErrNoImportPending), ShouldBeTrue)

			So(errors.Is(svc.DiscardImport(ctx), ErrNoImportPending), ShouldBeTrue)
		})

		Convey("Given an open import", func() {
			_, err := svc.BeginImport(ctx, strings.NewReader(meetOne), model.Male)
			So(err, ShouldBeNil)

			Convey("Then unknown actions and nameless overrides are refused", func() {
				_, err := svc.ResolveImport(ctx, []types.Decision{{Index: 0, Action: "shrug"}})
				So(errors.Is(err, ErrUnknownAction), ShouldBeTrue)

				_, err = svc.ResolveImport(ctx, []types.Decision{{Index: 0, Action: "override"}})
				So(errors.Is(err, ErrMissingName), ShouldBeTrue)
			})

			Convey("Then discarding frees the slot for a new import", func() {
				So(svc.DiscardImport(ctx), ShouldBeNil)

				_, err := svc.BeginImport(ctx, strings.NewReader(meetOne), model.Male)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with one committed meet", t, func() {
		svc := newTestService(t)

		status, err := svc.BeginImport(ctx, strings.NewReader(meetOne), model.Male)
		So(err, ShouldBeNil)
		status, err = resolveAllNew(ctx, svc, status)
		So(err, ShouldBeNil)
		_, err = svc.CommitImport(ctx)
		So(err, ShouldBeNil)

		Convey("When ranking teams", func() {
			rows, err := svc.TeamRankings(ctx, model.Male)
			So(err, ShouldBeNil)

			Convey("Then scores follow best-five places", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Team, ShouldEqual, "Alpha")
				So(rows[0].Score, ShouldEqual, 21)
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[1].Team, ShouldEqual, "Bravo")
				So(rows[1].Score, ShouldEqual, 35)
			})

			Convey("And the other division has no standings", func() {
				empty, err := svc.TeamRankings(ctx, model.Female)
				So(err, ShouldBeNil)
				So(empty, ShouldBeEmpty)
			})
		})

		Convey("When ranking runners with a limit", func() {
			rows, err := svc.RunnerRankings(ctx, model.Male, 3)
			So(err, ShouldBeNil)

			So(len(rows), ShouldEqual, 3)
			So(rows[0].Name, ShouldEqual, "Alex Veteran")
			So(rows[0].Team, ShouldEqual, "Alpha")
			So(rows[1].Name, ShouldEqual, "Aaron Fast")
			So(rows[1].Rating, ShouldEqual, 200)
			So(rows[2].Name, ShouldEqual, "Ben Cole")
		})

		Convey("When searching names", func() {
			teams, err := svc.SearchTeams(ctx, "alpha")
			So(err, ShouldBeNil)
			So(teams[0].Candidate, ShouldEqual, "Alpha")
			So(teams[0].Score, ShouldEqual, 100)

			none, err := svc.SearchTeams(ctx, "zzzzzz")
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)

			runners, err := svc.SearchRunners(ctx, "aron fast", "Alpha")
			So(err, ShouldBeNil)
			So(runners[0].Candidate, ShouldEqual, "Aaron Fast")

			_, err = svc.SearchRunners(ctx, "anyone", "No Such Team")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When predicting the meet", func() {
			rows, err := svc.Predict(ctx, model.Male, 100, 0.001, "")
			So(err, ShouldBeNil)

			Convey("Then the stronger team projects ahead", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Team, ShouldEqual, "Alpha")
				So(rows[0].AvgScore, ShouldBeLessThan, rows[1].AvgScore)
			})

			Convey("And an unknown mode is refused", func() {
				_, err := svc.Predict(ctx, model.Male, 100, 4, "bimodal")
				So(errors.Is(err, ErrUnknownMode), ShouldBeTrue)
			})
		})

		Convey("When history is requested for unknown names", func() {
			_, err := svc.RunnerHistory(ctx, "Alpha", "No One")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = svc.RunnerHistory(ctx, "Nowhere", "Aaron Fast")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the season rolls over", func() {
			So(svc.Rollover(ctx), ShouldBeNil)

			Convey("Then nobody ranks until they race again", func() {
				runners, err := svc.RunnerRankings(ctx, model.Male, 10)
				So(err, ShouldBeNil)
				So(runners, ShouldBeEmpty)

				teams, err := svc.TeamRankings(ctx, model.Male)
				So(err, ShouldBeNil)
				So(teams, ShouldBeEmpty)
			})
		})

		Convey("When asking for service stats", func() {
			stats := svc.GetStats()

			So(stats["started"], ShouldBeTrue)
			So(stats["teams"], ShouldEqual, 2)
			So(stats["runners"], ShouldEqual, 11)
			So(stats["importPending"], ShouldBeFalse)
		})
	})
}
