package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	service "github.com/okian/nircadb/internal/app"
	"github.com/okian/nircadb/internal/domain/types"
	"github.com/okian/nircadb/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

const resultSheet = `Twilight Meet,20092025,5000
Jane Swift,Falcons,15:10
Mia Cole,Falcons,15:25
Ava Dean,Falcons,15:40
Zoe Ellis,Falcons,15:55
Ivy Fox,Falcons,16:10
Amy Gray,Harriers,15:15
Eva Hale,Harriers,15:30
Lia Ives,Harriers,15:45
Mae Jung,Harriers,16:00
Sky Kerr,Harriers,16:15
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := repository.NewMemStore(repository.WithMetricsUpdateInterval(time.Hour))
	svc := service.New(service.WithStore(store))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}

	mux := http.NewServeMux()
	NewServer(svc, svc).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)

	t.Cleanup(func() {
		ts.Close()
		svc.Stop()
		store.Close()
	})
	return ts
}

func doJSON(t *testing.T, method, url string, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp
}

// importSheet drives a sheet through the full workflow, declaring every
// unresolved name a new entity.
func importSheet(t *testing.T, base string) {
	t.Helper()
	var status types.ImportStatus
	resp := doJSON(t, http.MethodPost, base+"/races?division=F", resultSheet, &status)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("open import: got %d", resp.StatusCode)
	}
	for status.Stage != "ready" {
		decisions := make([]types.Decision, len(status.Pending))
		for i, row := range status.Pending {
			decisions[i] = types.Decision{Index: row.Index, Action: "new"}
		}
		raw, _ := json.Marshal(decisions)
		resp = doJSON(t, http.MethodPost, base+"/races/pending/resolve", string(raw), &status)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("resolve: got %d", resp.StatusCode)
		}
	}
	resp = doJSON(t, http.MethodPost, base+"/races/pending/commit", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit: got %d", resp.StatusCode)
	}
}

func TestImportEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(t)

		Convey("When posting a result sheet", func() {
			var status types.ImportStatus
			resp := doJSON(t, http.MethodPost, ts.URL+"/races?division=F", resultSheet, &status)

			Convey("Then the import is accepted and awaits team decisions", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(status.Stage, ShouldEqual, "teams")
				So(len(status.Pending), ShouldEqual, 2)
			})

			Convey("Then the pending import is visible", func() {
				var got types.ImportStatus
				resp := doJSON(t, http.MethodGet, ts.URL+"/races/pending", "", &got)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(got.Race, ShouldEqual, "Twilight Meet")
			})

			Convey("Then a second sheet conflicts", func() {
				resp := doJSON(t, http.MethodPost, ts.URL+"/races?division=F", resultSheet, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("Then committing too early conflicts", func() {
				resp := doJSON(t, http.MethodPost, ts.URL+"/races/pending/commit", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("Then a delete discards it", func() {
				req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/races/pending", nil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				_ = resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp2 := doJSON(t, http.MethodGet, ts.URL+"/races/pending", "", nil)
				So(resp2.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When posting garbage", func() {
			Convey("Then a bad division is rejected", func() {
				resp := doJSON(t, http.MethodPost, ts.URL+"/races?division=X", resultSheet, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a malformed sheet is rejected", func() {
				resp := doJSON(t, http.MethodPost, ts.URL+"/races?division=F", "not,a,sheet", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then malformed decision JSON is rejected", func() {
				doJSON(t, http.MethodPost, ts.URL+"/races?division=F", resultSheet, nil)
				resp := doJSON(t, http.MethodPost, ts.URL+"/races/pending/resolve", "{broken", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then resolving without an import is a 404", func() {
				resp := doJSON(t, http.MethodPost, ts.URL+"/races/pending/resolve", "[]", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestQueryEndpoints(t *testing.T) {
	Convey("Given a server with one committed meet", t, func() {
		ts := newTestServer(t)
		importSheet(t, ts.URL)

		Convey("When fetching team rankings", func() {
			var rows []types.TeamRow
			resp := doJSON(t, http.MethodGet, ts.URL+"/rankings/teams?division=F", "", &rows)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Team, ShouldEqual, "Falcons")
			So(rows[0].Rank, ShouldEqual, 1)
		})

		Convey("When fetching runner rankings", func() {
			var rows []types.RunnerRow
			resp := doJSON(t, http.MethodGet, ts.URL+"/rankings/runners?division=F&limit=3", "", &rows)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(rows), ShouldEqual, 3)
			So(rows[0].Name, ShouldEqual, "Jane Swift")
			So(rows[0].Place, ShouldEqual, 1)

			Convey("And a junk limit is rejected", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/rankings/runners?division=F&limit=zero", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching runner history", func() {
			var rows []types.ResultRow
			resp := doJSON(t, http.MethodGet, ts.URL+"/runners/history?team=Falcons&name=Jane+Swift", "", &rows)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Race, ShouldEqual, "Twilight Meet")
			So(rows[0].Date, ShouldEqual, "2025-09-20")

			Convey("And an unknown runner is a 404", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/runners/history?team=Falcons&name=Nobody", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("And missing parameters are a 400", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/runners/history?team=Falcons", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When searching", func() {
			var rows []types.MatchRow
			resp := doJSON(t, http.MethodGet, ts.URL+"/search/teams?q=falcons", "", &rows)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(rows[0].Candidate, ShouldEqual, "Falcons")
			So(rows[0].Score, ShouldEqual, 100)

			Convey("And an empty query is a 400", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/search/runners", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When predicting", func() {
			var rows []types.OutcomeRow
			resp := doJSON(t, http.MethodGet, ts.URL+"/predict?division=F&trials=50", "", &rows)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(rows), ShouldEqual, 2)

			Convey("And an unknown mode is a 400", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/predict?division=F&mode=wild", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And a non-positive dispersion is a 400", func() {
				resp := doJSON(t, http.MethodGet, ts.URL+"/predict?division=F&dispersion=-1", "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When rolling the season over", func() {
			resp := doJSON(t, http.MethodPost, ts.URL+"/season/rollover", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var rows []types.RunnerRow
			doJSON(t, http.MethodGet, ts.URL+"/rankings/runners?division=F", "", &rows)
			So(rows, ShouldBeEmpty)
		})

		Convey("When hitting operational endpoints", func() {
			var stats map[string]any
			resp := doJSON(t, http.MethodGet, ts.URL+"/stats", "", &stats)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(stats["started"], ShouldEqual, true)

			health, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			_ = health.Body.Close()
			So(health.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
