// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	service "github.com/okian/nircadb/internal/app"
	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/race"
	"github.com/okian/nircadb/internal/domain/rating"
	"github.com/okian/nircadb/internal/domain/resolve"
	"github.com/okian/nircadb/internal/domain/sim"
	"github.com/okian/nircadb/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Import workflow.
	BeginImport(ctx context.Context, r io.Reader, g model.Gender) (types.ImportStatus, error)
	PendingImport(ctx context.Context) (types.ImportStatus, error)
	ResolveImport(ctx context.Context, decisions []types.Decision) (types.ImportStatus, error)
	CommitImport(ctx context.Context) (types.ImportReport, error)
	DiscardImport(ctx context.Context) error

	// Read operations expose ranking data.
	TeamRankings(ctx context.Context, g model.Gender) ([]types.TeamRow, error)
	RunnerRankings(ctx context.Context, g model.Gender, limit int) ([]types.RunnerRow, error)
	RunnerHistory(ctx context.Context, teamName, runnerName string) ([]types.ResultRow, error)
	SearchTeams(ctx context.Context, query string) ([]types.MatchRow, error)
	SearchRunners(ctx context.Context, query, teamName string) ([]types.MatchRow, error)

	// Predict runs a Monte Carlo simulation for a division.
	Predict(ctx context.Context, g model.Gender, trials int, dispersion float64, mode string) ([]types.OutcomeRow, error)

	// Rollover starts a new season.
	Rollover(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	racesHandler    *RacesHandler
	rankingsHandler *RankingsHandler
	predictHandler  *PredictHandler
	searchHandler   *SearchHandler
	seasonHandler   *SeasonHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		racesHandler:    NewRacesHandler(deps),
		rankingsHandler: NewRankingsHandler(deps),
		predictHandler:  NewPredictHandler(deps),
		searchHandler:   NewSearchHandler(deps),
		seasonHandler:   NewSeasonHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/races", MetricsMiddleware(s.racesHandler.HandlePostRace, "races"))
	mux.HandleFunc("/races/pending", MetricsMiddleware(s.racesHandler.HandlePending, "races_pending"))
	mux.HandleFunc("/races/pending/resolve", MetricsMiddleware(s.racesHandler.HandleResolve, "races_resolve"))
	mux.HandleFunc("/races/pending/commit", MetricsMiddleware(s.racesHandler.HandleCommit, "races_commit"))
	mux.HandleFunc("/rankings/teams", MetricsMiddleware(s.rankingsHandler.HandleTeamRankings, "rankings_teams"))
	mux.HandleFunc("/rankings/runners", MetricsMiddleware(s.rankingsHandler.HandleRunnerRankings, "rankings_runners"))
	mux.HandleFunc("/runners/history", MetricsMiddleware(s.rankingsHandler.HandleRunnerHistory, "runner_history"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/search/teams", MetricsMiddleware(s.searchHandler.HandleSearchTeams, "search_teams"))
	mux.HandleFunc("/search/runners", MetricsMiddleware(s.searchHandler.HandleSearchRunners, "search_runners"))
	mux.HandleFunc("/season/rollover", MetricsMiddleware(s.seasonHandler.HandleRollover, "season_rollover"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates a service error to the matching HTTP status.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoImportPending):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrImportPending),
		errors.Is(err, service.ErrImportNotReady),
		errors.Is(err, resolve.ErrUnresolved):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case errors.Is(err, race.ErrMalformedSheet),
		errors.Is(err, rating.ErrMalformedTime),
		errors.Is(err, rating.ErrUnsupportedDistance),
		errors.Is(err, service.ErrBadDivision),
		errors.Is(err, service.ErrUnknownAction),
		errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrUnknownMode),
		errors.Is(err, sim.ErrInvalidTrials),
		errors.Is(err, resolve.ErrBadIndex),
		errors.Is(err, resolve.ErrNoCandidates):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// parseDivision reads the division query parameter ("M" or "F").
func parseDivision(r *http.Request) (model.Gender, error) {
	switch r.URL.Query().Get("division") {
	case "M", "m":
		return model.Male, nil
	case "F", "f":
		return model.Female, nil
	default:
		return "", service.ErrBadDivision
	}
}
