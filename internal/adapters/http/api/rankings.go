// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// RankingsHandler handles team and runner ranking tables.
type RankingsHandler struct {
	deps Dependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleTeamRankings handles GET /rankings/teams?division=M|F.
func (h *RankingsHandler) HandleTeamRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	g, err := parseDivision(r)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	rows, err := h.deps.TeamRankings(r.Context(), g)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRunnerRankings handles GET /rankings/runners?division=M|F&limit=N.
func (h *RankingsHandler) HandleRunnerRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.runner_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	g, err := parseDivision(r)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	rows, err := h.deps.RunnerRankings(r.Context(), g, limit)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRunnerHistory handles GET /runners/history?team=...&name=...
func (h *RankingsHandler) HandleRunnerHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.runner_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	team := r.URL.Query().Get("team")
	name := r.URL.Query().Get("name")
	if team == "" || name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.RunnerHistory(r.Context(), team, name)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
