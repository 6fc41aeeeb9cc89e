// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// SearchHandler handles fuzzy name searches.
type SearchHandler struct {
	deps Dependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps Dependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

// HandleSearchTeams handles GET /search/teams?q=...
func (h *SearchHandler) HandleSearchTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_teams"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.SearchTeams(r.Context(), q)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleSearchRunners handles GET /search/runners?q=...&team=...
// The team parameter is optional and scopes the candidate pool.
func (h *SearchHandler) HandleSearchRunners(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_runners"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.SearchRunners(r.Context(), q, r.URL.Query().Get("team"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
