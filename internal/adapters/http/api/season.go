// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// SeasonHandler handles season administration.
type SeasonHandler struct {
	deps Dependencies
}

// NewSeasonHandler creates a new season handler.
func NewSeasonHandler(deps Dependencies) *SeasonHandler {
	return &SeasonHandler{deps: deps}
}

// HandleRollover handles POST /season/rollover. Every runner is
// deactivated; ratings survive until the runner's next result resets them.
func (h *SeasonHandler) HandleRollover(w http.ResponseWriter, r *http.Request) {
	const op = "api.season_rollover"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Rollover(r.Context()); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
