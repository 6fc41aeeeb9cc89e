// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/nircadb/internal/domain/types"
)

// RacesHandler handles result sheet imports and the resolution workflow.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandlePostRace handles POST /races?division=M|F. The request body is the
// CSV result sheet. A 202 response carries the import status; names that
// did not resolve exactly wait for decisions via /races/pending/resolve.
func (h *RacesHandler) HandlePostRace(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_race"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	g, err := parseDivision(r)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	status, err := h.deps.BeginImport(r.Context(), r.Body, g)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

// HandlePending handles GET and DELETE /races/pending.
func (h *RacesHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	const op = "api.pending_race"
	switch r.Method {
	case http.MethodGet:
		status, err := h.deps.PendingImport(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodDelete:
		if err := h.deps.DiscardImport(r.Context()); err != nil {
			writeDomainError(w, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// HandleResolve handles POST /races/pending/resolve with a JSON array of
// decisions for the current resolution stage.
func (h *RacesHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve_race"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var decisions []types.Decision
	if err := json.NewDecoder(r.Body).Decode(&decisions); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := h.deps.ResolveImport(r.Context(), decisions)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleCommit handles POST /races/pending/commit.
func (h *RacesHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	const op = "api.commit_race"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.CommitImport(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
