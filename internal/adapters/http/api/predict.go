// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// PredictHandler handles Monte Carlo race predictions.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles
// GET /predict?division=M|F&trials=N&dispersion=F&mode=maxwell|normal.
// Omitted trials and dispersion fall back to configured defaults.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	g, err := parseDivision(r)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	trials := 0
	if raw := r.URL.Query().Get("trials"); raw != "" {
		trials, err = strconv.Atoi(raw)
		if err != nil || trials < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	dispersion := 0.0
	if raw := r.URL.Query().Get("dispersion"); raw != "" {
		dispersion, err = strconv.ParseFloat(raw, 64)
		if err != nil || dispersion <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}

	rows, err := h.deps.Predict(r.Context(), g, trials, dispersion, r.URL.Query().Get("mode"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
