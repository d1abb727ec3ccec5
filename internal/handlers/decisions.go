package handlers

import (
	"net/http"

	"photo-triage/internal/triage"
)

// DecisionRequest is the body of POST /api/decision. Omitted fields are
// left unchanged.
type DecisionRequest struct {
	Status *triage.Status `json:"status"`
	Rating *int           `json:"rating"`
	Color  *string        `json:"color"`
}

// PathsResponse lists the records a command changed.
type PathsResponse struct {
	Paths []string `json:"paths"`
}

// ApplyDecision applies a curator decision to the selection.
func (h *Handlers) ApplyDecision(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	paths, err := h.ctrl.ApplyDecision(triage.Decision{Status: req.Status, Rating: req.Rating, Color: req.Color})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: paths})
}

// Undo reverts the last decision step.
func (h *Handlers) Undo(w http.ResponseWriter, _ *http.Request) {
	paths, err := h.ctrl.Undo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: paths})
}

// Redo re-applies the last undone step.
func (h *Handlers) Redo(w http.ResponseWriter, _ *http.Request) {
	paths, err := h.ctrl.Redo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: paths})
}
