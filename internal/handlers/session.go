package handlers

import (
	"fmt"
	"net/http"

	"photo-triage/internal/logging"
	"photo-triage/internal/triage"
)

// LoadFolderRequest is the body of POST /api/folder.
type LoadFolderRequest struct {
	Folder string `json:"folder"`
}

// AnalysisRequest is the body of POST /api/analysis.
type AnalysisRequest struct {
	Paths         []string `json:"paths"`
	Reanalyze     bool     `json:"reanalyze"`
	ConfirmManual bool     `json:"confirmManual"`
}

// GetState returns the session snapshot.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// LoadFolder starts a new session over a folder.
func (h *Handlers) LoadFolder(w http.ResponseWriter, r *http.Request) {
	var req LoadFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.LoadFolder(req.Folder); err != nil {
		writeError(w, err)
		return
	}
	snap := h.ctrl.Snapshot()
	if h.store != nil {
		if err := h.store.SetLastFolder(r.Context(), snap.Folder); err != nil {
			logging.Warn("Failed to remember folder %s: %v", snap.Folder, err)
		}
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// GetFolderSummary returns persisted decision counts for ?folder=, or for
// the loaded folder.
func (h *Handlers) GetFolderSummary(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, fmt.Errorf("%w: no decision store configured", errUnavailable))
		return
	}
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = h.ctrl.Snapshot().Folder
	}
	if folder == "" {
		writeError(w, fmt.Errorf("%w: folder is required", errBadRequest))
		return
	}
	summary, err := h.store.FolderSummary(r.Context(), folder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Rescan merges files added to the loaded folder since the last scan.
func (h *Handlers) Rescan(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.Rescan(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "scanning")
}

// CancelScan stops the running scan.
func (h *Handlers) CancelScan(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.CancelScan(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "cancelled")
}

// Reset clears the session.
func (h *Handlers) Reset(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "reset")
}

// StartAnalysis queues photos for scoring. A re-analysis touching curator
// decisions answers 409 with manualCount until confirmManual is set.
func (h *Handlers) StartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	queued, err := h.ctrl.StartAnalysis(triage.AnalysisRequest{
		Paths:         req.Paths,
		Reanalyze:     req.Reanalyze,
		ConfirmManual: req.ConfirmManual,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

// CancelAnalysis stops dispatching photos. In-flight results still land.
func (h *Handlers) CancelAnalysis(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.CancelAnalysis(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "cancelled")
}

// GetOptions returns the current triage options.
func (h *Handlers) GetOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Options())
}

// UpdateOptions replaces the triage options. Fields missing from the body
// keep their current values.
func (h *Handlers) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	opts := h.ctrl.Options()
	if err := decodeJSON(w, r, &opts); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.UpdateOptions(opts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Options())
}
