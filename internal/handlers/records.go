package handlers

import (
	"errors"
	"net/http"
	"os"

	"photo-triage/internal/logging"
	"photo-triage/internal/triage"
)

// thumbnailQuality is the JPEG quality of served previews.
const thumbnailQuality = 80

// SelectRequest is the body of POST /api/select.
type SelectRequest struct {
	Path     string `json:"path"`
	Additive bool   `json:"additive"`
}

// FilterRequest is the body of PUT /api/filter.
type FilterRequest struct {
	Filter string `json:"filter"`
}

// SortRequest is the body of PUT /api/sort.
type SortRequest struct {
	Sort string `json:"sort"`
}

// PathsRequest is the body of POST /api/records/remove.
type PathsRequest struct {
	Paths []string `json:"paths"`
}

// CursorResponse reports the current record after navigation.
type CursorResponse struct {
	Path   string              `json:"path"`
	Record *triage.ImageRecord `json:"record,omitempty"`
}

// ListRecords returns the visible records in display order.
func (h *Handlers) ListRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Visible())
}

// GetRecord returns one record by ?path=.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	path, err := requirePath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, ok := h.ctrl.Record(path)
	if !ok {
		writeError(w, triage.ErrUnknownRecord)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RemoveRecords drops records whose files were deleted.
func (h *Handlers) RemoveRecords(w http.ResponseWriter, r *http.Request) {
	var req PathsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	n, err := h.ctrl.RemoveRecords(req.Paths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// GetThumbnail serves the preview of a session record as JPEG. Paths
// outside the session are refused, so the endpoint cannot read arbitrary
// files.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := requirePath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.previews == nil {
		writeError(w, errUnavailable)
		return
	}
	if _, ok := h.ctrl.Record(path); !ok {
		writeError(w, triage.ErrUnknownRecord)
		return
	}

	data, err := h.previews.PreviewJPEG(path, thumbnailQuality)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, triage.ErrUnknownRecord)
			return
		}
		logging.Warn("Thumbnail: preview failed for %s: %v", path, err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", path, err)
	}
}

// SetFilter changes the visible subset.
func (h *Handlers) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SetFilter(req.Filter); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// SetSort changes the visible order.
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SetSort(req.Sort); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Select moves the cursor to a record, or toggles it in the
// multi-selection when additive.
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.Select(req.Path, req.Additive); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// SelectVisible adds every visible record to the multi-selection.
func (h *Handlers) SelectVisible(w http.ResponseWriter, _ *http.Request) {
	n, err := h.ctrl.SelectVisible()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"selected": n})
}

// ClearSelection empties the multi-selection.
func (h *Handlers) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.ClearSelection(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "cleared")
}

// Next moves the cursor forward in the visible list.
func (h *Handlers) Next(w http.ResponseWriter, _ *http.Request) {
	h.move(w, h.ctrl.Next)
}

// Previous moves the cursor back in the visible list.
func (h *Handlers) Previous(w http.ResponseWriter, _ *http.Request) {
	h.move(w, h.ctrl.Previous)
}

func (h *Handlers) move(w http.ResponseWriter, step func() (string, error)) {
	path, err := step()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := CursorResponse{Path: path}
	if rec, ok := h.ctrl.Record(path); ok {
		resp.Record = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}
