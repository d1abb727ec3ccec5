package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"photo-triage/internal/logging"
	"photo-triage/internal/triage"
)

// maxBodyBytes bounds command bodies. The largest is a path list.
const maxBodyBytes = 4 << 20

// ErrorResponse is the body of every failed command.
type ErrorResponse struct {
	Error       string `json:"error"`
	Field       string `json:"field,omitempty"`
	Reason      string `json:"reason,omitempty"`
	ManualCount int    `json:"manualCount,omitempty"`
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// writeError maps controller errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var refusal *triage.RefusalError
	if errors.As(err, &refusal) {
		resp.Field = refusal.Field
		resp.Reason = refusal.Reason
		resp.ManualCount = refusal.ManualCount
	}
	writeJSON(w, statusFor(err), resp)
}

// methodNotAllowed answers a known API path called with the wrong method.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: fmt.Sprintf("method %s not allowed", r.Method)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, triage.ErrInvalidOption),
		errors.Is(err, triage.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, triage.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, triage.ErrManualConfirmationRequired),
		errors.Is(err, triage.ErrBusy),
		errors.Is(err, triage.ErrNothingToUndo),
		errors.Is(err, triage.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, triage.ErrClosed), errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		logging.Error("Unhandled API error: %v", err)
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("not available")
)

// decodeJSON reads a JSON body into v. An empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// requirePath returns the path query parameter.
func requirePath(r *http.Request) (string, error) {
	path := r.URL.Query().Get("path")
	if path == "" {
		return "", fmt.Errorf("%w: path is required", errBadRequest)
	}
	return path, nil
}
