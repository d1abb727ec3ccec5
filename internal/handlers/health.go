package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-triage/internal/startup"
	"photo-triage/internal/triage"
)

const (
	statusHealthy = "healthy"
	statusStopped = "stopped"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	Uptime    string       `json:"uptime"`
	State     triage.State `json:"state"`
	Analyzing bool         `json:"analyzing"`
	Records   int          `json:"records"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports whether the controller loop is serving commands.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	if err := h.ctrl.Ping(); err != nil {
		response.Status = statusStopped
		code = http.StatusServiceUnavailable
	} else {
		snap := h.ctrl.Snapshot()
		response.State = snap.State
		response.Analyzing = snap.Analyzing
		response.Records = snap.Total
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	writeJSON(w, code, response)
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
