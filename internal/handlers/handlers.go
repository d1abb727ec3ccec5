package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-triage/internal/database"
	"photo-triage/internal/triage"
)

// PreviewEncoder renders a cached preview as JPEG, normally a *media.Loader.
type PreviewEncoder interface {
	PreviewJPEG(path string, quality int) ([]byte, error)
}

// Store reports persisted decision counts and remembers the last loaded
// folder, normally a *database.Database.
type Store interface {
	FolderSummary(ctx context.Context, folder string) (database.Summary, error)
	SetLastFolder(ctx context.Context, folder string) error
}

// Handlers serves the triage API.
type Handlers struct {
	ctrl      *triage.Controller
	previews  PreviewEncoder
	store     Store
	events    http.Handler
	metrics   bool
	startTime time.Time
}

// Config wires Handlers. Previews, Store and Events are optional; their
// routes answer 503 or are not registered when unset.
type Config struct {
	Controller *triage.Controller
	Previews   PreviewEncoder
	Store      Store
	// Events serves the websocket stream at /ws
	Events http.Handler
	// Metrics exposes Prometheus metrics at /metrics
	Metrics bool
}

// New returns handlers for cfg.
func New(cfg Config) *Handlers {
	return &Handlers{
		ctrl:      cfg.Controller,
		previews:  cfg.Previews,
		store:     cfg.Store,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		startTime: time.Now(),
	}
}

// RegisterRoutes adds every route to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")
	if h.events != nil {
		r.Handle("/ws", h.events).Name("events")
	}
	if h.metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/folder", h.LoadFolder).Methods(http.MethodPost)
	api.HandleFunc("/folder/summary", h.GetFolderSummary).Methods(http.MethodGet)
	api.HandleFunc("/scan/rescan", h.Rescan).Methods(http.MethodPost)
	api.HandleFunc("/scan/cancel", h.CancelScan).Methods(http.MethodPost)
	api.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)

	api.HandleFunc("/analysis", h.StartAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/analysis/cancel", h.CancelAnalysis).Methods(http.MethodPost)

	api.HandleFunc("/decision", h.ApplyDecision).Methods(http.MethodPost)
	api.HandleFunc("/undo", h.Undo).Methods(http.MethodPost)
	api.HandleFunc("/redo", h.Redo).Methods(http.MethodPost)

	api.HandleFunc("/records", h.ListRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/remove", h.RemoveRecords).Methods(http.MethodPost)
	api.HandleFunc("/record", h.GetRecord).Methods(http.MethodGet)
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods(http.MethodGet)

	api.HandleFunc("/filter", h.SetFilter).Methods(http.MethodPut)
	api.HandleFunc("/sort", h.SetSort).Methods(http.MethodPut)
	api.HandleFunc("/select", h.Select).Methods(http.MethodPost)
	api.HandleFunc("/select/visible", h.SelectVisible).Methods(http.MethodPost)
	api.HandleFunc("/select", h.ClearSelection).Methods(http.MethodDelete)
	api.HandleFunc("/next", h.Next).Methods(http.MethodPost)
	api.HandleFunc("/previous", h.Previous).Methods(http.MethodPost)

	api.HandleFunc("/options", h.GetOptions).Methods(http.MethodGet)
	api.HandleFunc("/options", h.UpdateOptions).Methods(http.MethodPut)
}
