package triage

import (
	"context"
	"time"

	"photo-triage/internal/analysis"
)

// Surface receives session events. Methods are called from the controller
// goroutine, in order, and must not call back into the controller.
type Surface interface {
	// BatchFound reports paths newly merged into the record set.
	BatchFound(paths []string)
	// ResultReady reports a record whose state changed.
	ResultReady(record ImageRecord)
	// Progress reports analysis progress.
	Progress(completed, total int, eta time.Duration)
	// ScanFinished fires once per scan. err is set when enumeration failed.
	ScanFinished(err error)
	// AnalysisFinished fires once per analysis run.
	AnalysisFinished(summary analysis.Summary)
}

// NopSurface discards every event.
type NopSurface struct{}

func (NopSurface) BatchFound([]string) {}
func (NopSurface) ResultReady(ImageRecord) {}
func (NopSurface) Progress(int, int, time.Duration) {}
func (NopSurface) ScanFinished(error) {}
func (NopSurface) AnalysisFinished(analysis.Summary) {}

// PartialRecord is the durable subset of a record.
type PartialRecord struct {
	Status Status
	Rating int
	Color  string
}

// Persistence stores curator decisions.
type Persistence interface {
	SaveDecision(ctx context.Context, path string, status Status, rating int, color string) error
	// FetchFolderData returns the stored decisions for every path under
	// folder.
	FetchFolderData(ctx context.Context, folder string) (map[string]PartialRecord, error)
}

// DecisionRemover is implemented by stores that can forget a decision. The
// controller uses it when an undo returns a record to its automated state.
type DecisionRemover interface {
	DeleteDecision(ctx context.Context, path string) error
}
