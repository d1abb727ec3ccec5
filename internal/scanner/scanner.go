// Package scanner enumerates photo folders in the background and delivers
// the files it finds in bounded batches.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"photo-triage/internal/filesystem"
	"photo-triage/internal/logging"
	"photo-triage/internal/mediatypes"
	"photo-triage/internal/metrics"
)

var log = logging.Named("scanner")

// DefaultBatchSize is the number of paths per delivered batch.
const DefaultBatchSize = 50

// Config configures a Scanner
type Config struct {
	// BatchSize is the number of entries per batch (0 = DefaultBatchSize)
	BatchSize int
	// Recursive descends into subdirectories
	Recursive bool
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Buffer is the capacity of the event channel
	Buffer int
	// Retry configures the root stat for network mounts
	Retry filesystem.RetryConfig
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		SkipHidden: true,
		Buffer:     4,
		Retry:      filesystem.DefaultRetryConfig(),
	}
}

// Entry is one discovered photo.
type Entry struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Stats summarises a finished scan.
type Stats struct {
	Files       int
	Batches     int
	EntryErrors int
	Duration    time.Duration
}

// Event is delivered on the channel returned by Scan. Exactly one event per
// scan has Done set, and it is always the last one.
type Event struct {
	Batch []Entry

	Done      bool
	Cancelled bool
	// Err is a fatal enumeration error. Batches delivered before it remain
	// valid.
	Err   error
	Stats Stats
}

// Scanner walks folders for photos.
type Scanner struct {
	config Config
}

// New creates a scanner, filling unset fields from DefaultConfig.
func New(config Config) *Scanner {
	def := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Buffer <= 0 {
		config.Buffer = def.Buffer
	}
	if config.Retry.MaxRetries == 0 && config.Retry.InitialBackoff == 0 {
		config.Retry = def.Retry
	}
	return &Scanner{config: config}
}

// Config returns the effective configuration.
func (s *Scanner) Config() Config {
	return s.config
}

// Scan enumerates root in the background. Cancelling ctx stops enumeration
// between entries; no batch is sent after cancellation is observed.
// Callers must drain the channel until it is closed.
func (s *Scanner) Scan(ctx context.Context, root string) <-chan Event {
	out := make(chan Event, s.config.Buffer)
	go func() {
		defer close(out)
		out <- s.run(ctx, root, out)
	}()
	return out
}

func (s *Scanner) run(ctx context.Context, root string, out chan<- Event) Event {
	start := time.Now()
	var stats Stats

	finish := func(ev Event) Event {
		stats.Duration = time.Since(start)
		ev.Done = true
		ev.Stats = stats
		metrics.ScanDuration.Observe(stats.Duration.Seconds())
		switch {
		case ev.Cancelled:
			metrics.ScanRunsTotal.WithLabelValues("cancelled").Inc()
			log.Info("Scan of %s cancelled after %d files", root, stats.Files)
		case ev.Err != nil:
			metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
			log.Error("Scan of %s failed: %v", root, ev.Err)
		default:
			metrics.ScanRunsTotal.WithLabelValues("completed").Inc()
			log.Info("Scan of %s complete: %d files in %d batches (%v, %d unreadable entries)",
				root, stats.Files, stats.Batches, stats.Duration, stats.EntryErrors)
		}
		return ev
	}

	info, err := filesystem.StatWithRetry(root, s.config.Retry)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("not a directory")
	}
	if err != nil {
		return finish(Event{Err: fmt.Errorf("scan %s: %w", root, err)})
	}

	batch := make([]Entry, 0, s.config.BatchSize)
	deliver := func() bool {
		select {
		case out <- Event{Batch: batch}:
		case <-ctx.Done():
			return false
		}
		stats.Batches++
		metrics.ScanBatchesTotal.Inc()
		batch = make([]Entry, 0, s.config.BatchSize)
		return true
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}

		if err != nil {
			if path == root {
				return err
			}
			stats.EntryErrors++
			metrics.ScanEntryErrors.Inc()
			log.Debug("Skipping unreadable entry %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !s.config.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !mediatypes.IsPhoto(path) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			stats.EntryErrors++
			metrics.ScanEntryErrors.Inc()
			log.Debug("Skipping %s: %v", path, err)
			return nil
		}

		batch = append(batch, Entry{Path: path, ModTime: fi.ModTime(), Size: fi.Size()})
		stats.Files++
		metrics.ScanFilesFound.Inc()

		if len(batch) == s.config.BatchSize && !deliver() {
			return fs.SkipAll
		}
		return nil
	})

	if ctx.Err() != nil {
		return finish(Event{Cancelled: true})
	}
	if walkErr != nil && !errors.Is(walkErr, fs.SkipAll) {
		return finish(Event{Err: fmt.Errorf("scan %s: %w", root, walkErr)})
	}
	if len(batch) > 0 && !deliver() {
		return finish(Event{Cancelled: true})
	}
	return finish(Event{})
}
