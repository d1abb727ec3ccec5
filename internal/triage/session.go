package triage

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"photo-triage/internal/analysis"
	"photo-triage/internal/metrics"
	"photo-triage/internal/scanner"
)

// LoadFolder replaces the session with a scan of folder. Running work is
// cancelled and everything from the previous session is cleared first.
// Stored decisions for the folder are restored as records arrive.
func (c *Controller) LoadFolder(folder string) error {
	if folder == "" {
		return invalidOption("loadFolder", "folder", "a folder is required")
	}
	folder = filepath.Clean(folder)
	return c.do(func() error {
		c.reset()
		c.folder = folder
		c.session = uuid.NewString()
		log.Info("Session %s: loading %s", c.session, folder)

		c.fetchPrior(folder)
		c.startScan(folder)
		return nil
	})
}

// Rescan scans the current folder again, merging files that were not seen
// before. Existing records are kept as they are.
func (c *Controller) Rescan() error {
	return c.do(func() error {
		if c.folder == "" {
			return invalidOption("rescan", "folder", "no folder loaded")
		}
		if c.scanCancel != nil {
			return &RefusalError{Op: "rescan", Reason: "a scan is already running", err: ErrBusy}
		}
		c.startScan(c.folder)
		return nil
	})
}

// CancelScan stops the running scan. ScanFinished still fires.
func (c *Controller) CancelScan() error {
	return c.do(func() error {
		if c.scanCancel != nil {
			log.Info("Session %s: scan cancelled", c.session)
			c.scanCancel()
		}
		return nil
	})
}

// Reset cancels running work and clears the session.
func (c *Controller) Reset() error {
	return c.do(func() error {
		c.reset()
		c.folder = ""
		c.session = ""
		c.state = StateEmpty
		return nil
	})
}

func (c *Controller) startScan(folder string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.scanCancel = cancel
	c.state = StateScanning

	gen := c.gen
	events := scanner.New(c.scanConfig).Scan(ctx, folder)
	go func() {
		for ev := range events {
			c.post(func() { c.handleScanEvent(gen, ev) })
		}
	}()
}

func (c *Controller) handleScanEvent(gen uint64, ev scanner.Event) {
	if c.stale(gen) {
		return
	}
	if !ev.Done {
		c.merge(ev.Batch)
		return
	}

	c.scanCancel = nil
	c.state = StateReady
	if ev.Err != nil {
		log.Error("Session %s: scan of %s failed: %v", c.session, c.folder, ev.Err)
		if c.records.len() == 0 {
			c.state = StateEmpty
		}
	} else {
		log.Info("Session %s: scan finished with %d photos (%d new)", c.session, c.records.len(), ev.Stats.Files)
	}
	c.regroup()
	c.surface.ScanFinished(ev.Err)
}

// merge adds a scan batch to the record set. Paths already present are
// ignored so a rescan never resets a record.
func (c *Controller) merge(batch []scanner.Entry) {
	added := make([]string, 0, len(batch))
	for _, e := range batch {
		rec := newRecord(e.Path, e.ModTime)
		if !c.records.add(rec) {
			continue
		}
		added = append(added, e.Path)

		if p, ok := c.prior[e.Path]; ok {
			applyPrior(rec, p)
			delete(c.prior, e.Path)
		}
		if res, ok := c.unmerged[e.Path]; ok {
			delete(c.unmerged, e.Path)
			c.applyResult(res)
		}
	}
	if len(added) == 0 {
		return
	}
	c.invalidateVisible()
	c.surface.BatchFound(added)
}

func (c *Controller) fetchPrior(folder string) {
	if c.store == nil {
		return
	}
	gen := c.gen
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		data, err := c.store.FetchFolderData(ctx, folder)
		c.post(func() { c.handlePrior(gen, data, err) })
	}()
}

func (c *Controller) handlePrior(gen uint64, data map[string]PartialRecord, err error) {
	if c.stale(gen) {
		return
	}
	if err != nil {
		log.Warn("Session %s: could not restore decisions for %s: %v", c.session, c.folder, err)
		return
	}
	log.Debug("Session %s: restoring %d stored decisions", c.session, len(data))

	c.prior = make(map[string]PartialRecord, len(data))
	for path, p := range data {
		if !c.scanConfig.Recursive && filepath.Dir(path) != c.folder {
			continue
		}
		// A decision made before the stored rows arrived is newer.
		if _, ok := c.decided[path]; ok {
			continue
		}
		rec, ok := c.records.get(path)
		if !ok {
			c.prior[path] = p
			continue
		}
		applyPrior(rec, p)
		c.surface.ResultReady(rec.Clone())
	}
	c.invalidateVisible()
}

// applyPrior restores a stored decision. Stored rows are curator decisions,
// so the record is locked.
func applyPrior(rec *ImageRecord, p PartialRecord) {
	if p.Status != "" {
		rec.Status = p.Status
	}
	rec.Rating = p.Rating
	rec.Color = p.Color
	rec.IsManual = true
	rec.setTag(TagSelected, rec.Status == StatusKeep)
	rec.RemoveTag(TagNew)
}

// AnalysisRequest selects what StartAnalysis runs over.
type AnalysisRequest struct {
	// Paths limits the run. Empty means every record in the session.
	Paths []string
	// Reanalyze includes records that already have a score. Records with
	// curator decisions are always skipped.
	Reanalyze bool
	// ConfirmManual acknowledges that the set holds curator decisions.
	// Re-analysis is refused without it.
	ConfirmManual bool
}

// StartAnalysis scores records in the background and returns the number
// queued. Records may be analysed while the scan is still running. Verdicts
// never change a record with a curator decision.
func (c *Controller) StartAnalysis(req AnalysisRequest) (int, error) {
	var queued int
	err := c.do(func() error {
		if c.run != nil {
			return &RefusalError{Op: "analyze", Reason: "analysis already running", err: ErrBusy}
		}

		var candidates []*ImageRecord
		if len(req.Paths) == 0 {
			c.records.each(func(r *ImageRecord) { candidates = append(candidates, r) })
		} else {
			for _, p := range req.Paths {
				if r, ok := c.records.get(p); ok {
					candidates = append(candidates, r)
				}
			}
		}

		manual := 0
		var targets []string
		for _, r := range candidates {
			switch {
			case r.IsManual && req.Reanalyze:
				manual++
			case r.Analyzed && !req.Reanalyze:
			default:
				targets = append(targets, r.Path)
			}
		}
		if manual > 0 && !req.ConfirmManual {
			return &RefusalError{
				Op:          "analyze",
				Field:       "confirmManual",
				Reason:      fmt.Sprintf("%d records carry curator decisions and will be skipped", manual),
				ManualCount: manual,
				err:         ErrManualConfirmationRequired,
			}
		}
		if len(targets) == 0 {
			return nil
		}

		c.startAnalysis(targets)
		queued = len(targets)
		return nil
	})
	return queued, err
}

func (c *Controller) startAnalysis(paths []string) {
	pool := analysis.NewPool(c.analyzer, analysis.PoolConfig{
		Budget:           c.opts.WorkerBudget,
		ProgressInterval: c.progressInterval,
		Backpressure:     c.backpressure,
	})
	run := pool.Start(context.Background(), paths)
	c.run = run
	log.Info("Session %s: analysing %d photos", c.session, len(paths))

	gen := c.gen
	go func() {
		for ev := range run.Events() {
			c.post(func() { c.handleAnalysisEvent(gen, run, ev) })
		}
	}()
}

// CancelAnalysis stops dispatch of photos not yet started. Photos already
// being analysed finish and their results are applied.
func (c *Controller) CancelAnalysis() error {
	return c.do(func() error {
		if c.run != nil {
			log.Info("Session %s: analysis cancelled", c.session)
			c.run.Cancel()
		}
		return nil
	})
}

func (c *Controller) handleAnalysisEvent(gen uint64, run *analysis.Run, ev analysis.Event) {
	if c.stale(gen) || run != c.run {
		return
	}
	switch {
	case ev.Result != nil:
		c.applyResult(*ev.Result)
	case ev.Progress != nil:
		// Groups settle once per run; best-of-burst would flicker if
		// recomputed as scores trickle in.
		c.surface.Progress(ev.Progress.Completed, ev.Progress.Total, ev.Progress.ETA)
	case ev.Summary != nil:
		c.run = nil
		c.regroup()
		c.surface.AnalysisFinished(*ev.Summary)
	}
}

// applyResult merges an analysis result. A result for a path that has not
// been merged yet is held until it is.
func (c *Controller) applyResult(res analysis.Result) {
	if res.Err != nil {
		return
	}
	rec, ok := c.records.get(res.Path)
	if !ok {
		c.unmerged[res.Path] = res
		return
	}

	s := res.Signals
	rec.Score = res.Score
	rec.Analyzed = true
	rec.FaceIDs = slices.Clone(s.FaceIDs)
	rec.VIPLevel = s.VIPLevel
	rec.CaptureTime = s.CaptureTime
	rec.Fingerprint = s.Fingerprint.Clone()

	if rec.IsManual {
		metrics.AnalysisVerdicts.WithLabelValues("locked").Inc()
	} else {
		verdict := c.opts.Policy().Decide(res.Score, s)
		switch verdict {
		case analysis.VerdictKeep:
			rec.Status = StatusKeep
		case analysis.VerdictReject:
			rec.Status = StatusReject
		}
		if s.HasRating && rec.Rating == 0 {
			rec.Rating = s.Rating
		}
		metrics.AnalysisVerdicts.WithLabelValues(verdict.String()).Inc()
	}

	c.invalidateVisible()
	c.surface.ResultReady(rec.Clone())
}

// UpdateOptions replaces the options. Invalid options are refused with
// nothing changed. Grouping settings regroup the whole record set; the
// worker budget applies to the next analysis run.
func (c *Controller) UpdateOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	return c.do(func() error {
		old := c.opts
		c.opts = opts

		if c.cache != nil && opts.CacheCapacity != c.cache.Capacity() {
			if evicted, err := c.cache.Resize(opts.CacheCapacity); err == nil && evicted > 0 {
				log.Debug("Cache resized to %d, evicted %d previews", opts.CacheCapacity, evicted)
			}
		}
		if old.groupingChanged(opts) {
			c.regroup()
		}
		c.invalidateVisible()
		return nil
	})
}

// Options returns the current options.
func (c *Controller) Options() Options {
	var o Options
	if err := c.do(func() error { o = c.opts; return nil }); err != nil {
		return Options{}
	}
	return o
}

// RemoveRecords drops paths from the session, for files moved or deleted
// outside the triage. Journal steps that touched them become no-ops for
// those paths. It returns the number removed.
func (c *Controller) RemoveRecords(paths []string) (int, error) {
	removed := 0
	err := c.do(func() error {
		for _, p := range paths {
			if c.records.remove(p) {
				removed++
				delete(c.selection, p)
				if c.current == p {
					c.current = ""
				}
			}
		}
		if removed > 0 {
			c.invalidateVisible()
			c.regroup()
		}
		return nil
	})
	return removed, err
}
