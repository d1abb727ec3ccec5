package triage

import (
	"photo-triage/internal/journal"
	"photo-triage/internal/metrics"
)

// Decision is a curator action. Nil fields are left unchanged.
type Decision struct {
	Status *Status
	Rating *int
	Color  *string
}

func (d Decision) validate() error {
	const op = "applyDecision"
	if d.Status == nil && d.Rating == nil && d.Color == nil {
		return invalidOption(op, "decision", "nothing to apply")
	}
	if d.Status != nil {
		if _, err := ParseStatus(string(*d.Status)); err != nil {
			return invalidOption(op, "status", "%v", err)
		}
	}
	if d.Rating != nil && (*d.Rating < 0 || *d.Rating > MaxRating) {
		return invalidOption(op, "rating", "%d is outside 0-%d", *d.Rating, MaxRating)
	}
	return nil
}

// ApplyDecision applies d to the multi-selection, or to the current record
// when nothing is multi-selected, as one undoable step. Affected records
// are locked against automated verdicts. It returns the paths changed.
func (c *Controller) ApplyDecision(d Decision) ([]string, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	var paths []string
	err := c.do(func() error {
		paths = c.targets()
		if len(paths) == 0 {
			return ErrNoSelection
		}

		batch := make(journal.Batch[decisionState], 0, len(paths))
		for _, p := range paths {
			rec, _ := c.records.get(p)
			batch = append(batch, journal.Entry[decisionState]{Path: p, Snapshot: rec.decision()})
		}
		c.journal.Record(batch)

		for _, p := range paths {
			rec, _ := c.records.get(p)
			if d.Status != nil {
				rec.Status = *d.Status
				rec.setTag(TagSelected, rec.Status == StatusKeep)
				metrics.CuratorDecisions.WithLabelValues(string(rec.Status)).Inc()
			}
			if d.Rating != nil {
				rec.Rating = *d.Rating
			}
			if d.Color != nil {
				rec.Color = *d.Color
			}
			rec.IsManual = true
			c.decided[p] = struct{}{}
			c.persist(rec)
			c.surface.ResultReady(rec.Clone())
		}
		c.invalidateVisible()
		log.Debug("Session %s: decision applied to %d records", c.session, len(paths))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// targets returns the multi-selection in record order, or the current
// record.
func (c *Controller) targets() []string {
	if len(c.selection) > 0 {
		var paths []string
		c.records.each(func(r *ImageRecord) {
			if _, ok := c.selection[r.Path]; ok {
				paths = append(paths, r.Path)
			}
		})
		return paths
	}
	if _, ok := c.records.get(c.current); ok {
		return []string{c.current}
	}
	return nil
}

// Undo reverts the most recent decision step and returns the paths
// restored.
func (c *Controller) Undo() ([]string, error) {
	var restored []string
	err := c.do(func() error {
		if !c.journal.CanUndo() {
			return ErrNothingToUndo
		}
		restored = c.journal.Undo(c.records)
		c.afterRestore(restored)
		return nil
	})
	return restored, err
}

// Redo re-applies the most recently undone step.
func (c *Controller) Redo() ([]string, error) {
	var restored []string
	err := c.do(func() error {
		if !c.journal.CanRedo() {
			return ErrNothingToRedo
		}
		restored = c.journal.Redo(c.records)
		c.afterRestore(restored)
		return nil
	})
	return restored, err
}

func (c *Controller) afterRestore(paths []string) {
	for _, p := range paths {
		rec, _ := c.records.get(p)
		c.decided[p] = struct{}{}
		c.persist(rec)
		c.surface.ResultReady(rec.Clone())
	}
	c.invalidateVisible()
}
