package triage

import (
	"photo-triage/internal/mediatypes"
)

func (c *Controller) invalidateVisible() {
	c.visibleOK = false
}

// visibleList returns the filtered and sorted paths, recomputing them when
// the record set, filter or sort changed.
func (c *Controller) visibleList() []string {
	if !c.visibleOK {
		c.visible = visibleOrder(c.records, c.filter, c.sortField, c.opts)
		c.visibleOK = true
	}
	return c.visible
}

// SetFilter changes the visible subset. See ParseFilter for the syntax.
func (c *Controller) SetFilter(spec string) error {
	f, err := ParseFilter(spec)
	if err != nil {
		return err
	}
	return c.do(func() error {
		c.filter = f
		c.invalidateVisible()
		return nil
	})
}

// SetSort changes the visible order: insertion, name, date or score.
func (c *Controller) SetSort(field string) error {
	sf, ok := mediatypes.ParseSortField(field)
	if !ok {
		return invalidOption("setSort", "sort", "unknown sort order %q", field)
	}
	return c.do(func() error {
		c.sortField = sf
		c.invalidateVisible()
		return nil
	})
}

// Visible returns copies of the visible records in display order.
func (c *Controller) Visible() []ImageRecord {
	var out []ImageRecord
	_ = c.do(func() error {
		paths := c.visibleList()
		out = make([]ImageRecord, len(paths))
		for i, p := range paths {
			rec, _ := c.records.get(p)
			out[i] = rec.Clone()
		}
		return nil
	})
	return out
}

// Record returns a copy of the record for path.
func (c *Controller) Record(path string) (ImageRecord, bool) {
	var (
		out ImageRecord
		ok  bool
	)
	_ = c.do(func() error {
		var rec *ImageRecord
		if rec, ok = c.records.get(path); ok {
			out = rec.Clone()
		}
		return nil
	})
	return out, ok
}

// Select makes path the current record. With additive set it toggles path
// in the multi-selection instead of replacing it.
func (c *Controller) Select(path string, additive bool) error {
	return c.do(func() error {
		if _, ok := c.records.get(path); !ok {
			return ErrUnknownRecord
		}
		if additive {
			if _, ok := c.selection[path]; ok {
				delete(c.selection, path)
			} else {
				c.selection[path] = struct{}{}
			}
		} else {
			clear(c.selection)
		}
		c.current = path
		return nil
	})
}

// SelectVisible adds every visible record to the multi-selection.
func (c *Controller) SelectVisible() (int, error) {
	n := 0
	err := c.do(func() error {
		for _, p := range c.visibleList() {
			c.selection[p] = struct{}{}
		}
		n = len(c.selection)
		return nil
	})
	return n, err
}

// ClearSelection empties the multi-selection. The current record stays.
func (c *Controller) ClearSelection() error {
	return c.do(func() error {
		clear(c.selection)
		return nil
	})
}

// Next moves to the following visible record and returns its path, or ""
// when nothing is visible. The cursor stops at the last record.
func (c *Controller) Next() (string, error) {
	return c.step(1)
}

// Previous moves to the preceding visible record. The cursor stops at the
// first record.
func (c *Controller) Previous() (string, error) {
	return c.step(-1)
}

func (c *Controller) step(delta int) (string, error) {
	var path string
	err := c.do(func() error {
		visible := c.visibleList()
		if len(visible) == 0 {
			return nil
		}
		idx := -1
		for i, p := range visible {
			if p == c.current {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = 0
		} else {
			idx = min(max(idx+delta, 0), len(visible)-1)
		}
		c.current = visible[idx]
		path = c.current
		return nil
	})
	return path, err
}

// Snapshot summarises the session.
type Snapshot struct {
	State      State          `json:"state"`
	Analyzing  bool           `json:"analyzing"`
	Folder     string         `json:"folder,omitempty"`
	Session    string         `json:"session,omitempty"`
	Total      int            `json:"total"`
	Visible    int            `json:"visible"`
	Counts     map[Status]int `json:"counts"`
	Bursts     int            `json:"bursts"`
	Duplicates int            `json:"duplicates"`
	Current    string         `json:"current,omitempty"`
	Selection  []string       `json:"selection"`
	Filter     string         `json:"filter"`
	Sort       string         `json:"sort"`
	CanUndo    bool           `json:"canUndo"`
	CanRedo    bool           `json:"canRedo"`
	Options    Options        `json:"options"`
}

// Snapshot returns the current session summary.
func (c *Controller) Snapshot() Snapshot {
	var s Snapshot
	_ = c.do(func() error {
		stats := c.sessionStats()
		s = Snapshot{
			State:      c.state,
			Analyzing:  c.run != nil,
			Folder:     c.folder,
			Session:    c.session,
			Total:      c.records.len(),
			Visible:    len(c.visibleList()),
			Counts:     map[Status]int{StatusPending: stats.Pending, StatusKeep: stats.Keep, StatusReject: stats.Reject},
			Bursts:     c.bursts,
			Duplicates: c.duplicates,
			Current:    c.current,
			Selection:  c.targets(),
			Filter:     c.filter.String(),
			Sort:       string(c.sortField),
			CanUndo:    c.journal.CanUndo(),
			CanRedo:    c.journal.CanRedo(),
			Options:    c.opts,
		}
		return nil
	})
	return s
}
