package triage

import (
	"photo-triage/internal/grouping"
)

// regroup recomputes burst and duplicate assignments for the whole record
// set from scratch and reports records whose grouping changed.
func (c *Controller) regroup() {
	useEXIF := c.opts.UseEXIFTime()

	groupOf := make(map[string]string)
	best := make(map[string]bool)
	var bursts []grouping.Burst
	if c.opts.EnableBurstGrouping {
		shots := make([]grouping.Shot, 0, c.records.len())
		c.records.each(func(r *ImageRecord) {
			shots = append(shots, grouping.Shot{Path: r.Path, Time: r.ShotTime(useEXIF), Score: r.Score})
		})
		bursts = grouping.GroupBursts(shots, c.opts.BurstGap())
		for _, b := range bursts {
			for _, p := range b.Members {
				groupOf[p] = b.ID
			}
			best[b.Best] = true
		}
	}

	dups := make(map[string]grouping.Match)
	if c.opts.EnableDuplicateDetection {
		var candidates []grouping.Candidate
		c.records.each(func(r *ImageRecord) {
			if r.Fingerprint.IsZero() {
				return
			}
			candidates = append(candidates, grouping.Candidate{
				Path:        r.Path,
				Group:       groupOf[r.Path],
				Score:       r.Score,
				Time:        r.ShotTime(useEXIF),
				Fingerprint: r.Fingerprint,
			})
		})
		scoped := c.opts.DuplicatesWithinBursts && c.opts.EnableBurstGrouping
		for _, m := range grouping.FindDuplicates(candidates, c.opts.DuplicateSensitivity, scoped) {
			dups[m.Path] = m
		}
	}

	changed := 0
	c.records.each(func(r *ImageRecord) {
		m, dup := dups[r.Path]
		group, isBest := groupOf[r.Path], best[r.Path]
		if r.BurstGroupID == group && r.IsBestOfBurst == isBest && r.IsDuplicate == dup && r.DuplicateOf == m.Of {
			return
		}
		r.BurstGroupID = group
		r.IsBestOfBurst = isBest
		r.IsDuplicate = dup
		r.DuplicateOf = m.Of
		r.setTag(TagBurst, group != "")
		r.setTag(TagBest, isBest)
		r.setTag(TagDuplicate, dup)
		changed++
		c.surface.ResultReady(r.Clone())
	})

	c.bursts, c.duplicates = len(bursts), len(dups)
	if changed > 0 {
		c.invalidateVisible()
		log.Debug("Regrouped %d records: %d bursts, %d duplicates", changed, c.bursts, c.duplicates)
	}
}
