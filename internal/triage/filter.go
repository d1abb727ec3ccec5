package triage

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/facette/natsort"

	"photo-triage/internal/mediatypes"
)

type filterKind int

const (
	filterAll filterKind = iota
	filterStatus
	filterBest
	filterManual
	filterBurst
	filterDuplicate
	filterTag
	filterFace
)

// Filter selects the visible records. The zero value shows everything.
type Filter struct {
	kind   filterKind
	status Status
	arg    string
	spec   string
}

// ParseFilter parses a filter spec:
//
//	all | keep | pending | reject | best | manual | burst | duplicate
//	#<tag>    records carrying tag (case-insensitive)
//	face:<id> records with the given face cluster
func ParseFilter(spec string) (Filter, error) {
	s := strings.TrimSpace(spec)
	lower := strings.ToLower(s)
	f := Filter{spec: lower}

	switch {
	case lower == "" || lower == "all":
		f.spec = "all"
	case lower == "best":
		f.kind = filterBest
	case lower == "manual":
		f.kind = filterManual
	case lower == "burst":
		f.kind = filterBurst
	case lower == "duplicate":
		f.kind = filterDuplicate
	case strings.HasPrefix(s, "#") && len(s) > 1:
		f.kind, f.arg, f.spec = filterTag, s, s
	case strings.HasPrefix(lower, "face:") && len(s) > len("face:"):
		f.kind, f.arg, f.spec = filterFace, s[len("face:"):], s
	default:
		st, err := ParseStatus(lower)
		if err != nil {
			return Filter{}, invalidOption("setFilter", "filter", "unknown filter %q", spec)
		}
		f.kind, f.status = filterStatus, st
	}
	return f, nil
}

// String returns the canonical spec of f.
func (f Filter) String() string {
	if f.spec == "" {
		return "all"
	}
	return f.spec
}

// Match reports whether r passes the filter. keepThreshold is the score
// that counts as best.
func (f Filter) Match(r *ImageRecord, keepThreshold int) bool {
	switch f.kind {
	case filterStatus:
		return r.Status == f.status
	case filterBest:
		return r.Analyzed && r.Score >= keepThreshold
	case filterManual:
		return r.IsManual
	case filterBurst:
		return r.BurstGroupID != ""
	case filterDuplicate:
		return r.IsDuplicate
	case filterTag:
		return r.HasTag(f.arg)
	case filterFace:
		for _, id := range r.FaceIDs {
			if id == f.arg {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// visibleOrder returns the paths passing filter, sorted by field. Sorting is
// stable so ties keep insertion order.
func visibleOrder(set *recordSet, filter Filter, field mediatypes.SortField, opts Options) []string {
	var recs []*ImageRecord
	set.each(func(r *ImageRecord) {
		if filter.Match(r, opts.KeepThreshold) {
			recs = append(recs, r)
		}
	})

	switch field {
	case mediatypes.SortByName:
		sort.SliceStable(recs, func(i, j int) bool {
			a, b := filepath.Base(recs[i].Path), filepath.Base(recs[j].Path)
			if a == b {
				return natsort.Compare(recs[i].Path, recs[j].Path)
			}
			return natsort.Compare(a, b)
		})
	case mediatypes.SortByDate:
		useEXIF := opts.UseEXIFTime()
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].ShotTime(useEXIF).Before(recs[j].ShotTime(useEXIF))
		})
	case mediatypes.SortByScore:
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Score > recs[j].Score
		})
	}

	paths := make([]string, len(recs))
	for i, r := range recs {
		paths[i] = r.Path
	}
	return paths
}
