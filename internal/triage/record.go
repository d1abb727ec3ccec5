package triage

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"photo-triage/internal/grouping"
)

// Status is the disposition of a photo.
type Status string

const (
	StatusPending Status = "pending"
	StatusKeep    Status = "keep"
	StatusReject  Status = "reject"
)

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusKeep, StatusReject:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Record tags.
const (
	TagNew       = "#NEW"
	TagBurst     = "#BURST"
	TagBest      = "#BEST"
	TagDuplicate = "#DUPLICATE"
	TagSelected  = "#SELECTED"
)

// MaxRating is the highest star rating.
const MaxRating = 5

// ImageRecord is the triage state of one photo. Records handed out by the
// controller are copies; changing them has no effect on the session.
type ImageRecord struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	// Score is 0 until the photo has been analysed.
	Score int `json:"score"`
	// Tags is an ordered set; display order is insertion order.
	Tags []string `json:"tags"`
	// IsManual is set by any curator decision and locks Status, Rating and
	// Color against automated changes.
	IsManual bool   `json:"isManual"`
	Rating   int    `json:"rating"`
	Color    string `json:"color,omitempty"`

	BurstGroupID  string `json:"burstGroupId,omitempty"`
	IsBestOfBurst bool   `json:"isBestOfBurst"`

	FaceIDs  []string `json:"faceIds,omitempty"`
	VIPLevel string   `json:"vipLevel,omitempty"`

	ModTime     time.Time `json:"modTime"`
	CaptureTime time.Time `json:"captureTime,omitempty"`
	Analyzed    bool      `json:"analyzed"`

	IsDuplicate bool   `json:"isDuplicate"`
	DuplicateOf string `json:"duplicateOf,omitempty"`

	Fingerprint grouping.Fingerprint `json:"-"`
}

func newRecord(path string, modTime time.Time) *ImageRecord {
	return &ImageRecord{
		Path:    path,
		Status:  StatusPending,
		Tags:    []string{TagNew},
		ModTime: modTime,
	}
}

// Clone returns a deep copy of r.
func (r ImageRecord) Clone() ImageRecord {
	r.Tags = slices.Clone(r.Tags)
	r.FaceIDs = slices.Clone(r.FaceIDs)
	r.Fingerprint = r.Fingerprint.Clone()
	return r
}

// ShotTime is the time used for burst grouping and date sorting: the EXIF
// capture time when useEXIF is set and it is known, otherwise the
// modification time.
func (r *ImageRecord) ShotTime(useEXIF bool) time.Time {
	if useEXIF && !r.CaptureTime.IsZero() {
		return r.CaptureTime
	}
	return r.ModTime
}

// HasTag reports whether r carries tag, ignoring case.
func (r *ImageRecord) HasTag(tag string) bool {
	return slices.ContainsFunc(r.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// AddTag appends tag unless it is already present.
func (r *ImageRecord) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}

// RemoveTag drops tag, keeping the order of the rest.
func (r *ImageRecord) RemoveTag(tag string) {
	r.Tags = slices.DeleteFunc(r.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

func (r *ImageRecord) setTag(tag string, on bool) {
	if on {
		r.AddTag(tag)
	} else {
		r.RemoveTag(tag)
	}
}

// recordSet is the insertion-ordered record store. Only the controller
// goroutine touches it.
type recordSet struct {
	order  []string
	byPath map[string]*ImageRecord
}

func newRecordSet() *recordSet {
	return &recordSet{byPath: make(map[string]*ImageRecord)}
}

// add inserts rec and reports whether it was new. An existing record with
// the same path is left untouched.
func (s *recordSet) add(rec *ImageRecord) bool {
	if _, ok := s.byPath[rec.Path]; ok {
		return false
	}
	s.byPath[rec.Path] = rec
	s.order = append(s.order, rec.Path)
	return true
}

func (s *recordSet) get(path string) (*ImageRecord, bool) {
	r, ok := s.byPath[path]
	return r, ok
}

func (s *recordSet) remove(path string) bool {
	if _, ok := s.byPath[path]; !ok {
		return false
	}
	delete(s.byPath, path)
	s.order = slices.DeleteFunc(s.order, func(p string) bool { return p == path })
	return true
}

func (s *recordSet) len() int {
	return len(s.order)
}

// each visits records in insertion order.
func (s *recordSet) each(fn func(*ImageRecord)) {
	for _, p := range s.order {
		fn(s.byPath[p])
	}
}

// decisionState is the curator-owned part of a record, the unit the
// decision journal snapshots. Derived fields (score, tags other than
// #SELECTED, grouping) are not journaled and stay as analysis and grouping
// left them.
type decisionState struct {
	Status   Status
	Rating   int
	Color    string
	IsManual bool
	Selected bool
}

func (r *ImageRecord) decision() decisionState {
	return decisionState{
		Status:   r.Status,
		Rating:   r.Rating,
		Color:    r.Color,
		IsManual: r.IsManual,
		Selected: r.HasTag(TagSelected),
	}
}

func (r *ImageRecord) setDecision(d decisionState) {
	r.Status = d.Status
	r.Rating = d.Rating
	r.Color = d.Color
	r.IsManual = d.IsManual
	r.setTag(TagSelected, d.Selected)
}

// Current and Restore let the decision journal restore into the set.

func (s *recordSet) Current(path string) (decisionState, bool) {
	r, ok := s.byPath[path]
	if !ok {
		return decisionState{}, false
	}
	return r.decision(), true
}

func (s *recordSet) Restore(path string, d decisionState) {
	r, ok := s.byPath[path]
	if !ok {
		panic(fmt.Sprintf("triage: restore of unknown record %s", path))
	}
	r.setDecision(d)
}
