package triage

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"photo-triage/internal/mediatypes"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		want    string
		wantErr bool
	}{
		{"", "all", false},
		{"ALL", "all", false},
		{"keep", "keep", false},
		{" Reject ", "reject", false},
		{"best", "best", false},
		{"manual", "manual", false},
		{"#BURST", "#BURST", false},
		{"face:ana", "face:ana", false},
		{"#", "", true},
		{"face:", "", true},
		{"blurry", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			f, err := ParseFilter(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOption) {
					t.Errorf("Expected ErrInvalidOption, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter failed: %v", err)
			}
			if f.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, f.String())
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	t.Parallel()

	rec := &ImageRecord{
		Path:         "/p/a.jpg",
		Status:       StatusKeep,
		Score:        60,
		Analyzed:     true,
		Tags:         []string{TagNew, "#Trip"},
		BurstGroupID: "burst-0001",
		FaceIDs:      []string{"ana"},
	}
	tests := []struct {
		spec string
		want bool
	}{
		{"all", true},
		{"keep", true},
		{"reject", false},
		{"best", true},
		{"manual", false},
		{"burst", true},
		{"duplicate", false},
		{"#trip", true},
		{"#new", true},
		{"#best", false},
		{"face:ana", true},
		{"face:ben", false},
	}
	for _, tt := range tests {
		f, err := ParseFilter(tt.spec)
		if err != nil {
			t.Fatalf("ParseFilter(%q) failed: %v", tt.spec, err)
		}
		if got := f.Match(rec, 45); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.spec, tt.want, got)
		}
	}

	best, _ := ParseFilter("best")
	if best.Match(rec, 61) {
		t.Error("Expected best to follow the keep threshold")
	}
}

func TestVisibleOrderSorting(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := newRecordSet()
	for _, r := range []ImageRecord{
		{Path: "/p/IMG_10.jpg", Score: 50, ModTime: base.Add(3 * time.Second)},
		{Path: "/p/IMG_2.jpg", Score: 80, ModTime: base.Add(1 * time.Second)},
		{Path: "/p/IMG_1.jpg", Score: 50, ModTime: base.Add(2 * time.Second), CaptureTime: base},
	} {
		set.add(&r)
	}

	all, _ := ParseFilter("all")
	opts := DefaultOptions()
	names := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = filepath.Base(p)
		}
		return out
	}

	tests := []struct {
		field string
		exif  bool
		want  []string
	}{
		{"insertion", false, []string{"IMG_10.jpg", "IMG_2.jpg", "IMG_1.jpg"}},
		{"name", false, []string{"IMG_1.jpg", "IMG_2.jpg", "IMG_10.jpg"}},
		{"date", false, []string{"IMG_2.jpg", "IMG_1.jpg", "IMG_10.jpg"}},
		{"date", true, []string{"IMG_1.jpg", "IMG_2.jpg", "IMG_10.jpg"}},
		{"score", false, []string{"IMG_2.jpg", "IMG_10.jpg", "IMG_1.jpg"}},
	}
	for _, tt := range tests {
		o := opts
		if tt.exif {
			o.BurstTimeSource = TimeSourceEXIF
		}
		field, ok := mediatypes.ParseSortField(tt.field)
		if !ok {
			t.Fatalf("Bad sort field %q", tt.field)
		}
		got := names(visibleOrder(set, all, field, o))
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s (exif=%v): expected %v, got %v", tt.field, tt.exif, tt.want, got)
		}
	}
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	scores := map[string]int{"IMG_0000.jpg": 90, "IMG_0001.jpg": 10, "IMG_0002.jpg": 70, "IMG_0003.jpg": 20}
	h := newHarness(t, DefaultOptions(), scoreAnalyzer(scores, 0), nil)
	h.load(t, 4)

	if p, err := h.c.Previous(); err != nil || p != h.paths[0] {
		t.Errorf("Expected Previous with no cursor to land on the first record, got %q, %v", p, err)
	}
	for _, want := range []int{1, 2, 3, 3} {
		p, err := h.c.Next()
		if err != nil || p != h.paths[want] {
			t.Errorf("Expected %s, got %q, %v", filepath.Base(h.paths[want]), p, err)
		}
	}

	h.analyze(t, AnalysisRequest{})
	if err := h.c.SetFilter("keep"); err != nil {
		t.Fatal(err)
	}
	if err := h.c.SetSort("score"); err != nil {
		t.Fatal(err)
	}
	visible := h.c.Visible()
	if len(visible) != 2 || visible[0].Path != h.paths[0] || visible[1].Path != h.paths[2] {
		t.Fatalf("Expected kept photos by score, got %v", visible)
	}

	// The cursor was on a record the filter hides; Next restarts at the top.
	if p, _ := h.c.Next(); p != h.paths[0] {
		t.Errorf("Expected first visible record, got %q", p)
	}
	if p, _ := h.c.Next(); p != h.paths[2] {
		t.Errorf("Expected second visible record, got %q", p)
	}
	if p, _ := h.c.Previous(); p != h.paths[0] {
		t.Errorf("Expected Previous to go back, got %q", p)
	}

	if err := h.c.SetFilter("#nothing"); err != nil {
		t.Fatal(err)
	}
	if p, err := h.c.Next(); err != nil || p != "" {
		t.Errorf("Expected empty path with nothing visible, got %q, %v", p, err)
	}

	if err := h.c.SetSort("size"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Expected refusal for unknown sort, got %v", err)
	}
	if err := h.c.SetFilter("nope"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Expected refusal for unknown filter, got %v", err)
	}
	if snap := h.c.Snapshot(); snap.Filter != "#nothing" || snap.Sort != "score" {
		t.Errorf("Refused commands changed the view: %+v", snap)
	}
}

func TestSelection(t *testing.T) {
	t.Parallel()

	h := newHarness(t, DefaultOptions(), nil, nil)
	h.load(t, 3)

	if err := h.c.Select("/missing.jpg", false); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("Expected ErrUnknownRecord, got %v", err)
	}
	for _, i := range []int{2, 0} {
		if err := h.c.Select(h.paths[i], true); err != nil {
			t.Fatal(err)
		}
	}
	if got := h.c.Snapshot().Selection; !slices.Equal(got, []string{h.paths[0], h.paths[2]}) {
		t.Errorf("Expected selection in record order, got %v", got)
	}

	// Toggling removes.
	if err := h.c.Select(h.paths[2], true); err != nil {
		t.Fatal(err)
	}
	if got := h.c.Snapshot().Selection; !slices.Equal(got, []string{h.paths[0]}) {
		t.Errorf("Expected toggle to remove, got %v", got)
	}

	// A plain select replaces the multi-selection with the current record.
	if err := h.c.Select(h.paths[1], false); err != nil {
		t.Fatal(err)
	}
	if got := h.c.Snapshot().Selection; !slices.Equal(got, []string{h.paths[1]}) {
		t.Errorf("Expected current record as target, got %v", got)
	}
}
