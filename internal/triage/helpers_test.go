package triage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"photo-triage/internal/analysis"
)

const waitTimeout = 10 * time.Second

// recordingSurface captures controller events.
type recordingSurface struct {
	mu       sync.Mutex
	batches  [][]string
	results  []ImageRecord
	progress int

	scans    chan error
	analyses chan analysis.Summary
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		scans:    make(chan error, 16),
		analyses: make(chan analysis.Summary, 16),
	}
}

func (s *recordingSurface) BatchFound(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]string(nil), paths...))
}

func (s *recordingSurface) ResultReady(r ImageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *recordingSurface) Progress(int, int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
}

func (s *recordingSurface) ScanFinished(err error) {
	s.scans <- err
}

func (s *recordingSurface) AnalysisFinished(summary analysis.Summary) {
	s.analyses <- summary
}

func (s *recordingSurface) batchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func (s *recordingSurface) waitScan(t *testing.T) error {
	t.Helper()
	select {
	case err := <-s.scans:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("Scan did not finish")
		return nil
	}
}

func (s *recordingSurface) waitAnalysis(t *testing.T) analysis.Summary {
	t.Helper()
	select {
	case summary := <-s.analyses:
		return summary
	case <-time.After(waitTimeout):
		t.Fatal("Analysis did not finish")
		return analysis.Summary{}
	}
}

// signalsFor returns signals that Score maps to exactly score.
func signalsFor(score int) analysis.Signals {
	s := analysis.UnknownSubjects()
	if score >= 40 {
		s.Exposure, s.Contrast = 1, 1
		s.Sharpness = float64(score-40) / 60 * analysis.SharpnessReference
	} else {
		s.Sharpness = float64(score) / 60 * analysis.SharpnessReference
	}
	return s
}

// scoreAnalyzer scores photos from a table keyed by base name. Unlisted
// photos score def.
func scoreAnalyzer(scores map[string]int, def int) analysis.Analyzer {
	return analysis.AnalyzerFunc(func(ctx context.Context, path string) (analysis.Signals, error) {
		score, ok := scores[filepath.Base(path)]
		if !ok {
			score = def
		}
		return signalsFor(score), nil
	})
}

// writePhotos creates empty photo files named IMG_0000.jpg onwards with
// modification times base + offsets[i]. With no offsets the files are a
// minute apart.
func writePhotos(t *testing.T, dir string, n int, offsets ...time.Duration) []string {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	paths := make([]string, n)
	for i := range paths {
		p := filepath.Join(dir, fmt.Sprintf("IMG_%04d.jpg", i))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
		at := base.Add(time.Duration(i) * time.Minute)
		if i < len(offsets) {
			at = base.Add(offsets[i])
		}
		if err := os.Chtimes(p, at, at); err != nil {
			t.Fatalf("Failed to set times on %s: %v", p, err)
		}
		paths[i] = p
	}
	return paths
}

type harness struct {
	c       *Controller
	surface *recordingSurface
	dir     string
	paths   []string
}

func newHarness(t *testing.T, opts Options, analyzer analysis.Analyzer, store Persistence) *harness {
	t.Helper()
	if analyzer == nil {
		analyzer = scoreAnalyzer(nil, 50)
	}
	surface := newRecordingSurface()
	c, err := New(Config{
		Options:     opts,
		Analyzer:    analyzer,
		Persistence: store,
		Surface:     surface,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return &harness{c: c, surface: surface, dir: t.TempDir()}
}

// load writes n photos and scans them.
func (h *harness) load(t *testing.T, n int, offsets ...time.Duration) {
	t.Helper()
	h.paths = writePhotos(t, h.dir, n, offsets...)
	if err := h.c.LoadFolder(h.dir); err != nil {
		t.Fatalf("LoadFolder failed: %v", err)
	}
	if err := h.surface.waitScan(t); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
}

func (h *harness) analyze(t *testing.T, req AnalysisRequest) analysis.Summary {
	t.Helper()
	n, err := h.c.StartAnalysis(req)
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	if n == 0 {
		t.Fatal("StartAnalysis queued nothing")
	}
	return h.surface.waitAnalysis(t)
}

func (h *harness) record(t *testing.T, path string) ImageRecord {
	t.Helper()
	rec, ok := h.c.Record(path)
	if !ok {
		t.Fatalf("No record for %s", path)
	}
	return rec
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// memStore is an in-memory Persistence.
type memStore struct {
	mu    sync.Mutex
	rows  map[string]PartialRecord
	saves []string
	fail  error
}

func newMemStore(rows map[string]PartialRecord) *memStore {
	if rows == nil {
		rows = make(map[string]PartialRecord)
	}
	return &memStore{rows: rows}
}

func (m *memStore) SaveDecision(ctx context.Context, path string, status Status, rating int, color string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[path] = PartialRecord{Status: status, Rating: rating, Color: color}
	m.saves = append(m.saves, path)
	return nil
}

func (m *memStore) FetchFolderData(ctx context.Context, folder string) (map[string]PartialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	prefix := strings.TrimSuffix(folder, string(filepath.Separator)) + string(filepath.Separator)
	out := make(map[string]PartialRecord)
	for p, r := range m.rows {
		if strings.HasPrefix(p, prefix) {
			out[p] = r
		}
	}
	return out, nil
}

func (m *memStore) DeleteDecision(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, path)
	return nil
}

func (m *memStore) row(path string) (PartialRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[path]
	return r, ok
}

func statusPtr(s Status) *Status { return &s }
func intPtr(i int) *int { return &i }
