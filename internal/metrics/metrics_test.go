package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Failed to read metric: %v", err)
	}
	switch {
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	case out.Counter != nil:
		return out.Counter.GetValue()
	}
	return 0
}

type fakeStats struct{ stats Stats }

func (f fakeStats) SessionStats() Stats { return f.stats }

func TestCollectorCopiesSessionStats(t *testing.T) {
	c := NewCollector(fakeStats{stats: Stats{
		Pending:     7,
		Keep:        3,
		Reject:      2,
		BurstGroups: 4,
		Duplicates:  1,
		UndoDepth:   5,
		RedoDepth:   2,
		CacheSize:   9,
	}}, time.Hour)

	c.collect()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"pending", value(t, RecordsByStatus.WithLabelValues("pending")), 7},
		{"keep", value(t, RecordsByStatus.WithLabelValues("keep")), 3},
		{"reject", value(t, RecordsByStatus.WithLabelValues("reject")), 2},
		{"bursts", value(t, BurstGroups), 4},
		{"duplicates", value(t, DuplicatesFlagged), 1},
		{"undo", value(t, JournalDepth.WithLabelValues("undo")), 5},
		{"redo", value(t, JournalDepth.WithLabelValues("redo")), 2},
		{"cache", value(t, CacheEntries), 9},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %s=%v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Millisecond)
	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Stop()
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()
	before := value(t, FilesystemStaleErrors.WithLabelValues("stat", "test"))

	obs.ObserveStaleError("stat", "test")
	obs.ObserveRetryAttempt("stat", "test")
	obs.ObserveRetrySuccess("stat", "test")
	obs.ObserveRetryDuration("stat", "test", 0.01)

	if got := value(t, FilesystemStaleErrors.WithLabelValues("stat", "test")); got != before+1 {
		t.Errorf("Expected stale errors to increase by 1, got %v -> %v", before, got)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	ch := make(chan prometheus.Metric, 16)
	AnalysisItemsTotal.Collect(ch)
	close(ch)
	n := 0
	for range ch {
		n++
	}
	if n < 3 {
		t.Errorf("Expected at least 3 analysis outcome series, got %d", n)
	}
}
