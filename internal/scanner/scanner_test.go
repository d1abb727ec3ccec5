package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func populate(t *testing.T, dir string, n int, ext string) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("IMG_%04d%s", i, ext))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func collect(t *testing.T, ch <-chan Event) (batches [][]Entry, done []Event) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return batches, done
			}
			if ev.Done {
				done = append(done, ev)
				continue
			}
			if len(done) > 0 {
				t.Errorf("Batch delivered after completion event")
			}
			batches = append(batches, ev.Batch)
		case <-timeout:
			t.Fatal("Scan did not finish")
		}
	}
}

func TestScanBatchesInEnumerationOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := populate(t, dir, 120, ".jpg")
	sort.Strings(want)

	batches, done := collect(t, New(DefaultConfig()).Scan(context.Background(), dir))

	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	for i, size := range []int{50, 50, 20} {
		if len(batches[i]) != size {
			t.Errorf("Expected batch %d to hold %d entries, got %d", i, size, len(batches[i]))
		}
	}
	if len(done) != 1 {
		t.Fatalf("Expected exactly one completion event, got %d", len(done))
	}
	if done[0].Err != nil || done[0].Cancelled {
		t.Errorf("Expected clean completion, got err=%v cancelled=%v", done[0].Err, done[0].Cancelled)
	}
	if done[0].Stats.Files != 120 || done[0].Stats.Batches != 3 {
		t.Errorf("Expected stats 120 files / 3 batches, got %+v", done[0].Stats)
	}

	var got []string
	for _, b := range batches {
		for _, e := range b {
			got = append(got, e.Path)
		}
	}
	// WalkDir enumerates in lexical order.
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestScanFiltersEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	populate(t, dir, 3, ".JPG")
	populate(t, dir, 2, ".txt")
	if err := os.WriteFile(filepath.Join(dir, ".hidden.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "day2")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	populate(t, sub, 4, ".nef")

	tests := []struct {
		name      string
		recursive bool
		want      int
	}{
		{name: "top level only", recursive: false, want: 3},
		{name: "recursive", recursive: true, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Recursive = tt.recursive
			batches, done := collect(t, New(cfg).Scan(context.Background(), dir))

			total := 0
			for _, b := range batches {
				total += len(b)
			}
			if total != tt.want {
				t.Errorf("Expected %d photos, got %d", tt.want, total)
			}
			if len(done) != 1 {
				t.Errorf("Expected one completion event, got %d", len(done))
			}
		})
	}
}

func TestScanFatalErrorReportedOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		root string
	}{
		{name: "missing root", root: filepath.Join(dir, "vanished")},
		{name: "root is a file", root: file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, done := collect(t, New(DefaultConfig()).Scan(context.Background(), tt.root))
			if len(batches) != 0 {
				t.Errorf("Expected no batches, got %d", len(batches))
			}
			if len(done) != 1 || done[0].Err == nil {
				t.Fatalf("Expected a single failed completion, got %+v", done)
			}
		})
	}
}

func TestScanCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	populate(t, dir, 500, ".jpg")

	cfg := DefaultConfig()
	cfg.BatchSize = 10
	cfg.Buffer = 1
	ctx, cancel := context.WithCancel(context.Background())
	ch := New(cfg).Scan(ctx, dir)

	first := <-ch
	if first.Done {
		t.Fatal("Expected a batch before completion")
	}
	cancel()

	batches, done := collect(t, ch)
	if len(done) != 1 {
		t.Fatalf("Expected exactly one completion event, got %d", len(done))
	}
	if !done[0].Cancelled {
		t.Error("Expected completion to report cancellation")
	}
	// At most the batch already buffered when cancel landed may arrive.
	if len(batches) > cfg.Buffer+1 {
		t.Errorf("Expected enumeration to stop promptly, got %d more batches", len(batches))
	}
}

func TestNewFillsDefaults(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	if s.Config().BatchSize != DefaultBatchSize {
		t.Errorf("Expected batch size %d, got %d", DefaultBatchSize, s.Config().BatchSize)
	}
	if s.Config().Buffer <= 0 {
		t.Error("Expected positive buffer")
	}
}
