package main

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"photo-triage/internal/database"
	"photo-triage/internal/triage"
)

// =============================================================================
// Unit Tests
// =============================================================================

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"status", "reset", "last", "DATABASE_DIR"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Usage should mention %q", want)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"status", "status"},
		{"re-set_2", "re-set_2"},
		{"rm -rf /", "rm_-rf__"},
		{"\x1b[31mred", "__31mred"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.input); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseYes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantRest []string
		wantYes  bool
	}{
		{"none", []string{"/photos"}, []string{"/photos"}, false},
		{"long flag", []string{"--yes", "/photos"}, []string{"/photos"}, true},
		{"short flag after folder", []string{"/photos", "-y"}, []string{"/photos"}, true},
		{"empty", nil, []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, yes := parseYes(tt.args)
			if yes != tt.wantYes || !slices.Equal(rest, tt.wantRest) {
				t.Errorf("parseYes(%v) = %v, %v", tt.args, rest, yes)
			}
		})
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

// setupTestDB creates a database holding decisions under /trip and /home.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	ctx := context.Background()
	rows := []struct {
		path   string
		status triage.Status
		rating int
	}{
		{"/trip/a.jpg", triage.StatusKeep, 5},
		{"/trip/b.jpg", triage.StatusReject, 0},
		{"/trip/day2/c.jpg", triage.StatusKeep, 0},
		{"/home/d.jpg", triage.StatusKeep, 0},
	}
	for _, r := range rows {
		if err := db.SaveDecision(ctx, r.path, r.status, r.rating, ""); err != nil {
			t.Fatalf("failed to seed %s: %v", r.path, err)
		}
	}
	return db
}

func TestShowStatusIntegration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	var buf bytes.Buffer
	if err := showStatus(context.Background(), db, "/trip", &buf); err != nil {
		t.Fatalf("showStatus failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Folder:  /trip", "Stored:  3", "Keep:    2", "Reject:  1", "Rated:   1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestFolderArgIntegration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := folderArg(ctx, db, nil); err == nil {
		t.Error("Expected an error with no folder and no history")
	}

	if err := db.SetLastFolder(ctx, "/trip"); err != nil {
		t.Fatal(err)
	}
	got, err := folderArg(ctx, db, nil)
	if err != nil || got != "/trip" {
		t.Errorf("Expected last folder /trip, got %q, %v", got, err)
	}

	got, err = folderArg(ctx, db, []string{"/home/../trip"})
	if err != nil || got != "/trip" {
		t.Errorf("Expected cleaned absolute folder, got %q, %v", got, err)
	}
}

func TestResetFolderIntegration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		yes        bool
		input      string
		wantOK     bool
		wantStored int
	}{
		{"declined", false, "n\n", false, 3},
		{"no answer", false, "", false, 3},
		{"confirmed", false, "y\n", true, 0},
		{"confirmed upper case", false, "YES\n", true, 0},
		{"skip confirmation", true, "", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			ctx := context.Background()
			var out bytes.Buffer

			if ok := resetFolder(ctx, db, "/trip", tt.yes, strings.NewReader(tt.input), &out); ok != tt.wantOK {
				t.Errorf("resetFolder returned %v, want %v (output %q)", ok, tt.wantOK, out.String())
			}
			summary, err := db.FolderSummary(ctx, "/trip")
			if err != nil {
				t.Fatal(err)
			}
			if summary.Total() != tt.wantStored {
				t.Errorf("Expected %d stored decisions, got %d", tt.wantStored, summary.Total())
			}
			other, err := db.FolderSummary(ctx, "/home")
			if err != nil {
				t.Fatal(err)
			}
			if other.Total() != 1 {
				t.Errorf("Reset touched another folder: %+v", other)
			}
		})
	}
}

func TestShowLastIntegration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if !showLast(ctx, db, &buf) || !strings.Contains(buf.String(), "No folder") {
		t.Errorf("Expected no folder message, got %q", buf.String())
	}

	if err := db.SetLastFolder(ctx, "/trip"); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if !showLast(ctx, db, &buf) || strings.TrimSpace(buf.String()) != "/trip" {
		t.Errorf("Expected /trip, got %q", buf.String())
	}
}
