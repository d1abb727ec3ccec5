package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"photo-triage/internal/logging"
	"photo-triage/internal/triage"
)

// Summary counts the stored decisions under a folder by status.
type Summary struct {
	Folder  string `json:"folder"`
	Keep    int    `json:"keep"`
	Reject  int    `json:"reject"`
	Pending int    `json:"pending"`
	Rated   int    `json:"rated"`
}

// Total returns the number of stored decisions in the summary.
func (s Summary) Total() int {
	return s.Keep + s.Reject + s.Pending
}

// SaveDecision stores or replaces the curator decision for path.
func (d *Database) SaveDecision(ctx context.Context, path string, status triage.Status, rating int, color string) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_decision", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Insert("decisions").
		Columns("path", "status", "rating", "color", "updated_at").
		Values(path, string(status), rating, color, time.Now().Unix()).
		Suffix("ON CONFLICT(path) DO UPDATE SET status = excluded.status, rating = excluded.rating, color = excluded.color, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build decision upsert: %w", err)
	}

	if _, err = d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save decision for %s: %w", path, err)
	}
	return nil
}

// DeleteDecision removes the stored decision for path. Deleting a path
// with no stored decision is not an error.
func (d *Database) DeleteDecision(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_decision", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Delete("decisions").Where(sq.Eq{"path": path}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build decision delete: %w", err)
	}
	if _, err = d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete decision for %s: %w", path, err)
	}
	return nil
}

// FetchFolderData returns the stored decisions for files under folder,
// subfolders included, keyed by path.
func (d *Database) FetchFolderData(ctx context.Context, folder string) (out map[string]triage.PartialRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("fetch_folder", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folder = filepath.Clean(folder)
	query, args, err := psql.Select("path", "status", "rating", "color").
		From("decisions").
		Where(underFolder(folder)).
		OrderBy("path").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build folder query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query folder %s: %w", folder, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Error("failed to close rows: %v", closeErr)
		}
	}()

	out = make(map[string]triage.PartialRecord)
	for rows.Next() {
		var (
			path, status, color string
			rating              int
		)
		if err = rows.Scan(&path, &status, &rating, &color); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		st, parseErr := triage.ParseStatus(status)
		if parseErr != nil {
			logging.Warn("Ignoring stored decision for %s: %v", path, parseErr)
			continue
		}
		out[path] = triage.PartialRecord{Status: st, Rating: rating, Color: color}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read decisions: %w", err)
	}
	return out, nil
}

// FolderSummary counts the stored decisions under folder, subfolders
// included.
func (d *Database) FolderSummary(ctx context.Context, folder string) (summary Summary, err error) {
	start := time.Now()
	defer func() { recordQuery("folder_summary", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folder = filepath.Clean(folder)
	summary.Folder = folder

	query, args, err := psql.Select("status", "COUNT(*)", "SUM(CASE WHEN rating > 0 THEN 1 ELSE 0 END)").
		From("decisions").
		Where(underFolder(folder)).
		GroupBy("status").
		ToSql()
	if err != nil {
		return summary, fmt.Errorf("failed to build summary query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return summary, fmt.Errorf("failed to summarize %s: %w", folder, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Error("failed to close rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var (
			status       string
			count, rated int
		)
		if err = rows.Scan(&status, &count, &rated); err != nil {
			return summary, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary.Rated += rated
		switch triage.Status(status) {
		case triage.StatusKeep:
			summary.Keep += count
		case triage.StatusReject:
			summary.Reject += count
		default:
			summary.Pending += count
		}
	}
	return summary, rows.Err()
}

// ResetFolder deletes every stored decision under folder, subfolders
// included, and returns the number removed.
func (d *Database) ResetFolder(ctx context.Context, folder string) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("reset_folder", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folder = filepath.Clean(folder)
	query, args, err := psql.Delete("decisions").Where(underFolder(folder)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build reset query: %w", err)
	}

	var res sql.Result
	if res, err = d.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to reset %s: %w", folder, err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}
	logging.Info("Removed %d stored decisions under %s", n, folder)
	return n, nil
}

// underFolder matches paths below folder. LIKE wildcards in the folder
// name are escaped so "a_b" does not match "axb".
func underFolder(folder string) sq.Sqlizer {
	prefix := strings.TrimSuffix(folder, string(filepath.Separator)) + string(filepath.Separator)
	return sq.Expr("path LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
