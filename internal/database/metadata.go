package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// GetMetadata retrieves a metadata value by key. It returns sql.ErrNoRows
// when the key does not exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Select("value").From("metadata").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build metadata query: %w", err)
	}

	var value sql.NullString
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Insert("metadata").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build metadata upsert: %w", err)
	}
	_, err = d.db.ExecContext(ctx, query, args...)
	return err
}

// LastFolder returns the folder of the most recent session, "" if none.
func (d *Database) LastFolder(ctx context.Context) (string, error) {
	value, err := d.GetMetadata(ctx, "last_folder")
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetLastFolder records the folder of the current session.
func (d *Database) SetLastFolder(ctx context.Context, folder string) error {
	if err := d.SetMetadata(ctx, "last_folder", folder); err != nil {
		return err
	}
	return d.SetMetadata(ctx, "last_folder_at", time.Now().UTC().Format(time.RFC3339))
}
