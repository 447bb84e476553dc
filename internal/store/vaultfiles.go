package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FileChecksum returns the checksum recorded for a mirrored vault file, or ""
// when the file has never been written or imported.
func (db *DB) FileChecksum(ctx context.Context, path string) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM vault_files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: file checksum: %w", err)
	}
	return cs, nil
}

// SetFileChecksum records the checksum of a mirrored vault file.
func (db *DB) SetFileChecksum(ctx context.Context, path, checksum string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO vault_files (path, checksum) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum
	`, path, checksum)
	if err != nil {
		return fmt.Errorf("store: set file checksum: %w", err)
	}
	return nil
}

// ForgetFile drops the bookkeeping for a vault file.
func (db *DB) ForgetFile(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM vault_files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: forget file: %w", err)
	}
	return nil
}

// NoteOwners lists every user that owns at least one Cornell note.
func (db *DB) NoteOwners(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT user_id FROM cornell_notes ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("store: note owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
