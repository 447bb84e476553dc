package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

// UpsertFolder inserts or updates a folder owned by userID.
func (db *DB) UpsertFolder(ctx context.Context, userID string, f models.Folder) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO folders (id, user_id, name, parent_id, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name      = excluded.name,
			parent_id = excluded.parent_id,
			color     = excluded.color
		WHERE folders.user_id = excluded.user_id
	`, f.ID, userID, f.Name, nullable(f.ParentID), f.Color, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert folder: %w", err)
	}
	return checkUpsert(res, "folder")
}

// GetFolder returns one folder.
func (db *DB) GetFolder(ctx context.Context, userID, id string) (models.Folder, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, parent_id, color, created_at
		FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	f, err := scanFolder(row)
	if err != nil {
		return models.Folder{}, notFound(err, "get folder")
	}
	return f, nil
}

// ListFolders returns every folder owned by userID ordered by name.
func (db *DB) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, parent_id, color, created_at
		FROM folders WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer rows.Close()

	out := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFolder removes a folder and its subtree. Items filed under a removed
// folder are moved to the root.
func (db *DB) DeleteFolder(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "folders", id, userID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(s scanner) (models.Folder, error) {
	var f models.Folder
	var parent sql.NullString
	if err := s.Scan(&f.ID, &f.Name, &parent, &f.Color, &f.CreatedAt); err != nil {
		return models.Folder{}, err
	}
	f.ParentID = parent.String
	return f, nil
}
