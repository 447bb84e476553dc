package store

import (
	"context"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

// UpsertTag inserts or updates a tag owned by userID.
func (db *DB) UpsertTag(ctx context.Context, userID string, t models.Tag) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, color)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name  = excluded.name,
			color = excluded.color
		WHERE tags.user_id = excluded.user_id
	`, t.ID, userID, t.Name, t.Color)
	if err != nil {
		return fmt.Errorf("store: upsert tag: %w", err)
	}
	return checkUpsert(res, "tag")
}

// ListTags returns every tag owned by userID ordered by name.
func (db *DB) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, color FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag and detaches it from everything it labelled.
func (db *DB) DeleteTag(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "tags", id, userID)
}
