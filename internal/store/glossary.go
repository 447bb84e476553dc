package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

// UpsertGlossaryTerm inserts or updates a glossary entry.
func (db *DB) UpsertGlossaryTerm(ctx context.Context, userID string, g models.GlossaryTerm) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO glossary (id, user_id, term, definition, subject, folder_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			term       = excluded.term,
			definition = excluded.definition,
			subject    = excluded.subject,
			folder_id  = excluded.folder_id,
			updated_at = excluded.updated_at
		WHERE glossary.user_id = excluded.user_id
	`, g.ID, userID, g.Term, g.Definition, g.Subject, nullable(g.FolderID), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert glossary term: %w", err)
	}
	return checkUpsert(res, "glossary term")
}

// ListGlossary returns the user's glossary alphabetically.
func (db *DB) ListGlossary(ctx context.Context, userID string) ([]models.GlossaryTerm, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, term, definition, subject, folder_id, created_at, updated_at
		FROM glossary WHERE user_id = ? ORDER BY term COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list glossary: %w", err)
	}
	defer rows.Close()

	out := []models.GlossaryTerm{}
	for rows.Next() {
		var g models.GlossaryTerm
		var folder sql.NullString
		if err := rows.Scan(&g.ID, &g.Term, &g.Definition, &g.Subject, &folder, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.FolderID = folder.String
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry.
func (db *DB) DeleteGlossaryTerm(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "glossary", id, userID)
}
