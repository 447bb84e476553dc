package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

const noteColumns = `id, title, subject, date, lesson_number, keywords, main_notes, summary,
	priority, folder_id, created_at, updated_at`

// UpsertCornellNote inserts or replaces a note and its tag set within a transaction.
func (db *DB) UpsertCornellNote(ctx context.Context, userID string, n models.CornellNote) error {
	keywords := n.Keywords
	if keywords == nil {
		keywords = []models.Keyword{}
	}
	kwJSON, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("store: encode keywords: %w", err)
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO cornell_notes (id, user_id, title, subject, date, lesson_number, keywords,
				main_notes, summary, priority, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title         = excluded.title,
				subject       = excluded.subject,
				date          = excluded.date,
				lesson_number = excluded.lesson_number,
				keywords      = excluded.keywords,
				main_notes    = excluded.main_notes,
				summary       = excluded.summary,
				priority      = excluded.priority,
				folder_id     = excluded.folder_id,
				updated_at    = excluded.updated_at
			WHERE cornell_notes.user_id = excluded.user_id
		`, n.ID, userID, n.Title, n.Subject, n.Date, n.LessonNumber, string(kwJSON),
			n.MainNotes, n.Summary, string(n.Priority), nullable(n.FolderID), n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert note: %w", err)
		}
		if err := checkUpsert(res, "note"); err != nil {
			return err
		}
		return noteTags.replace(ctx, tx, n.ID, userID, models.TagIDs(n.Tags))
	})
}

// GetCornellNote returns one note with its tags.
func (db *DB) GetCornellNote(ctx context.Context, userID, id string) (models.CornellNote, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM cornell_notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row)
	if err != nil {
		return models.CornellNote{}, notFound(err, "get note")
	}
	if n.Tags, err = noteTags.loadOne(ctx, db, n.ID); err != nil {
		return models.CornellNote{}, err
	}
	return n, nil
}

// ListCornellNotes returns every note owned by userID, most recently updated first.
func (db *DB) ListCornellNotes(ctx context.Context, userID string) ([]models.CornellNote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM cornell_notes WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.CornellNote{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := noteTags.load(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if t, ok := tags[out[i].ID]; ok {
			out[i].Tags = t
		}
	}
	return out, nil
}

// DeleteCornellNote removes a note.
func (db *DB) DeleteCornellNote(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "cornell_notes", id, userID)
}

func scanNote(s scanner) (models.CornellNote, error) {
	var n models.CornellNote
	var kwJSON, priority string
	var folder sql.NullString
	if err := s.Scan(&n.ID, &n.Title, &n.Subject, &n.Date, &n.LessonNumber, &kwJSON,
		&n.MainNotes, &n.Summary, &priority, &folder, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.CornellNote{}, err
	}
	if err := json.Unmarshal([]byte(kwJSON), &n.Keywords); err != nil {
		return models.CornellNote{}, fmt.Errorf("store: decode keywords: %w", err)
	}
	n.Priority = models.Priority(priority)
	n.FolderID = folder.String
	n.Tags = []models.Tag{}
	return n, nil
}
