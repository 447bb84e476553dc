package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
)

// CorpusSource loads the searchable slice of a user's records.
type CorpusSource interface {
	Corpus(ctx context.Context, userID string) (models.Corpus, error)
}

// Compile-time check.
var _ CorpusSource = (*DB)(nil)

// Corpus loads every note, mind map and tag owned by userID.
func (db *DB) Corpus(ctx context.Context, userID string) (models.Corpus, error) {
	notes, err := db.ListCornellNotes(ctx, userID)
	if err != nil {
		return models.Corpus{}, err
	}
	maps, err := db.ListMindMaps(ctx, userID)
	if err != nil {
		return models.Corpus{}, err
	}
	tags, err := db.ListTags(ctx, userID)
	if err != nil {
		return models.Corpus{}, err
	}
	return models.Corpus{Notes: notes, MindMaps: maps, Tags: tags}, nil
}

// Stats counts the records of every kind owned by userID.
func (db *DB) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var s models.Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"folders", &s.Folders},
		{"cornell_notes", &s.CornellNotes},
		{"mind_maps", &s.MindMaps},
		{"decks", &s.Decks},
		{"flashcards", &s.Flashcards},
		{"glossary", &s.GlossaryTerms},
		{"content_hub", &s.ContentItems},
		{"concepts", &s.Concepts},
		{"calendar_events", &s.Events},
	}
	for _, c := range counts {
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ?`, c.table)
		if err := db.conn.QueryRowContext(ctx, q, userID).Scan(c.dst); err != nil {
			return models.Stats{}, fmt.Errorf("store: count %s: %w", c.table, err)
		}
	}
	return s, nil
}

// nullable maps an empty reference to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// checkUpsert reports a conflict when the keyed row exists under another user.
func checkUpsert(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: upsert %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("store: upsert %s: %w", what, apperr.ErrConflict)
	}
	return nil
}

// checkFound maps a zero-row mutation to ErrNotFound.
func checkFound(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", what, apperr.ErrNotFound)
	}
	return nil
}

// notFound converts sql.ErrNoRows into apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: %s: %w", what, apperr.ErrNotFound)
	}
	return fmt.Errorf("store: %s: %w", what, err)
}

func deleteOwned(ctx context.Context, db *DB, table, id, userID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND user_id = ?`, table)
	res, err := db.conn.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", table, err)
	}
	return checkFound(res, "delete "+table)
}

// tagJoin describes one owner-to-tag join table.
type tagJoin struct {
	table    string
	ownerCol string
}

var (
	noteTags    = tagJoin{"note_tags", "note_id"}
	mindMapTags = tagJoin{"mind_map_tags", "mind_map_id"}
	deckTags    = tagJoin{"deck_tags", "deck_id"}
	conceptTags = tagJoin{"concept_tags", "concept_id"}
	contentTags = tagJoin{"content_hub_tags", "content_id"}
)

// replace swaps the owner's tag set for tagIDs. Tags not owned by userID are ignored.
func (j tagJoin) replace(ctx context.Context, tx *sql.Tx, ownerID, userID string, tagIDs []string) error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, j.table, j.ownerCol)
	if _, err := tx.ExecContext(ctx, del, ownerID); err != nil {
		return fmt.Errorf("store: clear %s: %w", j.table, err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	ins := fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, tag_id)
		SELECT ?, id FROM tags WHERE id = ? AND user_id = ?`, j.table, j.ownerCol)
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		return fmt.Errorf("store: prepare %s insert: %w", j.table, err)
	}
	defer stmt.Close()
	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, ownerID, tagID, userID); err != nil {
			return fmt.Errorf("store: insert %s: %w", j.table, err)
		}
	}
	return nil
}

// load returns the tags of every owner belonging to userID, keyed by owner id.
func (j tagJoin) load(ctx context.Context, db *DB, userID string) (map[string][]models.Tag, error) {
	q := fmt.Sprintf(`SELECT j.%s, t.id, t.name, t.color
		FROM %s j JOIN tags t ON t.id = j.tag_id
		WHERE t.user_id = ?
		ORDER BY t.name`, j.ownerCol, j.table)
	rows, err := db.conn.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", j.table, err)
	}
	defer rows.Close()

	out := make(map[string][]models.Tag)
	for rows.Next() {
		var owner string
		var t models.Tag
		if err := rows.Scan(&owner, &t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], t)
	}
	return out, rows.Err()
}

// loadOne returns the tags attached to a single owner.
func (j tagJoin) loadOne(ctx context.Context, db *DB, ownerID string) ([]models.Tag, error) {
	q := fmt.Sprintf(`SELECT t.id, t.name, t.color
		FROM %s j JOIN tags t ON t.id = j.tag_id
		WHERE j.%s = ?
		ORDER BY t.name`, j.table, j.ownerCol)
	rows, err := db.conn.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", j.table, err)
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
