package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
)

const conceptColumns = `id, title, description, code_example, category, technology, difficulty,
	folder_id, created_at, updated_at`

// UpsertConcept inserts or replaces a knowledge concept and its tag set.
func (db *DB) UpsertConcept(ctx context.Context, userID string, c models.Concept) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO concepts (id, user_id, title, description, code_example, category, technology,
				difficulty, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title        = excluded.title,
				description  = excluded.description,
				code_example = excluded.code_example,
				category     = excluded.category,
				technology   = excluded.technology,
				difficulty   = excluded.difficulty,
				folder_id    = excluded.folder_id,
				updated_at   = excluded.updated_at
			WHERE concepts.user_id = excluded.user_id
		`, c.ID, userID, c.Title, c.Description, c.CodeExample, string(c.Category), c.Technology,
			string(c.Difficulty), nullable(c.FolderID), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert concept: %w", err)
		}
		if err := checkUpsert(res, "concept"); err != nil {
			return err
		}
		return conceptTags.replace(ctx, tx, c.ID, userID, models.TagIDs(c.Tags))
	})
}

// GetConcept returns one concept with its tags.
func (db *DB) GetConcept(ctx context.Context, userID, id string) (models.Concept, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanConcept(row)
	if err != nil {
		return models.Concept{}, notFound(err, "get concept")
	}
	if c.Tags, err = conceptTags.loadOne(ctx, db, c.ID); err != nil {
		return models.Concept{}, err
	}
	return c, nil
}

// ListConcepts returns every concept owned by userID ordered by title.
func (db *DB) ListConcepts(ctx context.Context, userID string) ([]models.Concept, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE user_id = ? ORDER BY title, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list concepts: %w", err)
	}
	defer rows.Close()

	out := []models.Concept{}
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := conceptTags.load(ctx, db, userID)
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

// DeleteConcept removes a concept together with every relationship touching it.
func (db *DB) DeleteConcept(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "concepts", id, userID)
}

// UpsertRelationship links two concepts owned by userID.
func (db *DB) UpsertRelationship(ctx context.Context, userID string, r models.Relationship) error {
	if r.SourceID == r.TargetID {
		return apperr.Invalid(fmt.Errorf("store: concept %q cannot relate to itself", r.SourceID))
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM concepts WHERE user_id = ? AND id IN (?, ?)`,
			userID, r.SourceID, r.TargetID).Scan(&n)
		if err != nil {
			return fmt.Errorf("store: check relationship ends: %w", err)
		}
		if n != 2 {
			return fmt.Errorf("store: relationship ends: %w", apperr.ErrNotFound)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO relationships (id, user_id, source_id, target_id, type, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source_id   = excluded.source_id,
				target_id   = excluded.target_id,
				type        = excluded.type,
				description = excluded.description
			WHERE relationships.user_id = excluded.user_id
		`, r.ID, userID, r.SourceID, r.TargetID, string(r.Type), r.Description, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert relationship: %w", err)
		}
		return checkUpsert(res, "relationship")
	})
}

// DeleteRelationship removes one relationship.
func (db *DB) DeleteRelationship(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "relationships", id, userID)
}

// Related returns every concept linked to id, tagged with the direction of the link.
func (db *DB) Related(ctx context.Context, userID, id string) ([]models.RelatedConcept, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.id, r.source_id, r.target_id, r.type, r.description, r.created_at,
			c.id, c.title, c.description, c.code_example, c.category, c.technology, c.difficulty,
			c.folder_id, c.created_at, c.updated_at,
			CASE WHEN r.source_id = ? THEN 'outgoing' ELSE 'incoming' END
		FROM relationships r
		JOIN concepts c ON c.id = CASE WHEN r.source_id = ? THEN r.target_id ELSE r.source_id END
		WHERE r.user_id = ? AND (r.source_id = ? OR r.target_id = ?)
		ORDER BY r.created_at, r.id`, id, id, userID, id, id)
	if err != nil {
		return nil, fmt.Errorf("store: related concepts: %w", err)
	}
	defer rows.Close()

	out := []models.RelatedConcept{}
	for rows.Next() {
		var rc models.RelatedConcept
		var relType, category, difficulty string
		var folder sql.NullString
		r, c := &rc.Relationship, &rc.Concept
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &relType, &r.Description, &r.CreatedAt,
			&c.ID, &c.Title, &c.Description, &c.CodeExample, &category, &c.Technology, &difficulty,
			&folder, &c.CreatedAt, &c.UpdatedAt, &rc.Direction); err != nil {
			return nil, err
		}
		r.Type = models.RelationshipType(relType)
		c.Category = models.ConceptCategory(category)
		c.Difficulty = models.ConceptDifficulty(difficulty)
		c.FolderID = folder.String
		c.Tags = []models.Tag{}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanConcept(s scanner) (models.Concept, error) {
	var c models.Concept
	var category, difficulty string
	var folder sql.NullString
	if err := s.Scan(&c.ID, &c.Title, &c.Description, &c.CodeExample, &category, &c.Technology,
		&difficulty, &folder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Concept{}, err
	}
	c.Category = models.ConceptCategory(category)
	c.Difficulty = models.ConceptDifficulty(difficulty)
	c.FolderID = folder.String
	c.Tags = []models.Tag{}
	return c, nil
}
