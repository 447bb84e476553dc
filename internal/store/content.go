package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

const contentSelect = `
	SELECT id, title, link, description, type, priority, is_read, folder_id, created_at, updated_at
	FROM content_hub`

// UpsertContentItem inserts or replaces a content hub entry and its tag set.
func (db *DB) UpsertContentItem(ctx context.Context, userID string, c models.ContentItem) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO content_hub (id, user_id, title, link, description, type, priority, is_read, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title       = excluded.title,
				link        = excluded.link,
				description = excluded.description,
				type        = excluded.type,
				priority    = excluded.priority,
				is_read     = excluded.is_read,
				folder_id   = excluded.folder_id,
				updated_at  = excluded.updated_at
			WHERE content_hub.user_id = excluded.user_id
		`, c.ID, userID, c.Title, c.Link, c.Description, string(c.Type), string(c.Priority), c.IsRead,
			nullable(c.FolderID), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert content item: %w", err)
		}
		if err := checkUpsert(res, "content item"); err != nil {
			return err
		}
		return contentTags.replace(ctx, tx, c.ID, userID, models.TagIDs(c.Tags))
	})
}

// GetContentItem returns one content hub entry with its tags.
func (db *DB) GetContentItem(ctx context.Context, userID, id string) (models.ContentItem, error) {
	row := db.conn.QueryRowContext(ctx, contentSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanContentItem(row)
	if err != nil {
		return models.ContentItem{}, notFound(err, "get content item")
	}
	if c.Tags, err = contentTags.loadOne(ctx, db, c.ID); err != nil {
		return models.ContentItem{}, err
	}
	return c, nil
}

// ListContentItems returns the user's content hub, newest first.
func (db *DB) ListContentItems(ctx context.Context, userID string) ([]models.ContentItem, error) {
	rows, err := db.conn.QueryContext(ctx, contentSelect+` WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list content items: %w", err)
	}
	defer rows.Close()

	out := []models.ContentItem{}
	for rows.Next() {
		c, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := contentTags.load(ctx, db, userID)
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

// DeleteContentItem removes a content hub entry.
func (db *DB) DeleteContentItem(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "content_hub", id, userID)
}

func scanContentItem(s scanner) (models.ContentItem, error) {
	var c models.ContentItem
	var typ, priority string
	var folder sql.NullString
	if err := s.Scan(&c.ID, &c.Title, &c.Link, &c.Description, &typ, &priority, &c.IsRead,
		&folder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.ContentItem{}, err
	}
	c.Type = models.ContentType(typ)
	c.Priority = models.Priority(priority)
	c.FolderID = folder.String
	c.Tags = []models.Tag{}
	return c, nil
}
