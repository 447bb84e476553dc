package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

const mindMapColumns = `id, title, central_concept, nodes, priority, folder_id, created_at, updated_at`

// UpsertMindMap inserts or replaces a mind map and its tag set within a transaction.
func (db *DB) UpsertMindMap(ctx context.Context, userID string, m models.MindMap) error {
	nodes := m.Nodes
	if nodes == nil {
		nodes = []models.MindMapNode{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("store: encode nodes: %w", err)
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO mind_maps (id, user_id, title, central_concept, nodes, priority, folder_id,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title           = excluded.title,
				central_concept = excluded.central_concept,
				nodes           = excluded.nodes,
				priority        = excluded.priority,
				folder_id       = excluded.folder_id,
				updated_at      = excluded.updated_at
			WHERE mind_maps.user_id = excluded.user_id
		`, m.ID, userID, m.Title, m.CentralConcept, string(nodesJSON), string(m.Priority),
			nullable(m.FolderID), m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert mind map: %w", err)
		}
		if err := checkUpsert(res, "mind map"); err != nil {
			return err
		}
		return mindMapTags.replace(ctx, tx, m.ID, userID, models.TagIDs(m.Tags))
	})
}

// GetMindMap returns one mind map with its tags.
func (db *DB) GetMindMap(ctx context.Context, userID, id string) (models.MindMap, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mindMapColumns+` FROM mind_maps WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMindMap(row)
	if err != nil {
		return models.MindMap{}, notFound(err, "get mind map")
	}
	if m.Tags, err = mindMapTags.loadOne(ctx, db, m.ID); err != nil {
		return models.MindMap{}, err
	}
	return m, nil
}

// ListMindMaps returns every mind map owned by userID, most recently updated first.
func (db *DB) ListMindMaps(ctx context.Context, userID string) ([]models.MindMap, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+mindMapColumns+` FROM mind_maps WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list mind maps: %w", err)
	}
	defer rows.Close()

	out := []models.MindMap{}
	for rows.Next() {
		m, err := scanMindMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := mindMapTags.load(ctx, db, userID)
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

// DeleteMindMap removes a mind map.
func (db *DB) DeleteMindMap(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "mind_maps", id, userID)
}

func scanMindMap(s scanner) (models.MindMap, error) {
	var m models.MindMap
	var nodesJSON, priority string
	var folder sql.NullString
	if err := s.Scan(&m.ID, &m.Title, &m.CentralConcept, &nodesJSON, &priority, &folder,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return models.MindMap{}, err
	}
	if err := json.Unmarshal([]byte(nodesJSON), &m.Nodes); err != nil {
		return models.MindMap{}, fmt.Errorf("store: decode nodes: %w", err)
	}
	m.Priority = models.Priority(priority)
	m.FolderID = folder.String
	m.Tags = []models.Tag{}
	return m, nil
}
