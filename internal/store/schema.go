// Package store provides the SQLite-backed record store for every study item.
// All rows are scoped by an opaque user id.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Cascade policy: child folders go with their parent, items inside a deleted
// folder are detached to the root, cards go with their deck, tag joins go with
// either side, relationships go with either concept.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	parent_id  TEXT REFERENCES folders(id) ON DELETE CASCADE,
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cornell_notes (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	date          TEXT NOT NULL DEFAULT '',
	lesson_number TEXT NOT NULL DEFAULT '',
	keywords      TEXT NOT NULL DEFAULT '[]',
	main_notes    TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL DEFAULT '',
	priority      TEXT NOT NULL DEFAULT 'medium',
	folder_id     TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id TEXT NOT NULL REFERENCES cornell_notes(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (note_id, tag_id)
);

CREATE TABLE IF NOT EXISTS mind_maps (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	central_concept TEXT NOT NULL DEFAULT '',
	nodes           TEXT NOT NULL DEFAULT '[]',
	priority        TEXT NOT NULL DEFAULT 'medium',
	folder_id       TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mind_map_tags (
	mind_map_id TEXT NOT NULL REFERENCES mind_maps(id) ON DELETE CASCADE,
	tag_id      TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (mind_map_id, tag_id)
);

CREATE TABLE IF NOT EXISTS decks (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	folder_id   TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS deck_tags (
	deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (deck_id, tag_id)
);

CREATE TABLE IF NOT EXISTS flashcards (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	deck_id    TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	front      TEXT NOT NULL,
	back       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS glossary (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	term       TEXT NOT NULL,
	definition TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	folder_id  TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS content_hub (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	link        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT 'article',
	priority    TEXT NOT NULL DEFAULT 'medium',
	is_read     INTEGER NOT NULL DEFAULT 0,
	folder_id   TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS content_hub_tags (
	content_id TEXT NOT NULL REFERENCES content_hub(id) ON DELETE CASCADE,
	tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (content_id, tag_id)
);

CREATE TABLE IF NOT EXISTS calendar_events (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'exam',
	subject    TEXT NOT NULL DEFAULT '',
	start_date DATETIME NOT NULL,
	end_date   DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schedule_classes (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	subject    TEXT NOT NULL,
	weekday    INTEGER NOT NULL,
	start_time TEXT NOT NULL,
	end_time   TEXT NOT NULL,
	room       TEXT NOT NULL DEFAULT '',
	teacher    TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS concepts (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	code_example TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	technology   TEXT NOT NULL DEFAULT '',
	difficulty   TEXT NOT NULL,
	folder_id    TEXT REFERENCES folders(id) ON DELETE SET NULL,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS concept_tags (
	concept_id TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
	tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (concept_id, tag_id)
);

CREATE TABLE IF NOT EXISTS relationships (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	source_id   TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
	target_id   TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id      TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS streaks (
	user_id         TEXT PRIMARY KEY,
	current_streak  INTEGER NOT NULL DEFAULT 0,
	longest_streak  INTEGER NOT NULL DEFAULT 0,
	last_study_date TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS vault_files (
	path     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_folders_user ON folders(user_id);
CREATE INDEX IF NOT EXISTS idx_notes_user ON cornell_notes(user_id);
CREATE INDEX IF NOT EXISTS idx_mind_maps_user ON mind_maps(user_id);
CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id);
CREATE INDEX IF NOT EXISTS idx_decks_user ON decks(user_id);
CREATE INDEX IF NOT EXISTS idx_flashcards_deck ON flashcards(deck_id);
CREATE INDEX IF NOT EXISTS idx_glossary_user ON glossary(user_id);
CREATE INDEX IF NOT EXISTS idx_content_hub_user ON content_hub(user_id);
CREATE INDEX IF NOT EXISTS idx_events_user_start ON calendar_events(user_id, start_date);
CREATE INDEX IF NOT EXISTS idx_classes_user ON schedule_classes(user_id, weekday);
CREATE INDEX IF NOT EXISTS idx_concepts_user ON concepts(user_id);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
`

// DB wraps a sql.DB with record-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
