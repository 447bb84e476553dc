package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
)

const deckSelect = `
	SELECT d.id, d.title, d.description, d.folder_id, d.created_at, d.updated_at,
		(SELECT COUNT(*) FROM flashcards c WHERE c.deck_id = d.id) AS card_count
	FROM decks d`

// UpsertDeck inserts or replaces a deck and its tag set.
func (db *DB) UpsertDeck(ctx context.Context, userID string, d models.Deck) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO decks (id, user_id, title, description, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title       = excluded.title,
				description = excluded.description,
				folder_id   = excluded.folder_id,
				updated_at  = excluded.updated_at
			WHERE decks.user_id = excluded.user_id
		`, d.ID, userID, d.Title, d.Description, nullable(d.FolderID), d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: upsert deck: %w", err)
		}
		if err := checkUpsert(res, "deck"); err != nil {
			return err
		}
		return deckTags.replace(ctx, tx, d.ID, userID, models.TagIDs(d.Tags))
	})
}

// GetDeck returns one deck with its card count and tags.
func (db *DB) GetDeck(ctx context.Context, userID, id string) (models.Deck, error) {
	row := db.conn.QueryRowContext(ctx, deckSelect+` WHERE d.id = ? AND d.user_id = ?`, id, userID)
	d, err := scanDeck(row)
	if err != nil {
		return models.Deck{}, notFound(err, "get deck")
	}
	if d.Tags, err = deckTags.loadOne(ctx, db, d.ID); err != nil {
		return models.Deck{}, err
	}
	return d, nil
}

// ListDecks returns every deck owned by userID, most recently updated first.
func (db *DB) ListDecks(ctx context.Context, userID string) ([]models.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, deckSelect+` WHERE d.user_id = ? ORDER BY d.updated_at DESC, d.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list decks: %w", err)
	}
	defer rows.Close()

	out := []models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := deckTags.load(ctx, db, userID)
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

// DeleteDeck removes a deck together with its cards.
func (db *DB) DeleteDeck(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "decks", id, userID)
}

// UpsertFlashcard inserts or updates a card in a deck owned by userID.
func (db *DB) UpsertFlashcard(ctx context.Context, userID string, c models.Flashcard) error {
	return db.InsertFlashcards(ctx, userID, c.DeckID, []models.Flashcard{c})
}

// InsertFlashcards upserts cards into one deck in a single transaction and
// bumps the deck's updated_at.
func (db *DB) InsertFlashcards(ctx context.Context, userID, deckID string, cards []models.Flashcard) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM decks WHERE id = ?`, deckID).Scan(&owner)
		if err != nil {
			return notFound(err, "deck for cards")
		}
		if owner != userID {
			return fmt.Errorf("store: deck for cards: %w", apperr.ErrNotFound)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO flashcards (id, user_id, deck_id, front, back, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				front      = excluded.front,
				back       = excluded.back,
				updated_at = excluded.updated_at
			WHERE flashcards.user_id = excluded.user_id AND flashcards.deck_id = excluded.deck_id
		`)
		if err != nil {
			return fmt.Errorf("store: prepare card insert: %w", err)
		}
		defer stmt.Close()

		var latest sql.NullTime
		for _, c := range cards {
			res, err := stmt.ExecContext(ctx, c.ID, userID, deckID, c.Front, c.Back, c.CreatedAt, c.UpdatedAt)
			if err != nil {
				return fmt.Errorf("store: upsert card: %w", err)
			}
			if err := checkUpsert(res, "card"); err != nil {
				return err
			}
			if !latest.Valid || c.UpdatedAt.After(latest.Time) {
				latest = sql.NullTime{Time: c.UpdatedAt, Valid: true}
			}
		}
		if latest.Valid {
			if _, err := tx.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`, latest.Time, deckID); err != nil {
				return fmt.Errorf("store: touch deck: %w", err)
			}
		}
		return nil
	})
}

// ListFlashcards returns the cards of a deck in creation order.
func (db *DB) ListFlashcards(ctx context.Context, userID, deckID string) ([]models.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, deck_id, front, back, created_at, updated_at
		FROM flashcards WHERE deck_id = ? AND user_id = ?
		ORDER BY created_at, id`, deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	out := []models.Flashcard{}
	for rows.Next() {
		var c models.Flashcard
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteFlashcard removes one card.
func (db *DB) DeleteFlashcard(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, db, "flashcards", id, userID)
}

func scanDeck(s scanner) (models.Deck, error) {
	var d models.Deck
	var folder sql.NullString
	if err := s.Scan(&d.ID, &d.Title, &d.Description, &folder, &d.CreatedAt, &d.UpdatedAt, &d.CardCount); err != nil {
		return models.Deck{}, err
	}
	d.FolderID = folder.String
	d.Tags = []models.Tag{}
	return d, nil
}
