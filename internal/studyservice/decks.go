package studyservice

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateDeck stores a new deck.
func (s *Service) CreateDeck(ctx context.Context, userID string, d models.Deck) (models.Deck, error) {
	now := s.timestamp()
	d.ID = newID()
	d.CreatedAt = now
	d.UpdatedAt = now
	return s.putDeck(ctx, userID, d, sse.Created)
}

// UpdateDeck replaces a deck's title, description, folder and tags.
func (s *Service) UpdateDeck(ctx context.Context, userID, id string, d models.Deck) (models.Deck, error) {
	existing, err := s.db.GetDeck(ctx, userID, id)
	if err != nil {
		return models.Deck{}, err
	}
	d.ID = id
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = s.timestamp()
	return s.putDeck(ctx, userID, d, sse.Updated)
}

func (s *Service) putDeck(ctx context.Context, userID string, d models.Deck, change sse.Change) (models.Deck, error) {
	if err := validate(d); err != nil {
		return models.Deck{}, err
	}
	if err := s.checkFolder(ctx, userID, d.FolderID); err != nil {
		return models.Deck{}, err
	}
	if err := s.db.UpsertDeck(ctx, userID, d); err != nil {
		return models.Deck{}, err
	}
	saved, err := s.db.GetDeck(ctx, userID, d.ID)
	if err != nil {
		return models.Deck{}, err
	}
	s.changed(userID, change, KindDeck, saved.ID)
	return saved, nil
}

// GetDeck returns one deck with its card count.
func (s *Service) GetDeck(ctx context.Context, userID, id string) (models.Deck, error) {
	return s.db.GetDeck(ctx, userID, id)
}

// ListDecks returns every deck of the user.
func (s *Service) ListDecks(ctx context.Context, userID string) ([]models.Deck, error) {
	decks, err := s.db.ListDecks(ctx, userID)
	return nonNil(decks), err
}

// DeleteDeck removes a deck together with its cards.
func (s *Service) DeleteDeck(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteDeck(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindDeck, id)
	return nil
}

// ListFlashcards returns the cards of a deck.
func (s *Service) ListFlashcards(ctx context.Context, userID, deckID string) ([]models.Flashcard, error) {
	if _, err := s.db.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := s.db.ListFlashcards(ctx, userID, deckID)
	return nonNil(cards), err
}

// AddFlashcard stores a new card in a deck.
func (s *Service) AddFlashcard(ctx context.Context, userID, deckID string, p models.CardPair) (models.Flashcard, error) {
	cards, err := s.AddFlashcards(ctx, userID, deckID, []models.CardPair{p})
	if err != nil {
		return models.Flashcard{}, err
	}
	return cards[0], nil
}

// AddFlashcards stores several cards in one deck at once, as produced by the
// AI assistant. Either all cards are stored or none.
func (s *Service) AddFlashcards(ctx context.Context, userID, deckID string, pairs []models.CardPair) ([]models.Flashcard, error) {
	now := s.timestamp()
	cards := lo.Map(pairs, func(p models.CardPair, _ int) models.Flashcard {
		return models.Flashcard{
			ID:        newID(),
			DeckID:    deckID,
			Front:     strings.TrimSpace(p.Front),
			Back:      strings.TrimSpace(p.Back),
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
	for _, c := range cards {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	if len(cards) == 0 {
		return []models.Flashcard{}, nil
	}
	if err := s.db.InsertFlashcards(ctx, userID, deckID, cards); err != nil {
		return nil, err
	}
	for _, c := range cards {
		s.changed(userID, sse.Created, KindFlashcard, c.ID)
	}
	return cards, nil
}

// UpdateFlashcard replaces the text of a card.
func (s *Service) UpdateFlashcard(ctx context.Context, userID, deckID, id string, p models.CardPair) (models.Flashcard, error) {
	cards, err := s.ListFlashcards(ctx, userID, deckID)
	if err != nil {
		return models.Flashcard{}, err
	}
	c, ok := lo.Find(cards, func(c models.Flashcard) bool { return c.ID == id })
	if !ok {
		return models.Flashcard{}, fmt.Errorf("studyservice: update card: %w", apperr.ErrNotFound)
	}
	c.Front = strings.TrimSpace(p.Front)
	c.Back = strings.TrimSpace(p.Back)
	c.UpdatedAt = s.timestamp()
	if err := validate(c); err != nil {
		return models.Flashcard{}, err
	}
	if err := s.db.UpsertFlashcard(ctx, userID, c); err != nil {
		return models.Flashcard{}, err
	}
	s.changed(userID, sse.Updated, KindFlashcard, c.ID)
	return c, nil
}

// DeleteFlashcard removes a card.
func (s *Service) DeleteFlashcard(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteFlashcard(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindFlashcard, id)
	return nil
}

// ImportFlashcardsCSV reads "front,back" rows from r into a deck and returns
// how many cards were added. Fields may be quoted with "" as the escape for a
// literal quote. Columns after the second are ignored. Blank lines and rows
// with an empty front or back are skipped. There is no header row.
func (s *Service) ImportFlashcardsCSV(ctx context.Context, userID, deckID string, r io.Reader) (int, error) {
	pairs, err := ParseCardsCSV(r)
	if err != nil {
		return 0, err
	}
	cards, err := s.AddFlashcards(ctx, userID, deckID, pairs)
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

// ParseCardsCSV extracts card pairs from CSV text using the import rules of
// ImportFlashcardsCSV.
func ParseCardsCSV(r io.Reader) ([]models.CardPair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	pairs := []models.CardPair{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pairs, nil
		}
		if err != nil {
			return nil, apperr.Invalid(fmt.Errorf("csv: %w", err))
		}
		if len(rec) < 2 {
			continue
		}
		front, back := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if front == "" || back == "" {
			continue
		}
		pairs = append(pairs, models.CardPair{Front: front, Back: back})
	}
}
