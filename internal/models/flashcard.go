package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Deck is a named collection of flashcards.
type Deck struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FolderID    string    `json:"folder_id,omitempty"`
	Tags        []Tag     `json:"tags"`
	CardCount   int       `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d Deck) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Title, validation.Required, validation.Length(1, 200)),
	)
}

// Flashcard is a question/answer pair inside a deck.
type Flashcard struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Flashcard) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.DeckID, validation.Required),
		validation.Field(&c.Front, validation.Required),
		validation.Field(&c.Back, validation.Required),
	)
}

// CardPair is a front/back pair without identity, as produced by CSV import or the AI assistant.
type CardPair struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
