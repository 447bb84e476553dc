// Package ai talks to an OpenAI-compatible chat completions endpoint to
// generate study material from free text.
package ai

import (
	"errors"
	"fmt"

	"github.com/starford/studydesk/internal/models"
)

// Action selects what the assistant produces.
type Action string

const (
	ActionGenerateFlashcards Action = "generate-flashcards"
	ActionSummarizeNotes     Action = "summarize-notes"
	ActionSuggestKeywords    Action = "suggest-keywords"
)

// DefaultFlashcardCount is used when the caller asks for zero or fewer cards.
const DefaultFlashcardCount = 5

// Errors returned by Invoke. None are retried.
var (
	ErrNotConfigured       = errors.New("ai: api key is not configured")
	ErrEmptyText           = errors.New("ai: text is required")
	ErrInvalidAction       = errors.New("ai: invalid action")
	ErrRateLimited         = errors.New("ai: rate limited")
	ErrInsufficientCredits = errors.New("ai: insufficient credits")
	ErrUpstream            = errors.New("ai: upstream failure")
	ErrInvalidResponse     = errors.New("ai: invalid response")
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionGenerateFlashcards, ActionSummarizeNotes, ActionSuggestKeywords:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// SuggestedKeyword is a keyword proposed for a Cornell note.
type SuggestedKeyword struct {
	Text       string `json:"text"`
	Definition string `json:"definition"`
}

// Result holds the structured output of one action. Only the field matching
// the action is set.
type Result struct {
	Flashcards []models.CardPair  `json:"flashcards,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	Keywords   []SuggestedKeyword `json:"keywords,omitempty"`
}

// Message returns the user-facing text for an Invoke error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyText):
		return "Text is required"
	case errors.Is(err, ErrInvalidAction):
		return "Invalid action"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, ErrInsufficientCredits):
		return "Insufficient credits. Add credits to continue."
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from the AI service"
	case errors.Is(err, ErrUpstream):
		return "Error processing the request with AI"
	case errors.Is(err, ErrNotConfigured):
		return "The AI assistant is not available"
	default:
		return "Unknown error"
	}
}
