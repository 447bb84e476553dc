package models

import "time"

// Profile holds per-user display settings.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Streak tracks consecutive study days.
type Streak struct {
	Current       int    `json:"current_streak"`
	Longest       int    `json:"longest_streak"`
	LastStudyDate string `json:"last_study_date,omitempty"` // yyyy-mm-dd
}

// Stats counts a user's study items.
type Stats struct {
	Folders       int `json:"folders"`
	CornellNotes  int `json:"cornell_notes"`
	MindMaps      int `json:"mind_maps"`
	Decks         int `json:"decks"`
	Flashcards    int `json:"flashcards"`
	GlossaryTerms int `json:"glossary_terms"`
	ContentItems  int `json:"content_items"`
	Concepts      int `json:"concepts"`
	Events        int `json:"events"`
}
