package api

import (
	"github.com/starford/studydesk/internal/models"
)

// CardsRequest is the body of a bulk card insert.
type CardsRequest struct {
	Cards []models.CardPair `json:"cards"`
}

// ImportResponse reports how many rows an import added.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ProfileRequest is the body of a profile update.
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// AssistRequest is the body of an AI assistant call.
type AssistRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}
