package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ContentType classifies a saved study resource.
type ContentType string

const (
	ContentArticle  ContentType = "article"
	ContentVideo    ContentType = "video"
	ContentSite     ContentType = "educational_site"
	ContentResource ContentType = "resource"
)

// ContentItem is a link saved to the content hub for later study.
type ContentItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Link        string      `json:"link"`
	Description string      `json:"description,omitempty"`
	Type        ContentType `json:"type"`
	Priority    Priority    `json:"priority"`
	IsRead      bool        `json:"is_read"`
	FolderID    string      `json:"folder_id,omitempty"`
	Tags        []Tag       `json:"tags"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (c ContentItem) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&c.Link, validation.Required, is.URL),
		validation.Field(&c.Type, validation.Required, validation.In(
			ContentArticle, ContentVideo, ContentSite, ContentResource)),
		validation.Field(&c.Priority, validation.Required, validation.In(priorities...)),
	)
}
