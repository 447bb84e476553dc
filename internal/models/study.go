// Package models defines the domain types for studydesk.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Priority of a study item.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = []any{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Folder groups study items. Folders nest through ParentID.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (f Folder) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.ParentID, validation.NotIn(f.ID).Error("folder cannot be its own parent")),
	)
}

// Tag labels notes, mind maps, decks and concepts.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (t Tag) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
	)
}

// Keyword is a cue in the left column of a Cornell note.
type Keyword struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Definition string `json:"definition,omitempty"`
}

// CornellNote is a note in the Cornell format: cues, main notes and a summary.
type CornellNote struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subject      string    `json:"subject"`
	Date         string    `json:"date"`
	LessonNumber string    `json:"lesson_number,omitempty"`
	Keywords     []Keyword `json:"keywords"`
	MainNotes    string    `json:"main_notes"`
	Summary      string    `json:"summary"`
	Tags         []Tag     `json:"tags"`
	Priority     Priority  `json:"priority"`
	FolderID     string    `json:"folder_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (n CornellNote) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Title, validation.Length(0, 300)),
		validation.Field(&n.Date, validation.Date("2006-01-02")),
		validation.Field(&n.Priority, validation.In(priorities...)),
		validation.Field(&n.Keywords, validation.Each(validation.By(func(v any) error {
			k, _ := v.(Keyword)
			if k.ID == "" {
				return validation.NewError("validation_keyword_id", "keyword id is required")
			}
			return nil
		}))),
	)
}

// MindMapNode is one node on the mind-map canvas.
type MindMapNode struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ParentID string  `json:"parent_id,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// MindMap is a central concept with a tree of nodes.
type MindMap struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	CentralConcept string        `json:"central_concept"`
	Nodes          []MindMapNode `json:"nodes"`
	Tags           []Tag         `json:"tags"`
	Priority       Priority      `json:"priority"`
	FolderID       string        `json:"folder_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (m MindMap) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Title, validation.Length(0, 300)),
		validation.Field(&m.Priority, validation.In(priorities...)),
	)
}

// TagIDs returns the ids of tags, preserving order.
func TagIDs(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.ID)
	}
	return out
}

// Corpus is the read-only snapshot of a user's notes, mind maps and tags
// that global search runs over.
type Corpus struct {
	Notes    []CornellNote `json:"notes"`
	MindMaps []MindMap     `json:"mind_maps"`
	Tags     []Tag         `json:"tags"`
}
