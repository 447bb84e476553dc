package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CalendarEvent is an exam, assignment or other dated event.
type CalendarEvent struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject,omitempty"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (e CalendarEvent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.StartDate, validation.Required),
		validation.Field(&e.EndDate, validation.By(func(any) error {
			if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
				return validation.NewError("validation_end_before_start", "end date is before start date")
			}
			return nil
		})),
	)
}

// ScheduleClass is a recurring weekly class.
type ScheduleClass struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Weekday   int       `json:"weekday"` // 0 = Sunday
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Room      string    `json:"room,omitempty"`
	Teacher   string    `json:"teacher,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c ScheduleClass) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Subject, validation.Required),
		validation.Field(&c.Weekday, validation.Min(0), validation.Max(6)),
		validation.Field(&c.StartTime, validation.Required, validation.Date("15:04")),
		validation.Field(&c.EndTime, validation.Required, validation.Date("15:04")),
	)
}

// GlossaryTerm is a term with its definition.
type GlossaryTerm struct {
	ID         string    `json:"id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	Subject    string    `json:"subject,omitempty"`
	FolderID   string    `json:"folder_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (g GlossaryTerm) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.ID, validation.Required),
		validation.Field(&g.Term, validation.Required, validation.Length(1, 200)),
		validation.Field(&g.Definition, validation.Required),
	)
}
