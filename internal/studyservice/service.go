// Package studyservice is the application layer over the record store: it
// assigns ids and timestamps, validates input, keeps the Markdown vault in
// step and announces every change.
package studyservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/metrics"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/observe"
	"github.com/starford/studydesk/internal/sse"
	"github.com/starford/studydesk/internal/store"
)

// Record kinds used in change events and metrics.
const (
	KindFolder       = "folder"
	KindCornell      = "cornell"
	KindMindMap      = "mindmap"
	KindTag          = "tag"
	KindDeck         = "deck"
	KindFlashcard    = "flashcard"
	KindGlossary     = "glossary"
	KindEvent        = "event"
	KindClass        = "class"
	KindConcept      = "concept"
	KindRelationship = "relationship"
	KindContent      = "content"
)

// Events receives change notifications. *sse.Broker satisfies it.
type Events interface {
	Publish(event sse.Event)
	PublishContent(userID string, change sse.Change, kind, id string)
}

// Mirror keeps an external copy of Cornell notes.
type Mirror interface {
	Export(ctx context.Context, userID string, n models.CornellNote) error
	Remove(ctx context.Context, userID, id string) error
}

// Assistant generates study material from text. *ai.Client satisfies it.
type Assistant interface {
	Invoke(ctx context.Context, action ai.Action, text string, count int) (ai.Result, error)
}

// Service implements every study operation for a given user.
type Service struct {
	db        *store.DB
	events    Events
	mirror    Mirror
	assistant Assistant
	logger    *slog.Logger
	now       func() time.Time

	profMu   sync.Mutex
	profiles map[string]*observe.Value[models.Profile]
}

// Option configures a Service.
type Option func(*Service)

// WithEvents sets the change event sink.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithMirror enables mirroring of Cornell notes.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithAssistant sets the AI assistant.
func WithAssistant(a Assistant) Option {
	return func(s *Service) { s.assistant = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service over db.
func New(db *store.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		logger:   slog.Default(),
		now:      time.Now,
		profiles: make(map[string]*observe.Value[models.Profile]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newID() string {
	return uuid.NewString()
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// changed records a mutation in metrics and publishes it.
func (s *Service) changed(userID string, change sse.Change, kind, id string) {
	metrics.TrackContent(kind, string(change))
	if s.events != nil {
		s.events.PublishContent(userID, change, kind, id)
	}
}

// validate wraps a model validation failure as apperr.ErrInvalid.
func validate(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return apperr.Invalid(err)
	}
	return nil
}

// nonNil returns s, or an empty slice for nil.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
