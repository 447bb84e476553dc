package studyservice

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateGlossaryTerm stores a new term.
func (s *Service) CreateGlossaryTerm(ctx context.Context, userID string, g models.GlossaryTerm) (models.GlossaryTerm, error) {
	now := s.timestamp()
	g.ID = newID()
	g.CreatedAt = now
	g.UpdatedAt = now
	return s.putGlossaryTerm(ctx, userID, g, sse.Created)
}

// UpdateGlossaryTerm replaces an existing term.
func (s *Service) UpdateGlossaryTerm(ctx context.Context, userID, id string, g models.GlossaryTerm) (models.GlossaryTerm, error) {
	terms, err := s.db.ListGlossary(ctx, userID)
	if err != nil {
		return models.GlossaryTerm{}, err
	}
	existing, ok := lo.Find(terms, func(x models.GlossaryTerm) bool { return x.ID == id })
	if !ok {
		return models.GlossaryTerm{}, fmt.Errorf("studyservice: update glossary term: %w", apperr.ErrNotFound)
	}
	g.ID = id
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = s.timestamp()
	return s.putGlossaryTerm(ctx, userID, g, sse.Updated)
}

func (s *Service) putGlossaryTerm(ctx context.Context, userID string, g models.GlossaryTerm, change sse.Change) (models.GlossaryTerm, error) {
	if err := validate(g); err != nil {
		return models.GlossaryTerm{}, err
	}
	if err := s.checkFolder(ctx, userID, g.FolderID); err != nil {
		return models.GlossaryTerm{}, err
	}
	if err := s.db.UpsertGlossaryTerm(ctx, userID, g); err != nil {
		return models.GlossaryTerm{}, err
	}
	s.changed(userID, change, KindGlossary, g.ID)
	return g, nil
}

// ListGlossary returns every term of the user in alphabetical order.
func (s *Service) ListGlossary(ctx context.Context, userID string) ([]models.GlossaryTerm, error) {
	terms, err := s.db.ListGlossary(ctx, userID)
	return nonNil(terms), err
}

// DeleteGlossaryTerm removes a term.
func (s *Service) DeleteGlossaryTerm(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteGlossaryTerm(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindGlossary, id)
	return nil
}
