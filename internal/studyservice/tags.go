package studyservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// DefaultTagColor is applied to tags created without a color.
const DefaultTagColor = "#3b82f6"

// CreateTag stores a new tag. Tag names are unique per user, ignoring case.
func (s *Service) CreateTag(ctx context.Context, userID string, t models.Tag) (models.Tag, error) {
	t.ID = newID()
	return s.putTag(ctx, userID, t, sse.Created)
}

// UpdateTag renames or recolors a tag.
func (s *Service) UpdateTag(ctx context.Context, userID, id string, t models.Tag) (models.Tag, error) {
	tags, err := s.db.ListTags(ctx, userID)
	if err != nil {
		return models.Tag{}, err
	}
	if !lo.ContainsBy(tags, func(x models.Tag) bool { return x.ID == id }) {
		return models.Tag{}, fmt.Errorf("studyservice: update tag: %w", apperr.ErrNotFound)
	}
	t.ID = id
	return s.putTag(ctx, userID, t, sse.Updated)
}

func (s *Service) putTag(ctx context.Context, userID string, t models.Tag, change sse.Change) (models.Tag, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Color == "" {
		t.Color = DefaultTagColor
	}
	if err := validate(t); err != nil {
		return models.Tag{}, err
	}
	tags, err := s.db.ListTags(ctx, userID)
	if err != nil {
		return models.Tag{}, err
	}
	if lo.ContainsBy(tags, func(x models.Tag) bool {
		return x.ID != t.ID && strings.EqualFold(x.Name, t.Name)
	}) {
		return models.Tag{}, fmt.Errorf("studyservice: tag %q: %w", t.Name, apperr.ErrAlreadyExists)
	}
	if err := s.db.UpsertTag(ctx, userID, t); err != nil {
		return models.Tag{}, err
	}
	s.changed(userID, change, KindTag, t.ID)
	return t, nil
}

// ListTags returns every tag of the user.
func (s *Service) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	tags, err := s.db.ListTags(ctx, userID)
	return nonNil(tags), err
}

// DeleteTag removes a tag from every item that carries it.
func (s *Service) DeleteTag(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteTag(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindTag, id)
	return nil
}
