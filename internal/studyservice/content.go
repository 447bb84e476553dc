package studyservice

import (
	"context"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateContentItem saves a new link to the content hub. Type defaults to
// article and priority to medium.
func (s *Service) CreateContentItem(ctx context.Context, userID string, c models.ContentItem) (models.ContentItem, error) {
	now := s.timestamp()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.putContentItem(ctx, userID, c, sse.Created)
}

// UpdateContentItem replaces a content hub entry, including its read flag.
func (s *Service) UpdateContentItem(ctx context.Context, userID, id string, c models.ContentItem) (models.ContentItem, error) {
	existing, err := s.db.GetContentItem(ctx, userID, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.timestamp()
	return s.putContentItem(ctx, userID, c, sse.Updated)
}

func (s *Service) putContentItem(ctx context.Context, userID string, c models.ContentItem, change sse.Change) (models.ContentItem, error) {
	if c.Type == "" {
		c.Type = models.ContentArticle
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if err := validate(c); err != nil {
		return models.ContentItem{}, err
	}
	if err := s.checkFolder(ctx, userID, c.FolderID); err != nil {
		return models.ContentItem{}, err
	}
	if err := s.db.UpsertContentItem(ctx, userID, c); err != nil {
		return models.ContentItem{}, err
	}
	saved, err := s.db.GetContentItem(ctx, userID, c.ID)
	if err != nil {
		return models.ContentItem{}, err
	}
	s.changed(userID, change, KindContent, saved.ID)
	return saved, nil
}

// GetContentItem returns one content hub entry.
func (s *Service) GetContentItem(ctx context.Context, userID, id string) (models.ContentItem, error) {
	return s.db.GetContentItem(ctx, userID, id)
}

// ListContentItems returns the user's content hub, newest first.
func (s *Service) ListContentItems(ctx context.Context, userID string) ([]models.ContentItem, error) {
	items, err := s.db.ListContentItems(ctx, userID)
	return nonNil(items), err
}

// DeleteContentItem removes a content hub entry.
func (s *Service) DeleteContentItem(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteContentItem(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindContent, id)
	return nil
}
