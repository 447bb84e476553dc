package studyservice

import (
	"context"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateMindMap stores a new mind map.
func (s *Service) CreateMindMap(ctx context.Context, userID string, m models.MindMap) (models.MindMap, error) {
	now := s.timestamp()
	m.ID = newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.putMindMap(ctx, userID, m, sse.Created)
}

// UpdateMindMap replaces an existing mind map.
func (s *Service) UpdateMindMap(ctx context.Context, userID, id string, m models.MindMap) (models.MindMap, error) {
	existing, err := s.db.GetMindMap(ctx, userID, id)
	if err != nil {
		return models.MindMap{}, err
	}
	m.ID = id
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.timestamp()
	return s.putMindMap(ctx, userID, m, sse.Updated)
}

func (s *Service) saveMindMap(ctx context.Context, userID string, m models.MindMap) error {
	_, err := s.UpdateMindMap(ctx, userID, m.ID, m)
	return err
}

func (s *Service) putMindMap(ctx context.Context, userID string, m models.MindMap, change sse.Change) (models.MindMap, error) {
	if m.Priority == "" {
		m.Priority = models.PriorityMedium
	}
	m.Nodes = lo.Map(nonNil(m.Nodes), func(n models.MindMapNode, _ int) models.MindMapNode {
		if n.ID == "" {
			n.ID = newID()
		}
		return n
	})
	if err := validate(m); err != nil {
		return models.MindMap{}, err
	}
	if err := s.checkFolder(ctx, userID, m.FolderID); err != nil {
		return models.MindMap{}, err
	}
	if err := s.db.UpsertMindMap(ctx, userID, m); err != nil {
		return models.MindMap{}, err
	}
	saved, err := s.db.GetMindMap(ctx, userID, m.ID)
	if err != nil {
		return models.MindMap{}, err
	}
	s.changed(userID, change, KindMindMap, saved.ID)
	return saved, nil
}

// GetMindMap returns one mind map.
func (s *Service) GetMindMap(ctx context.Context, userID, id string) (models.MindMap, error) {
	return s.db.GetMindMap(ctx, userID, id)
}

// ListMindMaps returns every mind map of the user.
func (s *Service) ListMindMaps(ctx context.Context, userID string) ([]models.MindMap, error) {
	maps, err := s.db.ListMindMaps(ctx, userID)
	return nonNil(maps), err
}

// DeleteMindMap removes a mind map.
func (s *Service) DeleteMindMap(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteMindMap(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindMindMap, id)
	return nil
}
