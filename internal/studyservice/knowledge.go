package studyservice

import (
	"context"

	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateConcept stores a new concept on the knowledge map.
func (s *Service) CreateConcept(ctx context.Context, userID string, c models.Concept) (models.Concept, error) {
	now := s.timestamp()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.putConcept(ctx, userID, c, sse.Created)
}

// UpdateConcept replaces an existing concept.
func (s *Service) UpdateConcept(ctx context.Context, userID, id string, c models.Concept) (models.Concept, error) {
	existing, err := s.db.GetConcept(ctx, userID, id)
	if err != nil {
		return models.Concept{}, err
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.timestamp()
	return s.putConcept(ctx, userID, c, sse.Updated)
}

func (s *Service) putConcept(ctx context.Context, userID string, c models.Concept, change sse.Change) (models.Concept, error) {
	if c.Category == "" {
		c.Category = models.CategoryOther
	}
	if c.Difficulty == "" {
		c.Difficulty = models.DifficultyBeginner
	}
	if err := validate(c); err != nil {
		return models.Concept{}, err
	}
	if err := s.checkFolder(ctx, userID, c.FolderID); err != nil {
		return models.Concept{}, err
	}
	if err := s.db.UpsertConcept(ctx, userID, c); err != nil {
		return models.Concept{}, err
	}
	saved, err := s.db.GetConcept(ctx, userID, c.ID)
	if err != nil {
		return models.Concept{}, err
	}
	s.changed(userID, change, KindConcept, saved.ID)
	return saved, nil
}

// GetConcept returns a concept with its incoming and outgoing neighbours.
func (s *Service) GetConcept(ctx context.Context, userID, id string) (models.ConceptWithRelations, error) {
	c, err := s.db.GetConcept(ctx, userID, id)
	if err != nil {
		return models.ConceptWithRelations{}, err
	}
	related, err := s.db.Related(ctx, userID, id)
	if err != nil {
		return models.ConceptWithRelations{}, err
	}
	return models.ConceptWithRelations{Concept: c, Related: nonNil(related)}, nil
}

// ListConcepts returns every concept of the user.
func (s *Service) ListConcepts(ctx context.Context, userID string) ([]models.Concept, error) {
	concepts, err := s.db.ListConcepts(ctx, userID)
	return nonNil(concepts), err
}

// DeleteConcept removes a concept and every relationship touching it.
func (s *Service) DeleteConcept(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteConcept(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindConcept, id)
	return nil
}

// CreateRelationship links two concepts of the user.
func (s *Service) CreateRelationship(ctx context.Context, userID string, r models.Relationship) (models.Relationship, error) {
	r.ID = newID()
	r.CreatedAt = s.timestamp()
	if r.Type == "" {
		r.Type = models.RelRelatedTo
	}
	if err := validate(r); err != nil {
		return models.Relationship{}, err
	}
	if err := s.db.UpsertRelationship(ctx, userID, r); err != nil {
		return models.Relationship{}, err
	}
	s.changed(userID, sse.Created, KindRelationship, r.ID)
	return r, nil
}

// DeleteRelationship removes a relationship.
func (s *Service) DeleteRelationship(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteRelationship(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindRelationship, id)
	return nil
}
