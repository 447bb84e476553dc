package studyservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/checksum"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

const dateLayout = "2006-01-02"

// NoteVersion returns the concurrency token of a note, used as its ETag.
func NoteVersion(n models.CornellNote) string {
	v, err := checksum.Of(n)
	if err != nil {
		return ""
	}
	return v
}

// CreateCornellNote stores a new Cornell note.
func (s *Service) CreateCornellNote(ctx context.Context, userID string, n models.CornellNote) (models.CornellNote, error) {
	now := s.timestamp()
	n.ID = newID()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Date == "" {
		n.Date = now.Format(dateLayout)
	}
	return s.putCornellNote(ctx, userID, n, sse.Created, true)
}

// UpdateCornellNote replaces a note. When ifMatch is non-empty it must equal
// the current NoteVersion or apperr.ErrConflict is returned.
func (s *Service) UpdateCornellNote(ctx context.Context, userID, id string, n models.CornellNote, ifMatch string) (models.CornellNote, error) {
	existing, err := s.db.GetCornellNote(ctx, userID, id)
	if err != nil {
		return models.CornellNote{}, err
	}
	if ifMatch != "" && ifMatch != NoteVersion(existing) {
		return models.CornellNote{}, apperr.ErrConflict
	}
	n.ID = id
	n.CreatedAt = existing.CreatedAt
	n.UpdatedAt = s.timestamp()
	return s.putCornellNote(ctx, userID, n, sse.Updated, true)
}

// ImportCornellNote stores a note read from the vault. The vault copy is not
// rewritten.
func (s *Service) ImportCornellNote(ctx context.Context, userID string, n models.CornellNote) (models.CornellNote, error) {
	change := sse.Updated
	existing, err := s.db.GetCornellNote(ctx, userID, n.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		change = sse.Created
		n.CreatedAt = s.timestamp()
	case err != nil:
		return models.CornellNote{}, err
	default:
		n.CreatedAt = existing.CreatedAt
	}
	n.UpdatedAt = s.timestamp()
	if err := s.checkFolder(ctx, userID, n.FolderID); errors.Is(err, apperr.ErrInvalid) {
		s.logger.Warn("imported note refers to an unknown folder",
			slog.String("user", userID),
			slog.String("note", n.ID),
			slog.String("folder", n.FolderID),
		)
		n.FolderID = ""
	}
	return s.putCornellNote(ctx, userID, n, change, false)
}

// saveCornellNote persists an editor snapshot of an existing note.
func (s *Service) saveCornellNote(ctx context.Context, userID string, n models.CornellNote) error {
	existing, err := s.db.GetCornellNote(ctx, userID, n.ID)
	if err != nil {
		return err
	}
	n.CreatedAt = existing.CreatedAt
	n.UpdatedAt = s.timestamp()
	_, err = s.putCornellNote(ctx, userID, n, sse.Updated, true)
	return err
}

func (s *Service) putCornellNote(ctx context.Context, userID string, n models.CornellNote, change sse.Change, mirror bool) (models.CornellNote, error) {
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	n.Keywords = lo.Map(nonNil(n.Keywords), func(k models.Keyword, _ int) models.Keyword {
		if k.ID == "" {
			k.ID = newID()
		}
		return k
	})
	if err := validate(n); err != nil {
		return models.CornellNote{}, err
	}
	if err := s.checkFolder(ctx, userID, n.FolderID); err != nil {
		return models.CornellNote{}, err
	}
	if err := s.db.UpsertCornellNote(ctx, userID, n); err != nil {
		return models.CornellNote{}, err
	}
	saved, err := s.db.GetCornellNote(ctx, userID, n.ID)
	if err != nil {
		return models.CornellNote{}, err
	}
	if mirror && s.mirror != nil {
		if err := s.mirror.Export(ctx, userID, saved); err != nil {
			s.logger.Warn("mirror export failed",
				slog.String("user", userID),
				slog.String("note", saved.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.changed(userID, change, KindCornell, saved.ID)
	return saved, nil
}

// GetCornellNote returns one note.
func (s *Service) GetCornellNote(ctx context.Context, userID, id string) (models.CornellNote, error) {
	return s.db.GetCornellNote(ctx, userID, id)
}

// ListCornellNotes returns every note of the user, newest first.
func (s *Service) ListCornellNotes(ctx context.Context, userID string) ([]models.CornellNote, error) {
	notes, err := s.db.ListCornellNotes(ctx, userID)
	return nonNil(notes), err
}

// DeleteCornellNote removes a note and its vault copy.
func (s *Service) DeleteCornellNote(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteCornellNote(ctx, userID, id); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, userID, id); err != nil {
			s.logger.Warn("mirror remove failed",
				slog.String("user", userID),
				slog.String("note", id),
				slog.String("error", err.Error()),
			)
		}
	}
	s.changed(userID, sse.Deleted, KindCornell, id)
	return nil
}
