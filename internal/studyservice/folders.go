package studyservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// CreateFolder stores a new folder. A non-empty ParentID must name an
// existing folder of the same user.
func (s *Service) CreateFolder(ctx context.Context, userID string, f models.Folder) (models.Folder, error) {
	f.ID = newID()
	f.CreatedAt = s.timestamp()
	if err := validate(f); err != nil {
		return models.Folder{}, err
	}
	if err := s.checkParent(ctx, userID, f); err != nil {
		return models.Folder{}, err
	}
	if err := s.db.UpsertFolder(ctx, userID, f); err != nil {
		return models.Folder{}, err
	}
	s.changed(userID, sse.Created, KindFolder, f.ID)
	return f, nil
}

// UpdateFolder renames, recolors or moves a folder.
func (s *Service) UpdateFolder(ctx context.Context, userID, id string, f models.Folder) (models.Folder, error) {
	existing, err := s.db.GetFolder(ctx, userID, id)
	if err != nil {
		return models.Folder{}, err
	}
	f.ID = id
	f.CreatedAt = existing.CreatedAt
	if err := validate(f); err != nil {
		return models.Folder{}, err
	}
	if err := s.checkParent(ctx, userID, f); err != nil {
		return models.Folder{}, err
	}
	if err := s.db.UpsertFolder(ctx, userID, f); err != nil {
		return models.Folder{}, err
	}
	s.changed(userID, sse.Updated, KindFolder, f.ID)
	return f, nil
}

// checkParent rejects a missing parent and a move that would put a folder
// below one of its own descendants.
func (s *Service) checkParent(ctx context.Context, userID string, f models.Folder) error {
	if f.ParentID == "" {
		return nil
	}
	folders, err := s.db.ListFolders(ctx, userID)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(folders))
	for _, x := range folders {
		parents[x.ID] = x.ParentID
	}
	if _, ok := parents[f.ParentID]; !ok {
		return apperr.Invalid(fmt.Errorf("parent folder %q does not exist", f.ParentID))
	}
	for cur := f.ParentID; cur != ""; cur = parents[cur] {
		if cur == f.ID {
			return apperr.Invalid(fmt.Errorf("folder %q cannot move below itself", f.ID))
		}
	}
	return nil
}

// checkFolder rejects a folder id that does not name a folder of userID.
// Another user's folder is reported the same way as a missing one.
func (s *Service) checkFolder(ctx context.Context, userID, folderID string) error {
	if folderID == "" {
		return nil
	}
	_, err := s.db.GetFolder(ctx, userID, folderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid(fmt.Errorf("folder %q does not exist", folderID))
	}
	return err
}

// GetFolder returns one folder.
func (s *Service) GetFolder(ctx context.Context, userID, id string) (models.Folder, error) {
	return s.db.GetFolder(ctx, userID, id)
}

// ListFolders returns every folder of the user.
func (s *Service) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	folders, err := s.db.ListFolders(ctx, userID)
	return nonNil(folders), err
}

// DeleteFolder removes a folder with its subfolders. Items filed in any of
// them are kept and become unfiled.
func (s *Service) DeleteFolder(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteFolder(ctx, userID, id); err != nil {
		return err
	}
	s.changed(userID, sse.Deleted, KindFolder, id)
	return nil
}
