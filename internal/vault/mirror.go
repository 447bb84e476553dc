// Package vault mirrors Cornell notes to a directory of Markdown files and
// imports edits made to those files back into the store.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/samber/lo"

	"github.com/starford/studydesk/internal/checksum"
	"github.com/starford/studydesk/internal/metrics"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/store"
)

// ErrBadSegment is returned for user or note IDs that cannot name a file.
var ErrBadSegment = errors.New("vault: invalid path segment")

// Importer receives notes read back from the vault.
type Importer interface {
	ImportCornellNote(ctx context.Context, userID string, n models.CornellNote) (models.CornellNote, error)
	ListCornellNotes(ctx context.Context, userID string) ([]models.CornellNote, error)
	ListTags(ctx context.Context, userID string) ([]models.Tag, error)
}

// Mirror writes notes to <root>/<user>/<id>.md and keeps the checksum of
// every file it writes or imports, so its own writes are not imported again.
type Mirror struct {
	fs     *FS
	db     *store.DB
	logger *slog.Logger
}

// NewMirror returns a mirror rooted at fs.
func NewMirror(fs *FS, db *store.DB, logger *slog.Logger) *Mirror {
	return &Mirror{fs: fs, db: db, logger: logger}
}

// NotePath returns the vault path of a note.
func NotePath(userID, id string) (string, error) {
	for _, s := range []string{userID, id} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || strings.HasPrefix(s, ".") {
			return "", fmt.Errorf("%w: %q", ErrBadSegment, s)
		}
	}
	return path.Join(userID, id+".md"), nil
}

// parsePath splits a vault path back into user and note ID.
func parsePath(p string) (userID, id string, ok bool) {
	dir, file := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || strings.Contains(dir, "/") || !isNoteFile(file) {
		return "", "", false
	}
	return dir, strings.TrimSuffix(file, ".md"), true
}

// Export writes the Markdown form of n. The checksum is recorded before the
// file appears so the watcher recognises the write as its own.
func (m *Mirror) Export(ctx context.Context, userID string, n models.CornellNote) error {
	p, err := NotePath(userID, n.ID)
	if err != nil {
		return err
	}
	data, err := Render(n)
	if err != nil {
		return err
	}
	if err := m.db.SetFileChecksum(ctx, p, checksum.Sum(data)); err != nil {
		return err
	}
	if err := m.fs.Write(p, data); err != nil {
		_ = m.db.ForgetFile(ctx, p)
		return err
	}
	m.logger.Debug("vault: exported", slog.String("path", p))
	return nil
}

// Remove deletes the file of a deleted note.
func (m *Mirror) Remove(ctx context.Context, userID, id string) error {
	p, err := NotePath(userID, id)
	if err != nil {
		return err
	}
	if err := m.fs.Delete(p); err != nil {
		return err
	}
	return m.db.ForgetFile(ctx, p)
}

// importFile reads one vault file and stores it unless its checksum matches
// the last one recorded. It reports whether anything was imported.
func (m *Mirror) importFile(ctx context.Context, imp Importer, p string) (bool, error) {
	userID, stem, ok := parsePath(p)
	if !ok {
		return false, nil
	}
	data, err := m.fs.Read(p)
	if err != nil {
		return false, err
	}
	sum := checksum.Sum(data)
	known, err := m.db.FileChecksum(ctx, p)
	if err != nil {
		return false, err
	}
	if known == sum {
		metrics.VaultImportsTotal.WithLabelValues("skipped").Inc()
		return false, nil
	}

	doc, err := Parse(data)
	if err != nil {
		metrics.VaultImportsTotal.WithLabelValues("failed").Inc()
		return false, err
	}
	n := doc.Note
	// The file name is authoritative so one file cannot overwrite another note.
	if n.ID != "" && n.ID != stem {
		m.logger.Warn("vault: id mismatch, using file name",
			slog.String("path", p),
			slog.String("id", n.ID),
		)
	}
	n.ID = stem
	if n.Tags, err = m.resolveTags(ctx, imp, userID, doc.TagNames); err != nil {
		return false, err
	}

	if _, err := imp.ImportCornellNote(ctx, userID, n); err != nil {
		metrics.VaultImportsTotal.WithLabelValues("failed").Inc()
		return false, err
	}
	if err := m.db.SetFileChecksum(ctx, p, sum); err != nil {
		return false, err
	}
	metrics.VaultImportsTotal.WithLabelValues("imported").Inc()
	m.logger.Info("vault: imported", slog.String("path", p), slog.String("user", userID))
	return true, nil
}

// resolveTags maps frontmatter tag names to the user's tags.
func (m *Mirror) resolveTags(ctx context.Context, imp Importer, userID string, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}
	tags, err := imp.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ResolveTags(tags, names), nil
}

// ResolveTags picks the tags named in names, matching case-insensitively.
// Unknown names are dropped.
func ResolveTags(tags []models.Tag, names []string) []models.Tag {
	out := []models.Tag{}
	for _, name := range lo.Uniq(names) {
		name = strings.TrimSpace(name)
		if t, ok := lo.Find(tags, func(t models.Tag) bool { return strings.EqualFold(t.Name, name) }); ok {
			out = append(out, t)
		}
	}
	return lo.UniqBy(out, func(t models.Tag) string { return t.ID })
}
