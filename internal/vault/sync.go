package vault

import (
	"context"
	"fmt"
	"log/slog"
)

// SyncResult counts what a Sync pass did.
type SyncResult struct {
	Imported int
	Exported int
	Failed   int
}

// Sync reconciles the vault with the store at startup. Files edited while the
// process was down are imported first, then every note without a file is
// exported.
func (m *Mirror) Sync(ctx context.Context, imp Importer) (SyncResult, error) {
	var res SyncResult

	paths, err := m.fs.List()
	if err != nil {
		return res, err
	}
	for _, p := range paths {
		imported, err := m.importFile(ctx, imp, p)
		if err != nil {
			res.Failed++
			m.logger.Warn("vault: sync import failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if imported {
			res.Imported++
		}
	}

	users, err := m.db.NoteOwners(ctx)
	if err != nil {
		return res, err
	}
	for _, userID := range users {
		notes, err := imp.ListCornellNotes(ctx, userID)
		if err != nil {
			return res, fmt.Errorf("vault: sync: %w", err)
		}
		for _, n := range notes {
			p, err := NotePath(userID, n.ID)
			if err != nil {
				res.Failed++
				continue
			}
			ok, err := m.fs.Exists(p)
			if err != nil {
				return res, err
			}
			if ok {
				continue
			}
			if err := m.Export(ctx, userID, n); err != nil {
				res.Failed++
				m.logger.Warn("vault: sync export failed", slog.String("path", p), slog.String("error", err.Error()))
				continue
			}
			res.Exported++
		}
	}

	m.logger.Info("vault: sync complete",
		slog.Int("imported", res.Imported),
		slog.Int("exported", res.Exported),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}
