package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch imports files created or modified in the vault until ctx is
// cancelled. Removed files are forgotten but their notes are kept.
func (m *Mirror) Watch(ctx context.Context, imp Importer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, m.fs.Root()); err != nil {
		return err
	}
	m.logger.Info("vault: watching", slog.String("root", m.fs.Root()))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("vault: watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			m.handle(ctx, w, imp, ev)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("vault: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func (m *Mirror) handle(ctx context.Context, w *fsnotify.Watcher, imp Importer, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(w, ev.Name); err != nil {
				m.logger.Warn("vault: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			m.importDir(ctx, imp, ev.Name)
			return
		}
	}

	if !isNoteFile(filepath.Base(ev.Name)) {
		return
	}
	p, ok := m.fs.rel(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if _, err := m.importFile(ctx, imp, p); err != nil {
			m.logger.Warn("vault: import failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := m.db.ForgetFile(ctx, p); err != nil {
			m.logger.Warn("vault: forget failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}

// importDir picks up files that were already present in a directory before
// it was watched.
func (m *Mirror) importDir(ctx context.Context, imp Importer, dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isNoteFile(d.Name()) {
			return nil
		}
		rel, ok := m.fs.rel(p)
		if !ok {
			return nil
		}
		if _, err := m.importFile(ctx, imp, rel); err != nil {
			m.logger.Warn("vault: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return nil
	})
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
