package vault

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/starford/studydesk/internal/checksum"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/store"
	"github.com/starford/studydesk/internal/studyservice"
	"github.com/starford/studydesk/internal/testutil"
)

type fixture struct {
	db     *store.DB
	fs     *FS
	mirror *Mirror
	svc    *studyservice.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.TestDB(t)
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewMirror(fs, db, testutil.Logger())
	svc := studyservice.New(db, studyservice.WithMirror(m), studyservice.WithLogger(testutil.Logger()))
	return fixture{db: db, fs: fs, mirror: m, svc: svc}
}

func TestExportOnCreateAndRemoveOnDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Cells", MainNotes: "mitochondria"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := NotePath("u1", n.ID)
	data, err := f.fs.Read(p)
	if err != nil {
		t.Fatalf("mirror file missing: %v", err)
	}
	if !strings.Contains(string(data), "mitochondria") {
		t.Errorf("file content = %s", data)
	}
	known, _ := f.db.FileChecksum(ctx, p)
	if known != checksum.Sum(data) {
		t.Error("checksum of exported file not recorded")
	}

	if err := f.svc.DeleteCornellNote(ctx, "u1", n.ID); err != nil {
		t.Fatal(err)
	}
	if ok, _ := f.fs.Exists(p); ok {
		t.Error("file should be removed with the note")
	}
}

func TestImportSkipsOwnWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Cells"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := NotePath("u1", n.ID)
	imported, err := f.mirror.importFile(ctx, f.svc, p)
	if err != nil {
		t.Fatal(err)
	}
	if imported {
		t.Error("unchanged file should not be imported")
	}
}

func TestImportExternalEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateTag(ctx, "u1", models.Tag{Name: "Exam"}); err != nil {
		t.Fatal(err)
	}
	n, err := f.svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Cells"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := NotePath("u1", n.ID)
	edited := "---\nid: " + n.ID + "\ntitle: Cell biology\ntags: [exam, unknown]\n---\n\n## Notes\n\nribosomes\n\n## Summary\n\ncells make proteins\n"
	if err := f.fs.Write(p, []byte(edited)); err != nil {
		t.Fatal(err)
	}

	imported, err := f.mirror.importFile(ctx, f.svc, p)
	if err != nil || !imported {
		t.Fatalf("importFile = %v, %v", imported, err)
	}
	got, err := f.svc.GetCornellNote(ctx, "u1", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Cell biology" || got.MainNotes != "ribosomes" || got.Summary != "cells make proteins" {
		t.Errorf("imported note = %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "Exam" {
		t.Errorf("Tags = %+v", got.Tags)
	}
	// the imported file is not rewritten
	data, _ := f.fs.Read(p)
	if string(data) != edited {
		t.Error("import should leave the vault file untouched")
	}
}

func TestSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A note stored without a mirror has no file yet.
	plain := studyservice.New(f.db)
	n, err := plain.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Offline"})
	if err != nil {
		t.Fatal(err)
	}
	// A file dropped into the vault while the process was down.
	if err := f.fs.Write("u2/dropped.md", []byte("# Dropped\n\nnew material\n")); err != nil {
		t.Fatal(err)
	}

	res, err := f.mirror.Sync(ctx, f.svc)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Imported != 1 || res.Exported != 1 || res.Failed != 0 {
		t.Errorf("Sync = %+v", res)
	}
	p, _ := NotePath("u1", n.ID)
	if ok, _ := f.fs.Exists(p); !ok {
		t.Error("missing note was not exported")
	}
	got, err := f.svc.GetCornellNote(ctx, "u2", "dropped")
	if err != nil {
		t.Fatalf("dropped file not imported: %v", err)
	}
	if got.Title != "Dropped" || got.MainNotes != "new material" {
		t.Errorf("dropped note = %+v", got)
	}

	// A second pass has nothing to do.
	res, err = f.mirror.Sync(ctx, f.svc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 0 || res.Exported != 0 {
		t.Errorf("second Sync = %+v", res)
	}
}

func TestWatchImportsChanges(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := f.svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Before"})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- f.mirror.Watch(ctx, f.svc) }()
	// give the watcher time to register directories
	time.Sleep(100 * time.Millisecond)

	p, _ := NotePath("u1", n.ID)
	if err := f.fs.Write(p, []byte("---\ntitle: After\n---\n\n## Notes\n\nedited outside\n")); err != nil {
		t.Fatal(err)
	}
	testutil.Eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		got, err := f.svc.GetCornellNote(ctx, "u1", n.ID)
		return err == nil && got.Title == "After"
	}, "external edit was not imported")

	// New user directories are picked up too.
	if err := f.fs.Write("u9/fresh.md", []byte("# Fresh\n")); err != nil {
		t.Fatal(err)
	}
	testutil.Eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		_, err := f.svc.GetCornellNote(ctx, "u9", "fresh")
		return err == nil
	}, "file in new directory was not imported")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}
