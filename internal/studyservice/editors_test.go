package studyservice

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/autosave"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
	"github.com/starford/studydesk/internal/testutil"
)

// shiftedClock is the wall clock moved forward by a settable offset.
type shiftedClock struct {
	autosave.Clock
	mu     sync.Mutex
	offset time.Duration
}

func (c *shiftedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Clock.Now().Add(c.offset)
}

func (c *shiftedClock) skip(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestEditorDebouncesCornellNote(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc, WithSaveDelay(20*time.Millisecond))

	n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Draft"})
	if err != nil {
		t.Fatal(err)
	}

	st, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n))
	if err != nil {
		t.Fatalf("first Push: %v", err)
	}
	if st.State != autosave.Idle || st.Pending {
		t.Errorf("baseline status = %+v", st)
	}

	for _, body := range []string{"a", "ab", "abc"} {
		n.MainNotes = body
		if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
			t.Fatal(err)
		}
	}

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		got, err := svc.GetCornellNote(ctx, "u1", n.ID)
		return err == nil && got.MainNotes == "abc"
	}, "edit never saved")

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		st, err := eds.Status("u1", EditorCornell, n.ID)
		return err == nil && st.State == autosave.Idle && st.LastSavedAt != nil
	}, "session never returned to idle")

	saved := 0
	for _, typ := range rec.eventTypes() {
		if typ == sse.TypeAutosaveSaved {
			saved++
		}
	}
	if saved == 0 {
		t.Error("autosave.saved not published")
	}
}

func TestEditorCloseFlushes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc, WithSaveDelay(time.Hour))

	m, err := svc.CreateMindMap(ctx, "u1", models.MindMap{Title: "Cells", CentralConcept: "cell"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eds.Push(ctx, "u1", EditorMindMap, m.ID, mustJSON(t, m)); err != nil {
		t.Fatal(err)
	}
	m.Nodes = []models.MindMapNode{{ID: "n1", Text: "nucleus"}}
	st, err := eds.Push(ctx, "u1", EditorMindMap, m.ID, mustJSON(t, m))
	if err != nil {
		t.Fatal(err)
	}
	if st.State != autosave.Pending {
		t.Errorf("state = %v, want pending", st.State)
	}

	if err := eds.Close(ctx, "u1", EditorMindMap, m.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := svc.GetMindMap(ctx, "u1", m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Text != "nucleus" {
		t.Errorf("nodes after close = %+v", got.Nodes)
	}
	if eds.Len() != 0 {
		t.Errorf("Len = %d after close", eds.Len())
	}
	if err := eds.Close(ctx, "u1", EditorMindMap, m.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Close: err = %v", err)
	}
}

func TestEditorPushReopensClosedSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc, WithSaveDelay(20*time.Millisecond))

	n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Draft"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
		t.Fatal(err)
	}

	// Close the coordinator the way Sweep would between a push's lookup and
	// its observe.
	key := editorKey{user: "u1", kind: EditorCornell, id: n.ID}
	eds.mu.Lock()
	stale := eds.sessions[key]
	eds.mu.Unlock()
	<-stale.ed.close()

	n.MainNotes = "written while closing"
	st, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if st.State == autosave.Closed {
		t.Errorf("status after reopen = %+v", st)
	}
	if eds.Len() != 1 {
		t.Errorf("Len = %d, want 1", eds.Len())
	}

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		got, err := svc.GetCornellNote(ctx, "u1", n.ID)
		return err == nil && got.MainNotes == "written while closing"
	}, "edit dropped by closed session")
}

func TestEditorRejectsUnknownRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc)

	if _, err := eds.Push(ctx, "u1", EditorCornell, "missing", []byte(`{}`)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note: err = %v", err)
	}

	n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Mine"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eds.Push(ctx, "u2", EditorCornell, n.ID, mustJSON(t, n)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other user's note: err = %v", err)
	}
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, []byte(`{not json`)); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad snapshot: err = %v", err)
	}
	if _, err := eds.Status("u1", EditorMindMap, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Status of unopened session: err = %v", err)
	}
}

func TestEditorSaveFailurePublished(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc, WithSaveDelay(10*time.Millisecond))

	n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Doomed"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
		t.Fatal(err)
	}
	n.Date = "not a date"
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
		t.Fatal(err)
	}

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		st, err := eds.Status("u1", EditorCornell, n.ID)
		return err == nil && st.State == autosave.Failed && st.Pending && st.LastError != ""
	}, "session never failed")

	found := false
	for _, typ := range rec.eventTypes() {
		found = found || typ == sse.TypeAutosaveFailed
	}
	if !found {
		t.Error("autosave.failed not published")
	}
}

func TestEditorSweepClosesIdleSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	clock := &shiftedClock{Clock: autosave.SystemClock()}
	eds := NewEditors(svc, WithSaveDelay(time.Hour), WithSessionTTL(time.Minute), WithEditorClock(clock))

	n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: "Idle"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
		t.Fatal(err)
	}
	n.Summary = "unsaved"
	if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
		t.Fatal(err)
	}

	if closed := eds.Sweep(); closed != 0 {
		t.Fatalf("fresh session swept")
	}
	clock.skip(2 * time.Minute)
	if closed := eds.Sweep(); closed != 1 {
		t.Fatalf("Sweep closed %d sessions, want 1", closed)
	}

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		got, err := svc.GetCornellNote(ctx, "u1", n.ID)
		return err == nil && got.Summary == "unsaved"
	}, "swept session did not flush")
}

func TestEditorCloseAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	eds := NewEditors(svc, WithSaveDelay(time.Hour))

	var ids []string
	for _, title := range []string{"one", "two"} {
		n, err := svc.CreateCornellNote(ctx, "u1", models.CornellNote{Title: title})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
			t.Fatal(err)
		}
		n.Title = title + "!"
		if _, err := eds.Push(ctx, "u1", EditorCornell, n.ID, mustJSON(t, n)); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.ID)
	}

	if err := eds.CloseAll(ctx); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	for _, id := range ids {
		got, err := svc.GetCornellNote(ctx, "u1", id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title[len(got.Title)-1] != '!' {
			t.Errorf("note %s not flushed: %q", id, got.Title)
		}
	}
}

func TestParseEditorKind(t *testing.T) {
	if k, err := ParseEditorKind("mindmap"); err != nil || k != EditorMindMap {
		t.Errorf("ParseEditorKind(mindmap) = %q, %v", k, err)
	}
	if _, err := ParseEditorKind("deck"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("ParseEditorKind(deck) err = %v", err)
	}
}
