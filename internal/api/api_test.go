package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
	"github.com/starford/studydesk/internal/studyservice"
	"github.com/starford/studydesk/internal/testutil"
)

// streamStub records which user opened the event stream.
type streamStub struct {
	mu    sync.Mutex
	users []string
}

func (s *streamStub) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	s.users = append(s.users, userID)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
}

type stubAssistant struct {
	err error
}

func (a stubAssistant) Invoke(_ context.Context, action ai.Action, text string, _ int) (ai.Result, error) {
	if a.err != nil {
		return ai.Result{}, a.err
	}
	if strings.TrimSpace(text) == "" {
		return ai.Result{}, ai.ErrEmptyText
	}
	return ai.Result{Summary: "summary of " + text}, nil
}

type env struct {
	svc    *studyservice.Service
	router http.Handler
	stream *streamStub
}

func testEnv(t *testing.T, auth AuthConfig, opts ...studyservice.Option) env {
	t.Helper()
	opts = append([]studyservice.Option{studyservice.WithLogger(testutil.Logger())}, opts...)
	svc := studyservice.New(testutil.TestDB(t), opts...)
	eds := studyservice.NewEditors(svc, studyservice.WithSaveDelay(time.Hour))
	t.Cleanup(func() { _ = eds.CloseAll(context.Background()) })
	stream := &streamStub{}
	router := NewRouter(Deps{
		Service: svc,
		Editors: eds,
		Events:  stream,
		Auth:    auth,
		Logger:  testutil.Logger(),
	})
	return env{svc: svc, router: router, stream: stream}
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetNote(t *testing.T) {
	e := testEnv(t, AuthConfig{})

	w := do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "Hello", Date: "2024-03-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[models.CornellNote](t, w)
	if created.ID == "" {
		t.Fatal("no id assigned")
	}

	w = do(t, e.router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if got := decode[models.CornellNote](t, w); got.Title != "Hello" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	e := testEnv(t, AuthConfig{})

	w := do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "v1"})
	note := decode[models.CornellNote](t, w)
	etag := w.Header().Get("ETag")

	note.Title = "v2"
	w = do(t, e.router, http.MethodPut, "/notes/"+note.ID, note, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("update with fresh etag = %d, body = %s", w.Code, w.Body.String())
	}

	note.Title = "v3"
	w = do(t, e.router, http.MethodPut, "/notes/"+note.ID, note, "If-Match", etag)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale etag = %d, want 409", w.Code)
	}

	w = do(t, e.router, http.MethodPut, "/notes/"+note.ID, note)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestNoteErrors(t *testing.T) {
	e := testEnv(t, AuthConfig{})

	if w := do(t, e.router, http.MethodGet, "/notes/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(t, e.router, http.MethodPut, "/notes/ghost", models.CornellNote{}); w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
	if w := do(t, e.router, http.MethodPost, "/notes", "{broken"); w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
	w := do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Date: "yesterday"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
	if body := decode[errResponse](t, w); body.Error == "" {
		t.Error("validation error has no message")
	}
}

func TestDeleteNote(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	note := decode[models.CornellNote](t, do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "bye"}))

	if w := do(t, e.router, http.MethodDelete, "/notes/"+note.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, e.router, http.MethodDelete, "/notes/"+note.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestDeckCardsAndImport(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	deck := decode[models.Deck](t, do(t, e.router, http.MethodPost, "/decks", models.Deck{Title: "Spanish"}))

	w := do(t, e.router, http.MethodPost, "/decks/"+deck.ID+"/cards", CardsRequest{Cards: []models.CardPair{{Front: "hola", Back: "hello"}}})
	if w.Code != http.StatusCreated {
		t.Fatalf("add cards = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, e.router, http.MethodPost, "/decks/"+deck.ID+"/cards/import", "gato,cat\n\"perro, grande\",big dog\n,\n", "Content-Type", "text/csv")
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[ImportResponse](t, w); got.Imported != 2 {
		t.Errorf("imported = %d, want 2", got.Imported)
	}

	w = do(t, e.router, http.MethodGet, "/decks/"+deck.ID+"/cards", nil)
	cards := decode[map[string][]models.Flashcard](t, w)["cards"]
	if len(cards) != 3 {
		t.Fatalf("cards = %+v", cards)
	}

	w = do(t, e.router, http.MethodPut, "/decks/"+deck.ID+"/cards/"+cards[0].ID, models.CardPair{Front: "hola", Back: "hi"})
	if w.Code != http.StatusOK {
		t.Errorf("update card = %d", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/decks/missing/cards", nil); w.Code != http.StatusNotFound {
		t.Errorf("cards of missing deck = %d", w.Code)
	}
}

func TestCalendarRange(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	for _, start := range []string{"2024-06-01T09:00:00Z", "2024-06-15T09:00:00Z"} {
		body := `{"title":"exam","start_date":"` + start + `"}`
		if w := do(t, e.router, http.MethodPost, "/calendar", body); w.Code != http.StatusCreated {
			t.Fatalf("create event = %d, body = %s", w.Code, w.Body.String())
		}
	}

	w := do(t, e.router, http.MethodGet, "/calendar?from=2024-06-10&to=2024-06-30", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	if events := decode[map[string][]models.CalendarEvent](t, w)["events"]; len(events) != 1 {
		t.Errorf("events = %+v", events)
	}
	if w := do(t, e.router, http.MethodGet, "/calendar?from=soon", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad bound = %d, want 400", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/schedule?weekday=9", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad weekday = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "Golang channels"})

	w := do(t, e.router, http.MethodGet, "/search?q=chan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	resp := decode[search.Response](t, w)
	if len(resp.Results) != 1 || resp.Results[0].Target != search.TargetNotes {
		t.Errorf("results = %+v", resp.Results)
	}

	resp = decode[search.Response](t, do(t, e.router, http.MethodGet, "/search", nil))
	if !resp.Prompt || len(resp.Results) != 0 {
		t.Errorf("blank query = %+v", resp)
	}
}

func TestAssistEndpoint(t *testing.T) {
	e := testEnv(t, AuthConfig{}, studyservice.WithAssistant(stubAssistant{}))

	w := do(t, e.router, http.MethodPost, "/ai/summarize-notes", AssistRequest{Text: "cells"})
	if w.Code != http.StatusOK {
		t.Fatalf("assist = %d, body = %s", w.Code, w.Body.String())
	}
	if res := decode[ai.Result](t, w); res.Summary != "summary of cells" {
		t.Errorf("result = %+v", res)
	}
	if w := do(t, e.router, http.MethodPost, "/ai/write-essay", AssistRequest{Text: "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action = %d, want 400", w.Code)
	}
	if w := do(t, e.router, http.MethodPost, "/ai/summarize-notes", AssistRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty text = %d, want 400", w.Code)
	}

	for _, tc := range []struct {
		err  error
		want int
	}{
		{ai.ErrRateLimited, http.StatusTooManyRequests},
		{ai.ErrInsufficientCredits, http.StatusPaymentRequired},
		{ai.ErrUpstream, http.StatusInternalServerError},
	} {
		e := testEnv(t, AuthConfig{}, studyservice.WithAssistant(stubAssistant{err: tc.err}))
		w := do(t, e.router, http.MethodPost, "/ai/suggest-keywords", AssistRequest{Text: "x"})
		if w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
		if body := decode[errResponse](t, w); body.Error != ai.Message(tc.err) {
			t.Errorf("%v: message = %q", tc.err, body.Error)
		}
	}
}

func TestEditorEndpoints(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	note := decode[models.CornellNote](t, do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "draft"}))
	path := "/editors/cornell/" + note.ID

	if w := do(t, e.router, http.MethodPut, path, note); w.Code != http.StatusOK {
		t.Fatalf("open = %d, body = %s", w.Code, w.Body.String())
	}
	note.MainNotes = "typed"
	w := do(t, e.router, http.MethodPut, path, note)
	if st := decode[studyservice.EditorStatus](t, w); !st.Pending {
		t.Errorf("status after edit = %+v", st)
	}

	if w := do(t, e.router, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("close = %d", w.Code)
	}
	got := decode[models.CornellNote](t, do(t, e.router, http.MethodGet, "/notes/"+note.ID, nil))
	if got.MainNotes != "typed" {
		t.Errorf("close did not flush: %q", got.MainNotes)
	}

	if w := do(t, e.router, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("status after close = %d, want 404", w.Code)
	}
	if w := do(t, e.router, http.MethodPut, "/editors/deck/"+note.ID, note); w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_Token(t *testing.T) {
	e := testEnv(t, AuthConfig{Mode: AuthModeToken, Token: "secret123"})

	if w := do(t, e.router, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/notes", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/notes", nil, "Authorization", "Bearer secret123"); w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

func TestAuthMiddleware_JWTIsolatesUsers(t *testing.T) {
	const secret = "jwt-secret"
	e := testEnv(t, AuthConfig{Mode: AuthModeJWT, JWTSecret: secret})
	alice := signed(t, secret, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()})
	bob := signed(t, secret, jwt.MapClaims{"sub": "bob", "exp": time.Now().Add(time.Hour).Unix()})

	w := do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "private"}, "Authorization", alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("alice create = %d", w.Code)
	}
	note := decode[models.CornellNote](t, w)

	if w := do(t, e.router, http.MethodGet, "/notes/"+note.ID, nil, "Authorization", bob); w.Code != http.StatusNotFound {
		t.Errorf("bob reads alice's note = %d, want 404", w.Code)
	}

	expired := signed(t, secret, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()})
	if w := do(t, e.router, http.MethodGet, "/notes", nil, "Authorization", expired); w.Code != http.StatusUnauthorized {
		t.Errorf("expired = %d, want 401", w.Code)
	}
	forged := signed(t, "other", jwt.MapClaims{"sub": "alice"})
	if w := do(t, e.router, http.MethodGet, "/notes", nil, "Authorization", forged); w.Code != http.StatusUnauthorized {
		t.Errorf("forged = %d, want 401", w.Code)
	}
	anonymous := signed(t, secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if w := do(t, e.router, http.MethodGet, "/notes", nil, "Authorization", anonymous); w.Code != http.StatusUnauthorized {
		t.Errorf("no subject = %d, want 401", w.Code)
	}
}

func TestEventsStreamScopedToUser(t *testing.T) {
	e := testEnv(t, AuthConfig{Mode: AuthModeToken, Token: "tok", UserID: "me"})

	if w := do(t, e.router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("stream without auth = %d, want 401", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/events", nil, "Authorization", "Bearer tok"); w.Code != http.StatusOK {
		t.Errorf("stream = %d", w.Code)
	}
	if len(e.stream.users) != 1 || e.stream.users[0] != "me" {
		t.Errorf("stream opened for %v", e.stream.users)
	}
}

func TestProfileStreakStats(t *testing.T) {
	e := testEnv(t, AuthConfig{})

	w := do(t, e.router, http.MethodPut, "/profile", ProfileRequest{DisplayName: "Ada"})
	if w.Code != http.StatusOK {
		t.Fatalf("profile = %d", w.Code)
	}
	if p := decode[models.Profile](t, do(t, e.router, http.MethodGet, "/profile", nil)); p.DisplayName != "Ada" || p.UserID != DefaultUserID {
		t.Errorf("profile = %+v", p)
	}

	if st := decode[models.Streak](t, do(t, e.router, http.MethodPost, "/streak/check-in", nil)); st.Current != 1 {
		t.Errorf("streak = %+v", st)
	}

	do(t, e.router, http.MethodPost, "/glossary", models.GlossaryTerm{Term: "ATP", Definition: "energy"})
	if st := decode[models.Stats](t, do(t, e.router, http.MethodGet, "/stats", nil)); st.GlossaryTerms != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestConceptWithRelations(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	a := decode[models.Concept](t, do(t, e.router, http.MethodPost, "/concepts", models.Concept{Title: "REST"}))
	b := decode[models.Concept](t, do(t, e.router, http.MethodPost, "/concepts", models.Concept{Title: "HTTP"}))

	w := do(t, e.router, http.MethodPost, "/relationships", models.Relationship{SourceID: a.ID, TargetID: b.ID, Type: models.RelUses})
	if w.Code != http.StatusCreated {
		t.Fatalf("relationship = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[models.ConceptWithRelations](t, do(t, e.router, http.MethodGet, "/concepts/"+a.ID, nil))
	if len(got.Related) != 1 || got.Related[0].Direction != "outgoing" {
		t.Errorf("related = %+v", got.Related)
	}
}

func TestContentHub(t *testing.T) {
	e := testEnv(t, AuthConfig{})

	w := do(t, e.router, http.MethodPost, "/content", models.ContentItem{Title: "Go memory model", Link: "https://go.dev/ref/mem"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	item := decode[models.ContentItem](t, w)
	if item.Type != models.ContentArticle || item.Priority != models.PriorityMedium || item.IsRead {
		t.Errorf("defaults = %+v", item)
	}

	if w := do(t, e.router, http.MethodPost, "/content", models.ContentItem{Title: "x", Link: "not a url"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad link = %d, want 400", w.Code)
	}
	if w := do(t, e.router, http.MethodPost, "/content", models.ContentItem{Title: "x", Link: "https://example.org", Type: "podcast"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad type = %d, want 400", w.Code)
	}

	item.IsRead = true
	if w := do(t, e.router, http.MethodPut, "/content/"+item.ID, item); w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := e.svc.CreateContentItem(context.Background(), DefaultUserID, models.ContentItem{Title: "Later", Link: "https://example.com", Type: models.ContentVideo}); err != nil {
		t.Fatal(err)
	}

	unread := decode[map[string][]models.ContentItem](t, do(t, e.router, http.MethodGet, "/content?unread=true", nil))
	if len(unread["items"]) != 1 || unread["items"][0].Title != "Later" {
		t.Errorf("unread = %+v", unread["items"])
	}

	if w := do(t, e.router, http.MethodDelete, "/content/"+item.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, e.router, http.MethodGet, "/content/"+item.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestForeignFolderRejected(t *testing.T) {
	e := testEnv(t, AuthConfig{})
	folder, err := e.svc.CreateFolder(context.Background(), "someone-else", models.Folder{Name: "Private"})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, e.router, http.MethodPost, "/notes", models.CornellNote{Title: "sneaky", FolderID: folder.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("note in foreign folder = %d, want 400", w.Code)
	}
	w = do(t, e.router, http.MethodPost, "/content", models.ContentItem{Title: "sneaky", Link: "https://example.org", FolderID: folder.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("content in foreign folder = %d, want 400", w.Code)
	}
}
