package studyservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/autosave"
	"github.com/starford/studydesk/internal/metrics"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/sse"
)

// EditorKind names the record type an editor session works on.
type EditorKind string

const (
	EditorCornell EditorKind = KindCornell
	EditorMindMap EditorKind = KindMindMap
)

// DefaultSessionTTL is how long an untouched editor session stays open.
const DefaultSessionTTL = 10 * time.Minute

// ParseEditorKind validates an editor kind from a URL or flag.
func ParseEditorKind(s string) (EditorKind, error) {
	switch k := EditorKind(s); k {
	case EditorCornell, EditorMindMap:
		return k, nil
	}
	return "", apperr.Invalid(fmt.Errorf("unknown editor kind %q", s))
}

// EditorStatus reports the autosave state of one editor session.
type EditorStatus struct {
	Kind        EditorKind     `json:"kind"`
	ID          string         `json:"id"`
	State       autosave.State `json:"state"`
	IsSaving    bool           `json:"is_saving"`
	Pending     bool           `json:"pending"`
	LastSavedAt *time.Time     `json:"last_saved_at,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

type editorKey struct {
	user string
	kind EditorKind
	id   string
}

// editor is an autosave coordinator for one concrete record type.
type editor interface {
	observe(raw []byte) error
	rebase(ctx context.Context) error
	status() autosave.Status
	close() <-chan struct{}
}

type typedEditor[S any] struct {
	coord *autosave.Coordinator[S]
	bind  func(*S)
	load  func(context.Context) (S, error)
}

func (e *typedEditor[S]) observe(raw []byte) error {
	var snap S
	if err := json.Unmarshal(raw, &snap); err != nil {
		return apperr.Invalid(fmt.Errorf("decode snapshot: %w", err))
	}
	e.bind(&snap)
	e.coord.Observe(snap)
	return nil
}

// rebase makes the stored record the session baseline, so the next
// observed snapshot is compared against what is persisted.
func (e *typedEditor[S]) rebase(ctx context.Context) error {
	snap, err := e.load(ctx)
	if err != nil {
		return err
	}
	e.bind(&snap)
	e.coord.Observe(snap)
	return nil
}

func (e *typedEditor[S]) status() autosave.Status { return e.coord.Status() }

func (e *typedEditor[S]) close() <-chan struct{} { return e.coord.Close() }

type session struct {
	ed       editor
	lastUsed time.Time
}

// Editors keeps one autosave session per open editor. Snapshots pushed to a
// session are saved after a quiet period; closing a session flushes any
// unsaved snapshot.
type Editors struct {
	svc    *Service
	delay  time.Duration
	ttl    time.Duration
	clock  autosave.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[editorKey]*session
}

// EditorOption configures Editors.
type EditorOption func(*Editors)

// WithSaveDelay sets the autosave quiet period.
func WithSaveDelay(d time.Duration) EditorOption {
	return func(e *Editors) { e.delay = d }
}

// WithSessionTTL sets how long an untouched session stays open.
func WithSessionTTL(d time.Duration) EditorOption {
	return func(e *Editors) { e.ttl = d }
}

// WithEditorClock replaces the wall clock used for debouncing and expiry.
func WithEditorClock(c autosave.Clock) EditorOption {
	return func(e *Editors) { e.clock = c }
}

// NewEditors returns an empty session table over svc.
func NewEditors(svc *Service, opts ...EditorOption) *Editors {
	e := &Editors{
		svc:      svc,
		delay:    autosave.DefaultDelay,
		ttl:      DefaultSessionTTL,
		clock:    autosave.SystemClock(),
		logger:   svc.logger,
		sessions: make(map[editorKey]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Push feeds the editor's current content. The first push for a record opens
// its session and becomes the baseline; later pushes are saved once the
// editor has been quiet for the save delay.
func (e *Editors) Push(ctx context.Context, userID string, kind EditorKind, id string, raw []byte) (EditorStatus, error) {
	key := editorKey{user: userID, kind: kind, id: id}

	sess, err := e.acquire(ctx, key, false)
	if err != nil {
		return EditorStatus{}, err
	}
	if err := sess.ed.observe(raw); err != nil {
		return EditorStatus{}, err
	}
	if sess.ed.status().State == autosave.Closed {
		// Closed by Close or Sweep after the lookup, so the edit was dropped.
		e.logger.Debug("editor session closed during push, reopening",
			slog.String("editor", string(kind)),
			slog.String("id", id),
		)
		if sess, err = e.acquire(ctx, key, true); err != nil {
			return EditorStatus{}, err
		}
		if err := sess.ed.observe(raw); err != nil {
			return EditorStatus{}, err
		}
	}

	e.mu.Lock()
	sess.lastUsed = e.clock.Now()
	e.mu.Unlock()
	return statusOf(key, sess.ed.status()), nil
}

// acquire returns the open session for key, opening one if there is none.
// A reopened session starts from the stored record instead of waiting for a
// baseline push.
func (e *Editors) acquire(ctx context.Context, key editorKey, reopen bool) (*session, error) {
	e.mu.Lock()
	sess, ok := e.sessions[key]
	e.mu.Unlock()
	if ok && sess.ed.status().State != autosave.Closed {
		return sess, nil
	}

	ed, err := e.open(ctx, key)
	if err != nil {
		return nil, err
	}
	if reopen {
		if err := ed.rebase(ctx); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.sessions[key]; ok {
		if cur.ed.status().State != autosave.Closed {
			return cur, nil
		}
		e.remove(key)
	}
	sess = &session{ed: ed, lastUsed: e.clock.Now()}
	e.sessions[key] = sess
	metrics.EditorSessions.Inc()
	return sess, nil
}

// open checks the record exists and builds a coordinator that persists it.
func (e *Editors) open(ctx context.Context, key editorKey) (editor, error) {
	opts := []autosave.Option{
		autosave.WithDelay(e.delay),
		autosave.WithClock(e.clock),
		autosave.WithLogger(e.logger.With(
			slog.String("editor", string(key.kind)),
			slog.String("id", key.id),
		)),
	}

	switch key.kind {
	case EditorCornell:
		if _, err := e.svc.db.GetCornellNote(ctx, key.user, key.id); err != nil {
			return nil, err
		}
		persist := func(ctx context.Context, n models.CornellNote) error {
			return e.report(key, e.svc.saveCornellNote(ctx, key.user, n))
		}
		return &typedEditor[models.CornellNote]{
			coord: autosave.New(persist, opts...),
			load: func(ctx context.Context) (models.CornellNote, error) {
				return e.svc.db.GetCornellNote(ctx, key.user, key.id)
			},
			bind: func(n *models.CornellNote) {
				n.ID = key.id
				n.CreatedAt, n.UpdatedAt = time.Time{}, time.Time{}
			},
		}, nil
	case EditorMindMap:
		if _, err := e.svc.db.GetMindMap(ctx, key.user, key.id); err != nil {
			return nil, err
		}
		persist := func(ctx context.Context, m models.MindMap) error {
			return e.report(key, e.svc.saveMindMap(ctx, key.user, m))
		}
		return &typedEditor[models.MindMap]{
			coord: autosave.New(persist, opts...),
			load: func(ctx context.Context) (models.MindMap, error) {
				return e.svc.db.GetMindMap(ctx, key.user, key.id)
			},
			bind: func(m *models.MindMap) {
				m.ID = key.id
				m.CreatedAt, m.UpdatedAt = time.Time{}, time.Time{}
			},
		}, nil
	}
	return nil, apperr.Invalid(fmt.Errorf("unknown editor kind %q", key.kind))
}

// report publishes the outcome of one save and passes err through.
func (e *Editors) report(key editorKey, err error) error {
	data := map[string]string{"kind": string(key.kind), "id": key.id}
	if err != nil {
		metrics.TrackAutosave(string(key.kind), "failed")
		data["error"] = err.Error()
		e.publish(sse.Event{Type: sse.TypeAutosaveFailed, User: key.user, Data: data})
		return err
	}
	metrics.TrackAutosave(string(key.kind), "saved")
	data["saved_at"] = e.clock.Now().UTC().Format(time.RFC3339)
	e.publish(sse.Event{Type: sse.TypeAutosaveSaved, User: key.user, Data: data})
	return nil
}

func (e *Editors) publish(ev sse.Event) {
	if e.svc.events != nil {
		e.svc.events.Publish(ev)
	}
}

// Status returns the state of an open session.
func (e *Editors) Status(userID string, kind EditorKind, id string) (EditorStatus, error) {
	key := editorKey{user: userID, kind: kind, id: id}
	e.mu.Lock()
	sess, ok := e.sessions[key]
	e.mu.Unlock()
	if !ok {
		return EditorStatus{}, fmt.Errorf("studyservice: editor session: %w", apperr.ErrNotFound)
	}
	return statusOf(key, sess.ed.status()), nil
}

// Close ends a session, waiting until any unsaved snapshot has been flushed
// or ctx is done.
func (e *Editors) Close(ctx context.Context, userID string, kind EditorKind, id string) error {
	key := editorKey{user: userID, kind: kind, id: id}
	e.mu.Lock()
	sess, ok := e.sessions[key]
	if ok {
		e.remove(key)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("studyservice: editor session: %w", apperr.ErrNotFound)
	}
	return wait(ctx, sess.ed.close())
}

// Sweep closes every session untouched for longer than the session TTL and
// returns how many were closed. Their flushes are not awaited.
func (e *Editors) Sweep() int {
	cutoff := e.clock.Now().Add(-e.ttl)
	var stale []*session

	e.mu.Lock()
	for key, sess := range e.sessions {
		if sess.lastUsed.Before(cutoff) {
			stale = append(stale, sess)
			e.remove(key)
		}
	}
	e.mu.Unlock()

	for _, sess := range stale {
		sess.ed.close()
	}
	if len(stale) > 0 {
		e.logger.Info("closed idle editor sessions", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps idle sessions until ctx is cancelled.
func (e *Editors) Run(ctx context.Context) error {
	interval := e.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep()
		}
	}
}

// CloseAll ends every session and waits for their flushes or for ctx.
func (e *Editors) CloseAll(ctx context.Context) error {
	e.mu.Lock()
	all := make([]*session, 0, len(e.sessions))
	for key, sess := range e.sessions {
		all = append(all, sess)
		e.remove(key)
	}
	e.mu.Unlock()

	for _, sess := range all {
		if err := wait(ctx, sess.ed.close()); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of open sessions.
func (e *Editors) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// remove drops a session from the table. Caller holds mu.
func (e *Editors) remove(key editorKey) {
	delete(e.sessions, key)
	metrics.EditorSessions.Dec()
}

func wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func statusOf(key editorKey, st autosave.Status) EditorStatus {
	out := EditorStatus{
		Kind:     key.kind,
		ID:       key.id,
		State:    st.State,
		IsSaving: st.IsSaving,
		Pending:  st.Pending,
	}
	if !st.LastSavedAt.IsZero() {
		t := st.LastSavedAt
		out.LastSavedAt = &t
	}
	if st.LastError != nil {
		out.LastError = st.LastError.Error()
	}
	return out
}
