package autosave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock runs due callbacks synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	c  *fakeClock
	id int
	at time.Time
	f  func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), timers: map[int]*fakeTimer{}}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{c: c, id: c.seq, at: c.now.Add(d), f: f}
	c.timers[t.id] = t
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	_, ok := t.c.timers[t.id]
	delete(t.c.timers, t.id)
	return ok
}

// Advance moves time forward and fires every timer that comes due, in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		delete(c.timers, next.id)
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

type draft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type recorder struct {
	mu    sync.Mutex
	saved []draft
	fail  error
}

func (r *recorder) persist(_ context.Context, d draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, d)
	return r.fail
}

func (r *recorder) calls() []draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]draft(nil), r.saved...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(t *testing.T, r *recorder, opts ...Option) (*Coordinator[draft], *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	base := []Option{WithClock(clk), WithLogger(quietLogger())}
	return New(r.persist, append(base, opts...)...), clk
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: ""})
	for _, title := range []string{"A", "An", "Ana", "Anat", "Anatomia"} {
		c.Observe(draft{Title: title})
		clk.Advance(500 * time.Millisecond)
	}
	if n := len(r.calls()); n != 0 {
		t.Fatalf("persist called %d times before quiet period", n)
	}

	clk.Advance(DefaultDelay)
	calls := r.calls()
	if len(calls) != 1 {
		t.Fatalf("persist called %d times, want 1", len(calls))
	}
	if calls[0].Title != "Anatomia" {
		t.Errorf("saved %q, want last snapshot", calls[0].Title)
	}

	st := c.Status()
	if st.State != Idle || st.Pending || st.IsSaving {
		t.Errorf("status = %+v, want idle", st)
	}
	// Last edit at +2s, quiet period of 2s.
	want := time.Date(2024, 1, 1, 12, 0, 4, 0, time.UTC)
	if !st.LastSavedAt.Equal(want) {
		t.Errorf("LastSavedAt = %v, want %v", st.LastSavedAt, want)
	}
}

func TestFirstSnapshotIsBaseline(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "initial"})
	clk.Advance(10 * DefaultDelay)
	<-c.Close()

	if n := len(r.calls()); n != 0 {
		t.Fatalf("persist called %d times, want 0", n)
	}
}

func TestEqualSnapshotDoesNotRearm(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(1500 * time.Millisecond)
	c.Observe(draft{Title: "b"}) // same as pending: timer keeps its deadline
	clk.Advance(600 * time.Millisecond)

	if n := len(r.calls()); n != 1 {
		t.Fatalf("persist called %d times, want 1", n)
	}

	c.Observe(draft{Title: "b"}) // same as persisted
	if st := c.Status(); st.State != Idle || st.Pending {
		t.Errorf("status = %+v, want idle", st)
	}
	clk.Advance(10 * DefaultDelay)
	if n := len(r.calls()); n != 1 {
		t.Errorf("persist called %d times after re-supplying saved snapshot", n)
	}
}

func TestRevertToBaselineCancelsSave(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "ab"})
	if c.Status().State != Pending {
		t.Fatalf("state = %v, want pending", c.Status().State)
	}
	c.Observe(draft{Title: "a"})
	if st := c.Status(); st.State != Idle || st.Pending {
		t.Fatalf("status = %+v, want idle after revert", st)
	}
	clk.Advance(DefaultDelay)
	if n := len(r.calls()); n != 0 {
		t.Errorf("persist called %d times, want 0", n)
	}
}

func TestCloseFlushesPending(t *testing.T) {
	r := &recorder{}
	c, _ := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "a", Body: "unsaved"})
	<-c.Close()

	calls := r.calls()
	if len(calls) != 1 || calls[0].Body != "unsaved" {
		t.Fatalf("calls = %+v, want one flush of pending", calls)
	}
	if c.Status().State != Closed {
		t.Errorf("state = %v, want closed", c.Status().State)
	}

	// Idempotent.
	<-c.Close()
	if n := len(r.calls()); n != 1 {
		t.Errorf("second Close persisted again")
	}
}

func TestCloseWithoutPendingDoesNothing(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)
	<-c.Close()

	if n := len(r.calls()); n != 1 {
		t.Fatalf("persist called %d times, want 1", n)
	}
}

func TestObserveAfterCloseIgnored(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r)
	c.Observe(draft{Title: "a"})
	<-c.Close()

	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)
	if n := len(r.calls()); n != 0 {
		t.Fatalf("persist called %d times after close", n)
	}
}

func TestFailureKeepsPendingWithoutRetry(t *testing.T) {
	r := &recorder{fail: errors.New("db down")}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)

	st := c.Status()
	if st.State != Failed || !st.Pending || st.LastError == nil {
		t.Fatalf("status = %+v, want failed with pending", st)
	}
	if !st.LastSavedAt.IsZero() {
		t.Errorf("LastSavedAt set on failure")
	}
	clk.Advance(10 * DefaultDelay)
	if n := len(r.calls()); n != 1 {
		t.Fatalf("persist called %d times, want no retry", n)
	}

	// The next change re-attempts with the latest state.
	r.mu.Lock()
	r.fail = nil
	r.mu.Unlock()
	c.Observe(draft{Title: "c"})
	clk.Advance(DefaultDelay)
	calls := r.calls()
	if len(calls) != 2 || calls[1].Title != "c" {
		t.Fatalf("calls = %+v", calls)
	}
	if st := c.Status(); st.State != Idle || st.LastError != nil {
		t.Errorf("status = %+v, want idle", st)
	}
}

func TestFailedSnapshotFlushedOnClose(t *testing.T) {
	r := &recorder{fail: errors.New("timeout")}
	c, clk := newTestCoordinator(t, r)

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)
	<-c.Close()

	calls := r.calls()
	if len(calls) != 2 || calls[1].Title != "b" {
		t.Fatalf("calls = %+v, want retry of b on close", calls)
	}
}

func TestEditDuringSaveStaysPending(t *testing.T) {
	clk := newFakeClock()
	var saved []string
	var c *Coordinator[draft]
	c = New(func(_ context.Context, d draft) error {
		saved = append(saved, d.Title)
		if d.Title == "b" {
			c.Observe(draft{Title: "c"}) // arrives while b is in flight
		}
		return nil
	}, WithClock(clk), WithLogger(quietLogger()))

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)

	st := c.Status()
	if st.State != Pending || !st.Pending {
		t.Fatalf("status = %+v, want newer edit still pending", st)
	}
	clk.Advance(DefaultDelay)
	if len(saved) != 2 || saved[1] != "c" {
		t.Fatalf("saved = %v", saved)
	}
	if c.Status().State != Idle {
		t.Errorf("state = %v, want idle", c.Status().State)
	}
}

func TestDisabledIgnoresSnapshots(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r, WithEnabled(false))

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)
	<-c.Close()

	if n := len(r.calls()); n != 0 {
		t.Fatalf("persist called %d times, want 0", n)
	}
}

func TestZeroDelaySavesOnNextTick(t *testing.T) {
	r := &recorder{}
	c, clk := newTestCoordinator(t, r, WithDelay(0))

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(0)
	if n := len(r.calls()); n != 1 {
		t.Fatalf("persist called %d times, want 1", n)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	r := &recorder{}
	var states []State
	c, clk := newTestCoordinator(t, r, WithObserver(func(s Status) { states = append(states, s.State) }))

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "b"})
	clk.Advance(DefaultDelay)
	<-c.Close()

	want := []State{Pending, Saving, Idle, Closed}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestCustomFingerprint(t *testing.T) {
	r := &recorder{}
	// Only the title matters.
	c, clk := newTestCoordinator(t, r, WithFingerprint(func(v any) (string, error) {
		return v.(draft).Title, nil
	}))

	c.Observe(draft{Title: "a"})
	c.Observe(draft{Title: "a", Body: "ignored"})
	clk.Advance(DefaultDelay)
	if n := len(r.calls()); n != 0 {
		t.Fatalf("persist called %d times, want 0", n)
	}
}
