// Package autosave debounces persistence of editable state.
//
// A Coordinator is fed every snapshot the editor produces. The first one is
// the baseline and is never saved. Later snapshots that differ from what is
// already known are held as pending until the editor has been quiet for the
// configured delay, then handed to the persist callback. Close flushes a
// still-pending snapshot one last time without waiting for it.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/studydesk/internal/checksum"
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = 2 * time.Second

// PersistFunc stores a snapshot. It should be an idempotent upsert: saves of
// successive snapshots may overlap with a final flush.
type PersistFunc[S any] func(ctx context.Context, snapshot S) error

// Status is a point-in-time view of a Coordinator.
type Status struct {
	State       State
	IsSaving    bool
	LastSavedAt time.Time // zero until the first successful save
	Pending     bool
	LastError   error
}

type settings struct {
	delay       time.Duration
	enabled     bool
	clock       Clock
	logger      *slog.Logger
	observer    func(Status)
	fingerprint func(any) (string, error)
}

// Option configures a Coordinator.
type Option func(*settings)

// WithDelay sets the debounce window. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(s *settings) {
		if d < 0 {
			d = 0
		}
		s.delay = d
	}
}

// WithEnabled turns the coordinator on or off. A disabled coordinator ignores
// every snapshot.
func WithEnabled(enabled bool) Option {
	return func(s *settings) { s.enabled = enabled }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithLogger sets the logger used to report persist failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithFingerprint replaces the structural equality used to detect changes.
// Two snapshots are equal when fn returns the same string for both.
func WithFingerprint(fn func(snapshot any) (string, error)) Option {
	return func(s *settings) { s.fingerprint = fn }
}

// WithObserver registers fn to receive the status after every state change.
// fn runs outside the coordinator's lock and must not block for long.
func WithObserver(fn func(Status)) Option {
	return func(s *settings) { s.observer = fn }
}

// Coordinator debounces saves of snapshots of type S.
type Coordinator[S any] struct {
	persist PersistFunc[S]
	settings

	mu          sync.Mutex
	state       State
	seen        bool
	baseline    string // fingerprint of the last persisted snapshot, or of the first one seen
	pending     *S
	pendingFP   string
	pendingSeq  uint64
	timer       Timer
	gen         uint64
	saving      bool
	rerun       bool
	lastSavedAt time.Time
	lastErr     error
	closed      bool
}

// New returns a Coordinator that calls persist with the latest snapshot
// after each quiet period. Snapshots are compared by the SHA-256 of their
// JSON encoding unless WithFingerprint is supplied.
func New[S any](persist PersistFunc[S], opts ...Option) *Coordinator[S] {
	s := settings{
		delay:       DefaultDelay,
		enabled:     true,
		clock:       realClock{},
		logger:      slog.Default(),
		fingerprint: checksum.Of,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Coordinator[S]{persist: persist, settings: s}
}

// Observe feeds the current snapshot to the coordinator.
func (c *Coordinator[S]) Observe(snapshot S) {
	if !c.enabled {
		return
	}

	fp, err := c.fingerprint(snapshot)
	if err != nil {
		// Unhashable snapshots always count as changes.
		c.logger.Warn("autosave: fingerprint failed", slog.String("error", err.Error()))
		fp = ""
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.seen {
		c.seen = true
		c.baseline = fp
		c.mu.Unlock()
		return
	}

	known := c.baseline
	if c.pending != nil {
		known = c.pendingFP
	}
	if fp != "" && fp == known {
		c.mu.Unlock()
		return
	}

	if fp != "" && fp == c.baseline && !c.saving {
		// Edits undone before any save started: nothing left to write.
		c.stopTimer()
		c.pending = nil
		c.pendingFP = ""
		c.apply(Reverted)
		st := c.statusLocked()
		c.mu.Unlock()
		c.notify(st)
		return
	}

	snap := snapshot
	c.pending = &snap
	c.pendingFP = fp
	c.pendingSeq++
	c.stopTimer()
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.delay, func() { c.fire(gen) })
	c.apply(Changed)
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Status returns the current status.
func (c *Coordinator[S]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Close cancels the debounce timer and, when a snapshot newer than the last
// persisted one is pending, persists it once more. The flush is not awaited;
// the returned channel is closed when it has finished (immediately when
// there was nothing to flush). Close is idempotent.
func (c *Coordinator[S]) Close() <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(done)
		return done
	}
	c.closed = true
	c.stopTimer()

	var flush *S
	if c.pending != nil && (c.pendingFP == "" || c.pendingFP != c.baseline) {
		flush = c.pending
	}
	c.apply(CloseRequested)
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	if flush == nil {
		close(done)
		return done
	}

	snap := *flush
	go func() {
		defer close(done)
		if err := c.persist(context.Background(), snap); err != nil {
			c.logger.Error("autosave: final flush failed", slog.String("error", err.Error()))
		}
	}()
	return done
}

// fire runs when the debounce timer for generation gen expires.
func (c *Coordinator[S]) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.saving {
		// One save at a time; the newer snapshot goes out when the current one returns.
		c.rerun = true
		c.mu.Unlock()
		return
	}
	snap, fp, seq := c.begin()
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	c.save(snap, fp, seq)
}

// begin marks the pending snapshot as in flight. Caller holds mu.
func (c *Coordinator[S]) begin() (S, string, uint64) {
	c.saving = true
	c.apply(TimerFired)
	return *c.pending, c.pendingFP, c.pendingSeq
}

func (c *Coordinator[S]) save(snap S, fp string, seq uint64) {
	for {
		err := c.persist(context.Background(), snap)
		now := c.clock.Now()

		c.mu.Lock()
		c.saving = false
		if c.closed {
			c.mu.Unlock()
			if err != nil {
				c.logger.Error("autosave: save failed after close", slog.String("error", err.Error()))
			}
			return
		}

		if err != nil {
			c.lastErr = err
			c.apply(SaveFailed)
			c.logger.Error("autosave: save failed", slog.String("error", err.Error()))
		} else {
			c.lastErr = nil
			c.lastSavedAt = now
			c.baseline = fp
			if c.pending != nil && c.pendingSeq == seq {
				c.pending = nil
				c.pendingFP = ""
				c.apply(SaveSucceeded)
			} else {
				c.apply(SaveSuperseded)
			}
		}

		again := c.rerun && c.pending != nil
		c.rerun = false
		if again {
			snap, fp, seq = c.begin()
		}
		st := c.statusLocked()
		c.mu.Unlock()
		c.notify(st)

		if !again {
			return
		}
	}
}

// stopTimer cancels any armed timer and invalidates its callback. Caller holds mu.
func (c *Coordinator[S]) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

// apply advances the state machine. Caller holds mu.
func (c *Coordinator[S]) apply(t Trigger) {
	c.state = Transition(c.state, t)
}

func (c *Coordinator[S]) statusLocked() Status {
	return Status{
		State:       c.state,
		IsSaving:    c.saving,
		LastSavedAt: c.lastSavedAt,
		Pending:     c.pending != nil,
		LastError:   c.lastErr,
	}
}

func (c *Coordinator[S]) notify(st Status) {
	if c.observer != nil {
		c.observer(st)
	}
}
