package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tracking.service/internal/core/model"
)

// TimerSnapshot is the display state of the live timer. Elapsed counts whole
// seconds since the selection.
type TimerSnapshot struct {
	UserID  string `json:"userId"`
	Elapsed int64  `json:"elapsed"`
	Running bool   `json:"running"`
}

// LiveTimer accrues work time for the selected user, one tick at a time, for as
// long as that user is active. Changing the selection or leaving active tears
// the ticker down; coming back to active arms it again.
type LiveTimer struct {
	svc       *TrackingService
	tick      time.Duration
	newTicker func(d time.Duration) (<-chan time.Time, func())

	mu          sync.Mutex
	userID      string
	elapsed     time.Duration
	gen         uint64
	cancel      context.CancelFunc
	closed      bool
	unsubscribe func()
}

// NewLiveTimer creates a timer ticking every tick. Nothing is selected yet.
func NewLiveTimer(svc *TrackingService, tick time.Duration) *LiveTimer {
	return newLiveTimer(svc, tick, func(d time.Duration) (<-chan time.Time, func()) {
		t := time.NewTicker(d)
		return t.C, t.Stop
	})
}

func newLiveTimer(svc *TrackingService, tick time.Duration, newTicker func(time.Duration) (<-chan time.Time, func())) *LiveTimer {
	t := &LiveTimer{
		svc:       svc,
		tick:      tick,
		newTicker: newTicker,
	}
	t.unsubscribe = svc.Subscribe(t.onStatusChange)
	return t
}

// Select makes userID the displayed user and resets the elapsed counter. It
// reports false, and keeps the current selection, when the user does not exist.
func (t *LiveTimer) Select(ctx context.Context, userID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, nil
	}

	// Read under mu: a status change notified meanwhile waits for the new
	// selection instead of being matched against the old one.
	user, err := t.svc.User(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	t.stopLocked()
	t.userID = userID
	t.elapsed = 0
	if user.Status == model.StatusActive {
		t.startLocked()
	}
	return true, nil
}

// Snapshot returns the current display state.
func (t *LiveTimer) Snapshot() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TimerSnapshot{UserID: t.userID, Elapsed: int64(t.elapsed / time.Second), Running: t.cancel != nil}
}

// Close stops the ticker and detaches from the tracking service.
func (t *LiveTimer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.stopLocked()
	t.unsubscribe()
}

func (t *LiveTimer) onStatusChange(u model.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || u.ID != t.userID {
		return
	}
	switch {
	case u.Status == model.StatusActive && t.cancel == nil:
		t.startLocked()
	case u.Status != model.StatusActive:
		t.stopLocked()
	}
}

func (t *LiveTimer) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.gen++
	go t.run(ctx, t.gen)
}

func (t *LiveTimer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *LiveTimer) run(ctx context.Context, gen uint64) {
	ticks, stop := t.newTicker(t.tick)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if !t.step(ctx, gen) {
				return
			}
		}
	}
}

// step performs one tick for generation gen and reports whether the ticker
// should keep going. The lock is held across AccrueWork so a tick can never
// land on a user that was deselected meanwhile.
func (t *LiveTimer) step(ctx context.Context, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.cancel == nil {
		return false
	}

	ok, err := t.svc.AccrueWork(ctx, t.userID, t.tick)
	if err != nil {
		log.Error().Err(err).Str("user_id", t.userID).Msg("Failed to accrue work time")
		return true
	}
	if !ok {
		t.stopLocked()
		return false
	}
	t.elapsed += t.tick
	return true
}
