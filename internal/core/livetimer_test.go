package core

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"tracking.service/internal/core/model"
	"tracking.service/internal/ports/repository"
)

// manualTimer returns a one-second timer whose background ticker never fires;
// tests drive it through step.
func manualTimer(f fixture) *LiveTimer {
	return manualTimerFor(f.svc, time.Second)
}

func manualTimerFor(svc *TrackingService, tick time.Duration) *LiveTimer {
	return newLiveTimer(svc, tick, func(time.Duration) (<-chan time.Time, func()) {
		return make(chan time.Time), func() {}
	})
}

func (t *LiveTimer) currentGen() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

func (t *LiveTimer) advance(n int) {
	for i := 0; i < n; i++ {
		t.step(context.Background(), t.currentGen())
	}
}

func TestLiveTimerAccruesForSelectedActiveUser(t *testing.T) {
	f := newFixture(t)
	timer := manualTimer(f)
	defer timer.Close()

	ok, err := timer.Select(context.Background(), "user1")
	if err != nil || !ok {
		t.Fatalf("select: %v, %v", ok, err)
	}
	if s := timer.Snapshot(); !s.Running || s.UserID != "user1" {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	timer.advance(60)

	if s := timer.Snapshot(); s.Elapsed != 60 {
		t.Fatalf("expected 60 elapsed seconds, got %d", s.Elapsed)
	}
	if got := f.user(t, "user1").DailyWorkTime; math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected one minute of work, got %f", got)
	}
	if got := f.user(t, "user3").DailyWorkTime; got != 0 {
		t.Fatalf("unselected user accrued %f", got)
	}
}

func TestLiveTimerStopsOnBreakAndResumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	timer := manualTimer(f)
	defer timer.Close()

	if _, err := timer.Select(ctx, "user1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	timer.advance(30)
	gen := timer.currentGen()

	if _, err := f.svc.StartBreak(ctx, "user1"); err != nil {
		t.Fatalf("start break: %v", err)
	}
	if timer.Snapshot().Running {
		t.Fatalf("timer should stop when the user goes on break")
	}
	if timer.step(ctx, gen) {
		t.Fatalf("stale tick should stop the loop")
	}
	timer.advance(10)
	work := f.user(t, "user1").DailyWorkTime
	if s := timer.Snapshot(); s.Elapsed != 30 {
		t.Fatalf("elapsed moved during break: %d", s.Elapsed)
	}

	if _, err := f.svc.EndBreak(ctx, "user1"); err != nil {
		t.Fatalf("end break: %v", err)
	}
	if !timer.Snapshot().Running {
		t.Fatalf("timer should resume when the user is active again")
	}
	timer.advance(30)
	if got := f.user(t, "user1").DailyWorkTime; math.Abs(got-work-0.5) > 1e-9 {
		t.Fatalf("expected half a minute more, got %f -> %f", work, got)
	}
	if s := timer.Snapshot(); s.Elapsed != 60 {
		t.Fatalf("expected 60 elapsed seconds, got %d", s.Elapsed)
	}
}

func TestLiveTimerSelectionChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	timer := manualTimer(f)
	defer timer.Close()

	_, _ = timer.Select(ctx, "user1")
	timer.advance(5)
	oldGen := timer.currentGen()

	if _, err := timer.Select(ctx, "user3"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s := timer.Snapshot(); s.Elapsed != 0 || s.UserID != "user3" || !s.Running {
		t.Fatalf("unexpected snapshot after reselect %+v", s)
	}
	if timer.step(ctx, oldGen) {
		t.Fatalf("tick of the previous selection should be discarded")
	}
	timer.advance(6)

	if got := f.user(t, "user1").DailyWorkTime; math.Abs(got-5.0/60) > 1e-9 {
		t.Fatalf("user1 kept accruing after deselection: %f", got)
	}
	if got := f.user(t, "user3").DailyWorkTime; math.Abs(got-6.0/60) > 1e-9 {
		t.Fatalf("user3 accrued %f", got)
	}

	// A break started for someone else does not touch the selected timer.
	_, _ = f.svc.StartBreak(ctx, "user1")
	if !timer.Snapshot().Running {
		t.Fatalf("break of another user stopped the timer")
	}
}

func TestLiveTimerInactiveAndUnknownUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	timer := manualTimer(f)
	defer timer.Close()

	if ok, _ := timer.Select(ctx, "user4"); !ok {
		t.Fatalf("inactive user should be selectable")
	}
	timer.advance(10)
	if s := timer.Snapshot(); s.Running || s.Elapsed != 0 {
		t.Fatalf("timer ran for an inactive user: %+v", s)
	}

	ok, err := timer.Select(ctx, "ghost")
	if err != nil || ok {
		t.Fatalf("unknown user: %v, %v", ok, err)
	}
	if s := timer.Snapshot(); s.UserID != "user4" {
		t.Fatalf("selection changed to %q", s.UserID)
	}
}

func TestLiveTimerClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	timer := manualTimer(f)

	_, _ = timer.Select(ctx, "user1")
	timer.Close()
	timer.Close()

	if timer.Snapshot().Running {
		t.Fatalf("closed timer is running")
	}
	_, _ = f.svc.StartBreak(ctx, "user1")
	_, _ = f.svc.EndBreak(ctx, "user1")
	if timer.Snapshot().Running {
		t.Fatalf("closed timer was re-armed")
	}
	if ok, _ := timer.Select(ctx, "user3"); ok {
		t.Fatalf("closed timer accepted a selection")
	}
}

func TestLiveTimerElapsedFollowsTick(t *testing.T) {
	f := newFixture(t)
	timer := manualTimerFor(f.svc, 2*time.Second)
	defer timer.Close()

	if _, err := timer.Select(context.Background(), "user1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	timer.advance(30)

	s := timer.Snapshot()
	if s.Elapsed != 60 || model.FormatElapsed(s.Elapsed) != "00:01:00" {
		t.Fatalf("expected a minute on the display, got %d", s.Elapsed)
	}
	if got := f.user(t, "user1").DailyWorkTime; math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected one minute of work, got %f", got)
	}
}

// racingRepo calls onFind once, right after the first lookup of id has read
// the stored user.
type racingRepo struct {
	*repository.MemoryRepository
	id        string
	onFind    func()
	triggered atomic.Bool
	saved     chan struct{}
}

func (r *racingRepo) FindUser(ctx context.Context, id string) (*model.User, error) {
	u, err := r.MemoryRepository.FindUser(ctx, id)
	if id == r.id && r.onFind != nil && r.triggered.CompareAndSwap(false, true) {
		r.onFind()
	}
	return u, err
}

func (r *racingRepo) SaveUser(ctx context.Context, user model.User) error {
	err := r.MemoryRepository.SaveUser(ctx, user)
	select {
	case r.saved <- struct{}{}:
	default:
	}
	return err
}

func TestLiveTimerSelectRacingBreakStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	repo := &racingRepo{MemoryRepository: f.repo, id: "user1", saved: make(chan struct{}, 1)}
	svc := NewTrackingService(repo, WithClock(f.clock.Now))
	timer := manualTimerFor(svc, time.Second)
	defer timer.Close()

	// The break is stored after Select read user1 as active but before it
	// armed the ticker.
	done := make(chan struct{})
	repo.onFind = func() {
		go func() {
			defer close(done)
			if _, err := svc.StartBreak(ctx, "user1"); err != nil {
				t.Errorf("start break: %v", err)
			}
		}()
		<-repo.saved
	}

	if ok, err := timer.Select(ctx, "user1"); err != nil || !ok {
		t.Fatalf("select: %v, %v", ok, err)
	}
	<-done

	if s := timer.Snapshot(); s.Running || s.UserID != "user1" {
		t.Fatalf("timer armed for a user on break: %+v", s)
	}
}

func TestLiveTimerRealTicker(t *testing.T) {
	f := newFixture(t)
	tick := 5 * time.Millisecond
	timer := NewLiveTimer(f.svc, tick)
	defer timer.Close()

	if _, err := timer.Select(context.Background(), "user1"); err != nil {
		t.Fatalf("select: %v", err)
	}

	want := 3 * tick.Minutes()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.user(t, "user1").DailyWorkTime >= want {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.user(t, "user1").DailyWorkTime; got < want {
		t.Fatalf("ticker did not fire, work time %f", got)
	}
	if !timer.Snapshot().Running {
		t.Fatalf("timer stopped")
	}
}
