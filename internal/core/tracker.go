package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tracking.service/internal/core/model"
	"tracking.service/internal/ports/messaging"
	"tracking.service/internal/ports/repository"
)

// FilterAll selects every user in DayActivity.
const FilterAll = "all"

var tracer = otel.Tracer("tracking-service")

// Result is what a break operation hands back. User is nil for unknown ids.
type Result struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

// StatusListener is called after a user's status changed.
type StatusListener func(user model.User)

// TrackingService owns the roster and the monthly dataset. Every mutation goes
// through it and is serialized by mu.
type TrackingService struct {
	mu        sync.Mutex
	repo      repository.Repository
	publisher messaging.EventPublisher
	now       func() time.Time

	listenersMu sync.RWMutex
	listeners   map[int]StatusListener
	nextID      int
}

type Option func(*TrackingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TrackingService) { s.now = now }
}

// WithPublisher makes the service emit break events.
func WithPublisher(p messaging.EventPublisher) Option {
	return func(s *TrackingService) { s.publisher = p }
}

// NewTrackingService creates a new instance of our main application service,
// wiring up the repository and, optionally, the event publisher.
func NewTrackingService(repo repository.Repository, opts ...Option) *TrackingService {
	s := &TrackingService{
		repo:      repo,
		now:       time.Now,
		listeners: make(map[int]StatusListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed stores the seed roster and a generated month when the repository has no
// users yet. It reports whether anything was written.
func (s *TrackingService) Seed(ctx context.Context, rng *rand.Rand, month string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list users: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	users := SeedUsers(s.now())
	data, err := GenerateMonth(rng, month, users)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if err := s.repo.SaveUser(ctx, u); err != nil {
			return false, fmt.Errorf("failed to save user %s: %w", u.ID, err)
		}
		if err := s.repo.ReplaceMonth(ctx, u.ID, month, data[u.ID]); err != nil {
			return false, fmt.Errorf("failed to save month %s for %s: %w", month, u.ID, err)
		}
	}

	log.Ctx(ctx).Info().Int("users", len(users)).Str("month", month).Msg("Seeded tracking data")
	return true, nil
}

// StartBreak moves an active user to break. Any other status is left untouched.
func (s *TrackingService) StartBreak(ctx context.Context, userID string) (Result, error) {
	ctx, span := tracer.Start(ctx, "start_break", trace.WithAttributes(attribute.String("app.userId", userID)))
	defer span.End()

	res, err := s.mutate(ctx, userID, func(u *model.User, now time.Time) (bool, error) {
		if u.Status != model.StatusActive {
			return false, nil
		}
		u.Status = model.StatusBreak
		u.CurrentBreakStart = &now
		return true, nil
	}, s.repo.SaveUser)
	if err != nil || !res.Success {
		return res, err
	}

	log.Ctx(ctx).Info().Str("user_id", userID).Msg("Break started")
	s.notify(*res.User)

	if s.publisher != nil {
		event := messaging.BreakStartedEvent{
			Envelope:  messaging.Envelope{UserID: userID},
			UserName:  res.User.Name,
			StartedAt: *res.User.CurrentBreakStart,
		}
		if err := s.publisher.PublishBreakStarted(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to publish break started event")
		}
	}
	return res, nil
}

// EndBreak returns a user on break to active and books the break on today's
// record in the same repository call. When there is no record for today the
// break is not booked.
func (s *TrackingService) EndBreak(ctx context.Context, userID string) (Result, error) {
	ctx, span := tracer.Start(ctx, "end_break", trace.WithAttributes(attribute.String("app.userId", userID)))
	defer span.End()

	var (
		record   model.BreakRecord
		date     string
		ended    time.Time
		recorded bool
	)
	res, err := s.mutate(ctx, userID, func(u *model.User, now time.Time) (bool, error) {
		if !u.OnBreak() {
			return false, nil
		}
		start := *u.CurrentBreakStart
		duration := int(now.Sub(start) / time.Minute)
		if duration < 0 {
			duration = 0
		}

		u.Status = model.StatusActive
		u.CurrentBreakStart = nil

		record = model.BreakRecord{Start: model.ClockTime(start), End: model.ClockTime(now), Duration: duration}
		date = model.DateKey(now)
		ended = now
		return true, nil
	}, func(ctx context.Context, u model.User) error {
		var err error
		recorded, err = s.repo.CloseBreak(ctx, u, date, record)
		return err
	})
	if err != nil || !res.Success {
		return res, err
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Int("duration", record.Duration).
		Bool("recorded", recorded).
		Msg("Break ended")
	s.notify(*res.User)

	if s.publisher != nil {
		event := messaging.BreakEndedEvent{
			Envelope:        messaging.Envelope{UserID: userID},
			UserName:        res.User.Name,
			Email:           res.User.Email,
			Date:            date,
			Start:           record.Start,
			End:             record.End,
			DurationMinutes: record.Duration,
			Recorded:        recorded,
			EndedAt:         ended,
		}
		if err := s.publisher.PublishBreakEnded(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to publish break ended event")
		}
	}
	return res, nil
}

// AccrueWork adds d to the user's daily work time if the user is active and
// reports whether it did.
func (s *TrackingService) AccrueWork(ctx context.Context, userID string, d time.Duration) (bool, error) {
	res, err := s.mutate(ctx, userID, func(u *model.User, _ time.Time) (bool, error) {
		if u.Status != model.StatusActive {
			return false, nil
		}
		u.DailyWorkTime += d.Minutes()
		return true, nil
	}, s.repo.SaveUser)
	return res.Success, err
}

// mutate loads the user, applies fn and hands the user to save when fn reports
// a change. Nothing is stored when save fails.
func (s *TrackingService) mutate(ctx context.Context, userID string, fn func(u *model.User, now time.Time) (bool, error), save func(ctx context.Context, u model.User) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user == nil {
		return Result{}, nil
	}

	changed, err := fn(user, s.now())
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{User: user}, nil
	}

	if err := save(ctx, *user); err != nil {
		return Result{}, fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return Result{Success: true, User: user.Clone()}, nil
}

// Subscribe registers fn for status changes. The returned func removes it.
func (s *TrackingService) Subscribe(fn StatusListener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *TrackingService) notify(u model.User) {
	s.listenersMu.RLock()
	fns := make([]StatusListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(*u.Clone())
	}
}

// Users returns the roster.
func (s *TrackingService) Users(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// User returns one user, nil if the id is unknown.
func (s *TrackingService) User(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.FindUser(ctx, userID)
}

// UserData returns every stored month of one user.
func (s *TrackingService) UserData(ctx context.Context, userID string) (map[string][]model.DayRecord, error) {
	return s.repo.GetUserMonths(ctx, userID)
}

// MonthlyData returns the records of month for every user. Users without data
// for that month map to an empty slice.
func (s *TrackingService) MonthlyData(ctx context.Context, month string) (map[string][]model.DayRecord, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]model.DayRecord, len(users))
	for _, u := range users {
		days, err := s.repo.GetMonth(ctx, u.ID, month)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s for %s: %w", month, u.ID, err)
		}
		result[u.ID] = days
	}
	return result, nil
}

// DayActivity tells whether any of the considered users has a record on date,
// and whether any of those records has breaks. filter is FilterAll or a user id.
func (s *TrackingService) DayActivity(ctx context.Context, date time.Time, filter string) (model.Activity, error) {
	var activity model.Activity

	users, err := s.considered(ctx, filter)
	if err != nil {
		return activity, err
	}

	key := model.DateKey(date)
	for _, u := range users {
		day, err := s.repo.FindDay(ctx, u.ID, key)
		if err != nil {
			return activity, fmt.Errorf("failed to load %s for %s: %w", key, u.ID, err)
		}
		if day == nil {
			continue
		}
		activity.HasActivity = true
		if len(day.Breaks) > 0 {
			activity.HasBreaks = true
		}
	}
	return activity, nil
}

// DayDetails lists every user that has a record on date together with it.
func (s *TrackingService) DayDetails(ctx context.Context, date time.Time) ([]model.UserDay, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	key := model.DateKey(date)
	details := []model.UserDay{}
	for _, u := range users {
		day, err := s.repo.FindDay(ctx, u.ID, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s for %s: %w", key, u.ID, err)
		}
		if day != nil {
			details = append(details, model.UserDay{User: u, DayData: *day})
		}
	}
	return details, nil
}

func (s *TrackingService) considered(ctx context.Context, filter string) ([]model.User, error) {
	if filter == "" || filter == FilterAll {
		return s.repo.ListUsers(ctx)
	}
	u, err := s.repo.FindUser(ctx, filter)
	if err != nil || u == nil {
		return nil, err
	}
	return []model.User{*u}, nil
}
