// Package apisim fronts the tracking service with a fixed artificial latency,
// the way a remote tracking API would behave.
package apisim

import (
	"context"
	"time"

	"tracking.service/internal/core"
	"tracking.service/internal/core/model"
)

// DefaultLatency is the delay applied to every call.
const DefaultLatency = 500 * time.Millisecond

type Simulator struct {
	svc     *core.TrackingService
	latency time.Duration
}

func New(svc *core.TrackingService, latency time.Duration) *Simulator {
	return &Simulator{svc: svc, latency: latency}
}

// delay waits for the configured latency. A caller that gives up while waiting
// gets ctx.Err() and nothing is applied; past this point the call completes
// even if ctx is cancelled.
func (s *Simulator) delay(ctx context.Context) (context.Context, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx, ctx.Err()
		case <-timer.C:
		}
	}
	return context.WithoutCancel(ctx), nil
}

func (s *Simulator) StartBreak(ctx context.Context, userID string) (core.Result, error) {
	ctx, err := s.delay(ctx)
	if err != nil {
		return core.Result{}, err
	}
	return s.svc.StartBreak(ctx, userID)
}

func (s *Simulator) EndBreak(ctx context.Context, userID string) (core.Result, error) {
	ctx, err := s.delay(ctx)
	if err != nil {
		return core.Result{}, err
	}
	return s.svc.EndBreak(ctx, userID)
}

func (s *Simulator) GetUsers(ctx context.Context) ([]model.User, error) {
	ctx, err := s.delay(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.Users(ctx)
}

// GetUserData returns all months of one user; unknown users have no months.
func (s *Simulator) GetUserData(ctx context.Context, userID string) (map[string][]model.DayRecord, error) {
	ctx, err := s.delay(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.UserData(ctx, userID)
}

func (s *Simulator) GetMonthlyData(ctx context.Context, month string) (map[string][]model.DayRecord, error) {
	ctx, err := s.delay(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.MonthlyData(ctx, month)
}
