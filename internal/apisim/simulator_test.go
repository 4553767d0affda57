package apisim

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"tracking.service/internal/core"
	"tracking.service/internal/core/model"
	"tracking.service/internal/ports/repository"
)

func newSimulator(t *testing.T, latency time.Duration) (*Simulator, *core.TrackingService) {
	t.Helper()

	svc := core.NewTrackingService(repository.NewMemoryRepository())
	if _, err := svc.Seed(context.Background(), rand.New(rand.NewPCG(1, 2)), "2025-08"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(svc, latency), svc
}

func TestSimulatorAppliesLatency(t *testing.T) {
	sim, _ := newSimulator(t, 30*time.Millisecond)

	began := time.Now()
	res, err := sim.StartBreak(context.Background(), "user1")
	if err != nil || !res.Success || res.User.Status != model.StatusBreak {
		t.Fatalf("start break: %+v, %v", res, err)
	}
	if elapsed := time.Since(began); elapsed < 30*time.Millisecond {
		t.Fatalf("call returned after %v, expected the artificial delay", elapsed)
	}

	res, err = sim.EndBreak(context.Background(), "user1")
	if err != nil || !res.Success || res.User.Status != model.StatusActive {
		t.Fatalf("end break: %+v, %v", res, err)
	}
}

func TestSimulatorCancelledDuringDelay(t *testing.T) {
	sim, svc := newSimulator(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sim.StartBreak(ctx, "user1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	u, _ := svc.User(context.Background(), "user1")
	if u.Status != model.StatusActive {
		t.Fatalf("cancelled call changed state: %+v", u)
	}
}

func TestSimulatorQueries(t *testing.T) {
	sim, _ := newSimulator(t, 0)
	ctx := context.Background()

	users, err := sim.GetUsers(ctx)
	if err != nil || len(users) != 10 {
		t.Fatalf("users: %d, %v", len(users), err)
	}

	monthly, err := sim.GetMonthlyData(ctx, "2025-08")
	if err != nil || len(monthly["user10"]) != 31 {
		t.Fatalf("monthly data: %v", err)
	}

	data, err := sim.GetUserData(ctx, "user2")
	if err != nil || len(data["2025-08"]) != 31 {
		t.Fatalf("user data: %v", err)
	}
	data, err = sim.GetUserData(ctx, "ghost")
	if err != nil || len(data) != 0 {
		t.Fatalf("unknown user should have no data: %v, %v", data, err)
	}

	res, err := sim.EndBreak(ctx, "ghost")
	if err != nil || res.Success {
		t.Fatalf("unknown user: %+v, %v", res, err)
	}
}
