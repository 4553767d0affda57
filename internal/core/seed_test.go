package core

import (
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"tracking.service/internal/core/model"
)

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(2025, 8))
}

func TestSeedUsers(t *testing.T) {
	now := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	users := SeedUsers(now)

	if len(users) != 10 {
		t.Fatalf("expected 10 seed users, got %d", len(users))
	}
	seen := map[string]bool{}
	for _, u := range users {
		if seen[u.ID] {
			t.Fatalf("duplicate id %s", u.ID)
		}
		seen[u.ID] = true
		if (u.Status == model.StatusBreak) != (u.CurrentBreakStart != nil) {
			t.Fatalf("%s: status %s with break start %v", u.ID, u.Status, u.CurrentBreakStart)
		}
	}
	if users[0].ID != "user1" || users[0].Status != model.StatusActive {
		t.Fatalf("unexpected first user %+v", users[0])
	}
}

func TestGenerateMonthAugust(t *testing.T) {
	users := SeedUsers(time.Now())
	data, err := GenerateMonth(seededRand(), "2025-08", users)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(data) != 10 {
		t.Fatalf("expected data for 10 users, got %d", len(data))
	}

	for userID, days := range data {
		if len(days) != 31 {
			t.Fatalf("%s: expected 31 records, got %d", userID, len(days))
		}
		dates := map[string]bool{}
		for i, d := range days {
			if want := "2025-08-" + pad(i+1); d.Date != want {
				t.Fatalf("%s: record %d has date %s, want %s", userID, i, d.Date, want)
			}
			if dates[d.Date] {
				t.Fatalf("%s: duplicate date %s", userID, d.Date)
			}
			dates[d.Date] = true

			if d.WorkTime < 240 || d.WorkTime > 719 {
				t.Fatalf("%s %s: work time %d out of range", userID, d.Date, d.WorkTime)
			}
			if len(d.Breaks) < 1 || len(d.Breaks) > 4 {
				t.Fatalf("%s %s: %d breaks", userID, d.Date, len(d.Breaks))
			}
			sum := 0
			for _, b := range d.Breaks {
				if b.Duration < 10 || b.Duration > 39 {
					t.Fatalf("%s %s: break duration %d out of range", userID, d.Date, b.Duration)
				}
				checkBreakClock(t, b)
				sum += b.Duration
			}
			if sum != d.TotalBreakTime {
				t.Fatalf("%s %s: total %d != sum %d", userID, d.Date, d.TotalBreakTime, sum)
			}
		}
	}
}

func TestGenerateMonthIsReproducible(t *testing.T) {
	users := SeedUsers(time.Now())

	a, err := GenerateMonth(seededRand(), "2025-08", users)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateMonth(seededRand(), "2025-08", users)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different data")
	}
}

func TestGenerateMonthLength(t *testing.T) {
	users := SeedUsers(time.Now())[:1]

	for month, want := range map[string]int{"2025-02": 28, "2024-02": 29, "2025-09": 30} {
		data, err := GenerateMonth(seededRand(), month, users)
		if err != nil {
			t.Fatalf("%s: %v", month, err)
		}
		if got := len(data["user1"]); got != want {
			t.Errorf("%s: got %d days, want %d", month, got, want)
		}
	}

	if _, err := GenerateMonth(seededRand(), "2025-13", users); err == nil {
		t.Fatalf("expected error for invalid month")
	}
}

// checkBreakClock verifies that end = start + duration with minute carry.
func checkBreakClock(t *testing.T, b model.BreakRecord) {
	t.Helper()

	sh, sm := clock(t, b.Start)
	eh, em := clock(t, b.End)
	if sh < 9 || sh > 16 {
		t.Fatalf("break start hour %d out of range", sh)
	}
	if eh*60+em-(sh*60+sm) != b.Duration {
		t.Fatalf("break %s-%s does not span %d minutes", b.Start, b.End, b.Duration)
	}
}

func clock(t *testing.T, s string) (int, int) {
	t.Helper()

	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		t.Fatalf("malformed clock time %q", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || m > 59 {
		t.Fatalf("malformed clock time %q", s)
	}
	return h, m
}

func pad(day int) string {
	if day < 10 {
		return "0" + strconv.Itoa(day)
	}
	return strconv.Itoa(day)
}
