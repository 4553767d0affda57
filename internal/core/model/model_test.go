package model_test

import (
	"testing"
	"time"

	"tracking.service/internal/core/model"
)

func TestAddBreakKeepsTotal(t *testing.T) {
	d := model.DayRecord{Date: "2025-08-01", WorkTime: 300}

	d.AddBreak(model.BreakRecord{Start: "09:10", End: "09:25", Duration: 15})
	d.AddBreak(model.BreakRecord{Start: "13:00", End: "13:40", Duration: 40})

	sum := 0
	for _, b := range d.Breaks {
		sum += b.Duration
	}
	if d.TotalBreakTime != sum || sum != 55 {
		t.Fatalf("total break time %d, sum of breaks %d", d.TotalBreakTime, sum)
	}
}

func TestDayRecordCloneIsDeep(t *testing.T) {
	d := model.DayRecord{Date: "2025-08-01"}
	d.AddBreak(model.BreakRecord{Start: "10:00", End: "10:10", Duration: 10})

	c := d.Clone()
	c.AddBreak(model.BreakRecord{Start: "11:00", End: "11:10", Duration: 10})

	if len(d.Breaks) != 1 || d.TotalBreakTime != 10 {
		t.Fatalf("original mutated through clone: %+v", d)
	}
}

func TestUserClone(t *testing.T) {
	start := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)
	u := &model.User{ID: "user1", Status: model.StatusBreak, CurrentBreakStart: &start}

	c := u.Clone()
	*c.CurrentBreakStart = start.Add(time.Hour)

	if !u.CurrentBreakStart.Equal(start) {
		t.Fatalf("clone shares break start with original")
	}
	if !u.OnBreak() {
		t.Fatalf("expected user to be on break")
	}
	if (*model.User)(nil).Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}

func TestFormatting(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"elapsed zero", model.FormatElapsed(0), "00:00:00"},
		{"elapsed mixed", model.FormatElapsed(3*3600 + 7*60 + 9), "03:07:09"},
		{"work time", model.FormatWorkTime(125.9), "2h 5m"},
		{"work time zero", model.FormatWorkTime(0), "0h 0m"},
		{"clock", model.ClockTime(time.Date(2025, 8, 4, 9, 5, 59, 0, time.UTC)), "09:05"},
		{"date", model.DateKey(time.Date(2025, 8, 4, 23, 0, 0, 0, time.UTC)), "2025-08-04"},
		{"month", model.MonthKey(time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)), "2025-08"},
		{"month of date", model.MonthOfDate("2025-08-31"), "2025-08"},
		{"month of garbage", model.MonthOfDate("2025"), ""},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestDaysIn(t *testing.T) {
	for month, want := range map[string]int{"2025-08": 31, "2025-02": 28, "2024-02": 29, "2025-09": 30} {
		m, err := model.ParseMonth(month)
		if err != nil {
			t.Fatalf("parse %s: %v", month, err)
		}
		if got := model.DaysIn(m); got != want {
			t.Errorf("%s: got %d days, want %d", month, got, want)
		}
	}
	if _, err := model.ParseMonth("August"); err == nil {
		t.Errorf("expected error for malformed month")
	}
}
