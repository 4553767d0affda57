package model

import (
	"fmt"
	"time"
)

// Status defines where a user currently is in the tracking state machine.
type Status string

const (
	StatusActive   Status = "active"
	StatusBreak    Status = "break"
	StatusInactive Status = "inactive"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04"
)

// User is one tracked employee.
type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Status            Status     `json:"status"`
	CurrentBreakStart *time.Time `json:"currentBreakStart,omitempty"`
	// DailyWorkTime is in minutes.
	DailyWorkTime float64 `json:"dailyWorkTime"`
}

// Clone returns a copy that shares no memory with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CurrentBreakStart != nil {
		start := *u.CurrentBreakStart
		c.CurrentBreakStart = &start
	}
	return &c
}

// OnBreak reports whether the user is in a consistent break state.
func (u *User) OnBreak() bool {
	return u.Status == StatusBreak && u.CurrentBreakStart != nil
}

// BreakRecord is one completed break. Start and End are wall-clock "HH:MM" strings.
type BreakRecord struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

// DayRecord is the activity of a single user on a single date.
type DayRecord struct {
	Date           string        `json:"date"`
	WorkTime       int           `json:"workTime"`
	Breaks         []BreakRecord `json:"breaks"`
	TotalBreakTime int           `json:"totalBreakTime"`
}

// AddBreak appends b and keeps TotalBreakTime equal to the sum of all break durations.
func (d *DayRecord) AddBreak(b BreakRecord) {
	d.Breaks = append(d.Breaks, b)
	d.TotalBreakTime += b.Duration
}

// Clone returns a deep copy of d.
func (d DayRecord) Clone() DayRecord {
	c := d
	c.Breaks = append([]BreakRecord(nil), d.Breaks...)
	if c.Breaks == nil {
		c.Breaks = []BreakRecord{}
	}
	return c
}

// MonthlyData maps user id -> month key ("YYYY-MM") -> one record per calendar day.
type MonthlyData map[string]map[string][]DayRecord

// UserDay pairs a user with their record for some date.
type UserDay struct {
	User    User      `json:"user"`
	DayData DayRecord `json:"dayData"`
}

// Activity drives the markers of a calendar cell.
type Activity struct {
	HasActivity bool `json:"hasActivity"`
	HasBreaks   bool `json:"hasBreaks"`
}

func DateKey(t time.Time) string  { return t.Format(DateLayout) }
func MonthKey(t time.Time) string { return t.Format(MonthLayout) }
func ClockTime(t time.Time) string { return t.Format(ClockLayout) }

// MonthOfDate returns the "YYYY-MM" prefix of a "YYYY-MM-DD" date key.
func MonthOfDate(date string) string {
	if len(date) < len(MonthLayout) {
		return ""
	}
	return date[:len(MonthLayout)]
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

// DaysIn returns the number of calendar days in the month containing t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatElapsed renders a second counter as "HH:MM:SS".
func FormatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatWorkTime renders minutes as "Xh Ym", dropping fractional minutes.
func FormatWorkTime(minutes float64) string {
	total := int(minutes)
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
