package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"tracking.service/internal/core/model"
)

// Bounds of the generated history.
const (
	minWorkMinutes   = 240
	workMinutesSpan  = 480
	minBreaks        = 1
	breakCountSpan   = 4
	firstBreakHour   = 9
	breakHourSpan    = 8
	minBreakMinutes  = 10
	breakMinutesSpan = 30
)

var seedRoster = []struct {
	id, name, email string
	status          model.Status
}{
	{"user1", "Alex Chen", "alex@nexvora.com", model.StatusActive},
	{"user2", "Sarah Johnson", "sarah@nexvora.com", model.StatusBreak},
	{"user3", "Michael Brown", "michael@nexvora.com", model.StatusActive},
	{"user4", "Emily Davis", "emily@nexvora.com", model.StatusInactive},
	{"user5", "David Wilson", "david@nexvora.com", model.StatusActive},
	{"user6", "Lisa Anderson", "lisa@nexvora.com", model.StatusBreak},
	{"user7", "James Taylor", "james@nexvora.com", model.StatusActive},
	{"user8", "Jennifer Martinez", "jennifer@nexvora.com", model.StatusInactive},
	{"user9", "Robert Garcia", "robert@nexvora.com", model.StatusActive},
	{"user10", "Amanda Lee", "amanda@nexvora.com", model.StatusBreak},
}

// SeedUsers returns the fixed roster. Users seeded on break are considered to
// have started it at now.
func SeedUsers(now time.Time) []model.User {
	users := make([]model.User, 0, len(seedRoster))
	for _, s := range seedRoster {
		u := model.User{ID: s.id, Name: s.name, Email: s.email, Status: s.status}
		if s.status == model.StatusBreak {
			start := now
			u.CurrentBreakStart = &start
		}
		users = append(users, u)
	}
	return users
}

// GenerateMonth builds one DayRecord per calendar day of month for every user.
func GenerateMonth(rng *rand.Rand, month string, users []model.User) (map[string][]model.DayRecord, error) {
	first, err := model.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	days := model.DaysIn(first)

	data := make(map[string][]model.DayRecord, len(users))
	for _, u := range users {
		records := make([]model.DayRecord, 0, days)
		for day := 1; day <= days; day++ {
			records = append(records, generateDay(rng, fmt.Sprintf("%s-%02d", month, day)))
		}
		data[u.ID] = records
	}
	return data, nil
}

func generateDay(rng *rand.Rand, date string) model.DayRecord {
	d := model.DayRecord{
		Date:     date,
		WorkTime: rng.IntN(workMinutesSpan) + minWorkMinutes,
		Breaks:   []model.BreakRecord{},
	}

	n := rng.IntN(breakCountSpan) + minBreaks
	for i := 0; i < n; i++ {
		startHour := rng.IntN(breakHourSpan) + firstBreakHour
		startMinute := rng.IntN(60)
		duration := rng.IntN(breakMinutesSpan) + minBreakMinutes

		endMinute := startMinute + duration
		d.AddBreak(model.BreakRecord{
			Start:    fmt.Sprintf("%02d:%02d", startHour, startMinute),
			End:      fmt.Sprintf("%02d:%02d", startHour+endMinute/60, endMinute%60),
			Duration: duration,
		})
	}
	return d
}
