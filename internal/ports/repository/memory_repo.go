package repository

import (
	"context"
	"sync"

	"tracking.service/internal/core/model"
)

// MemoryRepository keeps the roster and day records in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	users map[string]*model.User
	// userID -> month -> days
	months map[string]map[string][]model.DayRecord
}

// NewMemoryRepository create new instance
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]*model.User),
		months: make(map[string]map[string][]model.DayRecord),
	}
}

// ListUsers returns the roster in insertion order.
func (r *MemoryRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, *r.users[id].Clone())
	}
	return users, nil
}

func (r *MemoryRepository) FindUser(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u.Clone(), nil
}

// SaveUser inserts or replaces a user.
func (r *MemoryRepository) SaveUser(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.putUser(user)
	return nil
}

func (r *MemoryRepository) putUser(user model.User) {
	if _, exists := r.users[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.users[user.ID] = user.Clone()
}

func (r *MemoryRepository) ReplaceMonth(ctx context.Context, userID, month string, days []model.DayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.months[userID]; !ok {
		r.months[userID] = make(map[string][]model.DayRecord)
	}
	r.months[userID][month] = cloneDays(days)
	return nil
}

func (r *MemoryRepository) GetMonth(ctx context.Context, userID, month string) ([]model.DayRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneDays(r.months[userID][month]), nil
}

func (r *MemoryRepository) GetUserMonths(ctx context.Context, userID string) (map[string][]model.DayRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]model.DayRecord, len(r.months[userID]))
	for month, days := range r.months[userID] {
		result[month] = cloneDays(days)
	}
	return result, nil
}

func (r *MemoryRepository) FindDay(ctx context.Context, userID, date string) (*model.DayRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	days := r.months[userID][model.MonthOfDate(date)]
	for i := range days {
		if days[i].Date == date {
			d := days[i].Clone()
			return &d, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) CloseBreak(ctx context.Context, user model.User, date string, b model.BreakRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.putUser(user)

	days := r.months[user.ID][model.MonthOfDate(date)]
	for i := range days {
		if days[i].Date == date {
			days[i].AddBreak(b)
			return true, nil
		}
	}
	return false, nil
}

func cloneDays(days []model.DayRecord) []model.DayRecord {
	out := make([]model.DayRecord, 0, len(days))
	for _, d := range days {
		out = append(out, d.Clone())
	}
	return out
}
