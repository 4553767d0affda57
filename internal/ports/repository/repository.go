package repository

import (
	"context"

	"tracking.service/internal/core/model"
)

// Repository contract for the roster and the monthly dataset.
//
// Lookups of absent users, months or days are not errors: FindUser and FindDay
// return nil, GetMonth returns an empty slice.
type Repository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	FindUser(ctx context.Context, id string) (*model.User, error)
	SaveUser(ctx context.Context, user model.User) error
	ReplaceMonth(ctx context.Context, userID, month string, days []model.DayRecord) error
	GetMonth(ctx context.Context, userID, month string) ([]model.DayRecord, error)
	GetUserMonths(ctx context.Context, userID string) (map[string][]model.DayRecord, error)
	FindDay(ctx context.Context, userID, date string) (*model.DayRecord, error)
	// CloseBreak saves user and adds b to the user's record for date as one
	// step. It reports whether that record existed; the user is saved either way.
	CloseBreak(ctx context.Context, user model.User, date string, b model.BreakRecord) (bool, error)
}
