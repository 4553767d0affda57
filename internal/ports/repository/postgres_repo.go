package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tracking.service/internal/core/model"
)

// Schema creates the tables used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS tracking_users (
    position            BIGSERIAL,
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    email               TEXT NOT NULL,
    status              TEXT NOT NULL,
    current_break_start TIMESTAMPTZ,
    daily_work_time     DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS day_records (
    user_id          TEXT NOT NULL REFERENCES tracking_users (id),
    month            TEXT NOT NULL,
    date             TEXT NOT NULL,
    work_time        INTEGER NOT NULL,
    total_break_time INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, date)
);
CREATE TABLE IF NOT EXISTS break_records (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL,
    date       TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time   TEXT NOT NULL,
    duration   INTEGER NOT NULL,
    FOREIGN KEY (user_id, date) REFERENCES day_records (user_id, date) ON DELETE CASCADE
);`

// PostgresRepository is the concrete implementation for a PostgreSQL database.
type PostgresRepository struct {
	DB *sql.DB
}

// NewPostgresRepository create new instance
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `SELECT id, name, email, status, current_break_start, daily_work_time
              FROM tracking_users
              ORDER BY position`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindUser get a user by id, nil when there is none.
func (r *PostgresRepository) FindUser(ctx context.Context, id string) (*model.User, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", id))

	query := `SELECT id, name, email, status, current_break_start, daily_work_time
              FROM tracking_users
              WHERE id = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

const upsertUserQuery = `INSERT INTO tracking_users (id, name, email, status, current_break_start, daily_work_time)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (id) DO UPDATE
              SET name = EXCLUDED.name,
                  email = EXCLUDED.email,
                  status = EXCLUDED.status,
                  current_break_start = EXCLUDED.current_break_start,
                  daily_work_time = EXCLUDED.daily_work_time`

func (r *PostgresRepository) SaveUser(ctx context.Context, user model.User) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", user.ID))

	_, err := r.DB.ExecContext(ctx, upsertUserQuery, userArgs(user)...)
	return err
}

// ReplaceMonth drops whatever is stored for the month and writes days in one
// transaction. total_break_time is written as the sum of the stored breaks.
func (r *PostgresRepository) ReplaceMonth(ctx context.Context, userID, month string, days []model.DayRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM day_records WHERE user_id = $1 AND month = $2`, userID, month); err != nil {
		return fmt.Errorf("failed to clear month %s: %w", month, err)
	}

	for _, d := range days {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO day_records (user_id, month, date, work_time, total_break_time) VALUES ($1, $2, $3, $4, $5)`,
			userID, month, d.Date, d.WorkTime, totalOf(d.Breaks))
		if err != nil {
			return fmt.Errorf("failed to insert day %s: %w", d.Date, err)
		}
		for _, b := range d.Breaks {
			if err := insertBreak(ctx, tx, userID, d.Date, b); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetMonth(ctx context.Context, userID, month string) ([]model.DayRecord, error) {
	byMonth, err := r.loadDays(ctx, `WHERE d.user_id = $1 AND d.month = $2`, userID, month)
	if err != nil {
		return nil, err
	}
	if days, ok := byMonth[month]; ok {
		return days, nil
	}
	return []model.DayRecord{}, nil
}

func (r *PostgresRepository) GetUserMonths(ctx context.Context, userID string) (map[string][]model.DayRecord, error) {
	return r.loadDays(ctx, `WHERE d.user_id = $1`, userID)
}

func (r *PostgresRepository) FindDay(ctx context.Context, userID, date string) (*model.DayRecord, error) {
	byMonth, err := r.loadDays(ctx, `WHERE d.user_id = $1 AND d.date = $2`, userID, date)
	if err != nil {
		return nil, err
	}
	days := byMonth[model.MonthOfDate(date)]
	if len(days) == 0 {
		return nil, nil
	}
	return &days[0], nil
}

// CloseBreak upserts the user, bumps total_break_time and inserts the break in
// one transaction. A missing day record only skips the break.
func (r *PostgresRepository) CloseBreak(ctx context.Context, user model.User, date string, b model.BreakRecord) (bool, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", user.ID))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertUserQuery, userArgs(user)...); err != nil {
		return false, fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE day_records SET total_break_time = total_break_time + $1 WHERE user_id = $2 AND date = $3`,
		b.Duration, user.ID, date)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if n > 0 {
		if err := insertBreak(ctx, tx, user.ID, date, b); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) loadDays(ctx context.Context, where string, args ...any) (map[string][]model.DayRecord, error) {
	query := `SELECT d.month, d.date, d.work_time, d.total_break_time, b.start_time, b.end_time, b.duration
              FROM day_records d
              LEFT JOIN break_records b ON b.user_id = d.user_id AND b.date = d.date
              ` + where + `
              ORDER BY d.date, b.id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]model.DayRecord)
	for rows.Next() {
		var (
			month, date     string
			workTime, total int
			start, end      sql.NullString
			duration        sql.NullInt64
		)
		if err := rows.Scan(&month, &date, &workTime, &total, &start, &end, &duration); err != nil {
			return nil, err
		}

		days := result[month]
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, model.DayRecord{Date: date, WorkTime: workTime, TotalBreakTime: total, Breaks: []model.BreakRecord{}})
		}
		if start.Valid {
			last := &days[len(days)-1]
			last.Breaks = append(last.Breaks, model.BreakRecord{Start: start.String, End: end.String, Duration: int(duration.Int64)})
		}
		result[month] = days
	}
	return result, rows.Err()
}

func insertBreak(ctx context.Context, tx *sql.Tx, userID, date string, b model.BreakRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO break_records (user_id, date, start_time, end_time, duration) VALUES ($1, $2, $3, $4, $5)`,
		userID, date, b.Start, b.End, b.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert break for %s: %w", date, err)
	}
	return nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)

func userArgs(u model.User) []any {
	return []any{u.ID, u.Name, u.Email, u.Status, u.CurrentBreakStart, u.DailyWorkTime}
}

func totalOf(breaks []model.BreakRecord) int {
	total := 0
	for _, b := range breaks {
		total += b.Duration
	}
	return total
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u     model.User
		start sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Status, &start, &u.DailyWorkTime); err != nil {
		return nil, err
	}
	if start.Valid {
		t := start.Time
		u.CurrentBreakStart = &t
	}
	return &u, nil
}
