package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"classtrack/internal/apperr"
)

// Schedule is one weekly class slot. Times are zero-padded "HH:MM" strings
// so lexicographic order matches clock order.
type Schedule struct {
	ID        string    `json:"id"`
	Class     string    `json:"class"`
	Section   string    `json:"section"`
	Day       string    `json:"day"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the persistence surface used by the service and the notifier.
type Store interface {
	List(ctx context.Context, class, section string) ([]Schedule, error)
	ListByDay(ctx context.Context, day string) ([]Schedule, error)
	Insert(ctx context.Context, s Schedule) (Schedule, error)
	Update(ctx context.Context, s Schedule) (Schedule, error)
	Delete(ctx context.Context, id string) error
}

// Repository persists schedules in Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const scheduleColumns = `id, class, section, day, start_time, end_time, subject, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.Class, &s.Section, &s.Day, &s.StartTime, &s.EndTime, &s.Subject, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// List returns schedules matching the optional filters, sorted by day then start time.
func (r *Repository) List(ctx context.Context, class, section string) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	args := []any{}
	clauses := []string{}
	if class != "" {
		args = append(args, class)
		clauses = append(clauses, fmt.Sprintf("class = $%d", len(args)))
	}
	if section != "" {
		args = append(args, section)
		clauses = append(clauses, fmt.Sprintf("section = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY day, start_time"

	return r.query(ctx, query, args...)
}

// ListByDay returns the slots for one weekday sorted by start time.
func (r *Repository) ListByDay(ctx context.Context, day string) ([]Schedule, error) {
	return r.query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE day = $1 ORDER BY start_time`, day)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Insert writes a new schedule slot.
func (r *Repository) Insert(ctx context.Context, s Schedule) (Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO schedules (id, class, section, day, start_time, end_time, subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, s.ID, s.Class, s.Section, s.Day, s.StartTime, s.EndTime, s.Subject)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Update full-replaces the mutable fields of an existing slot.
func (r *Repository) Update(ctx context.Context, s Schedule) (Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE schedules
		SET class = $2, section = $3, day = $4, start_time = $5, end_time = $6, subject = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+scheduleColumns+`
	`, s.ID, s.Class, s.Section, s.Day, s.StartTime, s.EndTime, s.Subject)
	updated, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Schedule{}, apperr.ErrNotFound
		}
		return Schedule{}, err
	}
	return updated, nil
}

// Delete removes a slot; absent ids yield ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
