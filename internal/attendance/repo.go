package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"classtrack/internal/apperr"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListForDate returns one row per student ordered by the roster order field.
// Students without a record for the day come back with a synthetic
// "not_marked" entry that only exists in the response.
func (r *Repository) ListForDate(ctx context.Context, day time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.roll_number, s.name, s.class, s."order",
		       a.id, a.status, a.created_at, a.updated_at
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id AND a.date = $1
		ORDER BY s."order"
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var (
			rec       Record
			recID     sql.NullString
			status    sql.NullString
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&rec.Student.ID, &rec.Student.RollNumber, &rec.Student.Name,
			&rec.Student.Class, &rec.Student.Order,
			&recID, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.Date = day
		rec.Status = StatusNotMarked
		if recID.Valid {
			rec.ID = recID.String
			rec.Status = status.String
			rec.CreatedAt = nullTimePtr(createdAt)
			rec.UpdatedAt = nullTimePtr(updatedAt)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Upsert inserts or replaces the record for (student, day) in a single
// statement; the unique index on (student_id, date) makes concurrent marks
// for the same key last-write-wins instead of producing duplicates.
func (r *Repository) Upsert(ctx context.Context, studentID string, day time.Time, status string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH upserted AS (
			INSERT INTO attendance (id, student_id, date, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (student_id, date)
			DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
			RETURNING id, student_id, date, status, created_at, updated_at
		)
		SELECT u.id, u.date, u.status, u.created_at, u.updated_at,
		       s.id, s.roll_number, s.name, s.class, s."order"
		FROM upserted u
		JOIN students s ON s.id = u.student_id
	`, uuid.NewString(), studentID, day, status)

	rec, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Record{}, apperr.Validationf("student %s does not exist", studentID)
		}
		return Record{}, err
	}
	return rec, nil
}

// UpdateStatus mutates the status of an existing record by id.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE attendance
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, student_id, date, status, created_at, updated_at
		)
		SELECT u.id, u.date, u.status, u.created_at, u.updated_at,
		       s.id, s.roll_number, s.name, s.class, s."order"
		FROM updated u
		JOIN students s ON s.id = u.student_id
	`, id, status)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, apperr.ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Percentages returns per-student marked/present counts over the whole ledger.
func (r *Repository) Percentages(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.roll_number, s.name, s.class, s."order",
		       COUNT(a.id) AS total,
		       COUNT(a.id) FILTER (WHERE a.status = 'present') AS present
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id
		GROUP BY s.id, s.roll_number, s.name, s.class, s."order"
		ORDER BY s."order"
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.Student.ID, &sm.Student.RollNumber, &sm.Student.Name,
			&sm.Student.Class, &sm.Student.Order, &sm.Total, &sm.Present); err != nil {
			return nil, err
		}
		res = append(res, sm)
	}
	return res, rows.Err()
}

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var (
		rec       Record
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&rec.ID, &rec.Date, &rec.Status, &createdAt, &updatedAt,
		&rec.Student.ID, &rec.Student.RollNumber, &rec.Student.Name,
		&rec.Student.Class, &rec.Student.Order)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = &createdAt
	rec.UpdatedAt = &updatedAt
	return rec, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
