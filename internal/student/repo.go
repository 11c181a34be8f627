package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Student is one roster entry. Order is the display sort key used by
// attendance sheets; RollNumber is globally unique.
type Student struct {
	ID         string    `json:"id"`
	Order      int       `json:"order"`
	RollNumber string    `json:"rollNumber"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Section    string    `json:"section"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store is the persistence surface the service and the roster importer need.
type Store interface {
	List(ctx context.Context, class, section string) ([]Student, error)
	DistinctClasses(ctx context.Context) ([]string, error)
	DistinctSections(ctx context.Context, class string) ([]string, error)
	GetByRoll(ctx context.Context, rollNumber string) (*Student, error)
	Insert(ctx context.Context, s Student) (Student, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, students []Student) error
}

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentColumns = `id, "order", roll_number, name, class, section, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.Order, &s.RollNumber, &s.Name, &s.Class, &s.Section, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// List returns students matching the optional class/section filters,
// sorted ascending by roll number.
func (r *Repository) List(ctx context.Context, class, section string) ([]Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
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
	query += " ORDER BY roll_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// DistinctClasses returns every distinct class value.
func (r *Repository) DistinctClasses(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT class FROM students ORDER BY class`)
}

// DistinctSections returns distinct section values, optionally scoped to one class.
func (r *Repository) DistinctSections(ctx context.Context, class string) ([]string, error) {
	if class != "" {
		return r.distinct(ctx, `SELECT DISTINCT section FROM students WHERE class = $1 ORDER BY section`, class)
	}
	return r.distinct(ctx, `SELECT DISTINCT section FROM students ORDER BY section`)
}

func (r *Repository) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vals []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}

// GetByRoll returns the student with the given roll number, or nil when absent.
func (r *Repository) GetByRoll(ctx context.Context, rollNumber string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE roll_number = $1`, rollNumber)
	s, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Insert writes a new student and returns it with timestamps filled in.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, "order", roll_number, name, class, section)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.Order, s.RollNumber, s.Name, s.Class, s.Section)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Student{}, err
	}
	return s, nil
}

// Delete removes a student; deleting an absent id is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

// ReplaceAll swaps the whole roster in one transaction: delete everything,
// then insert the new records. Either all writes land or none do.
func (r *Repository) ReplaceAll(ctx context.Context, students []Student) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM students`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO students (id, "order", roll_number, name, class, section)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range students {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Order, s.RollNumber, s.Name, s.Class, s.Section); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
