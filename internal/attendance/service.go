package attendance

import (
	"context"
	"math"
	"time"

	"classtrack/internal/apperr"
)

// Attendance statuses. A student with no record for a day is reported as
// not_marked without one ever being written.
const (
	StatusPresent   = "present"
	StatusAbsent    = "absent"
	StatusNotMarked = "not_marked"
)

// StudentRef is the slice of the student record embedded in attendance responses.
type StudentRef struct {
	ID         string `json:"id"`
	RollNumber string `json:"rollNumber"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Order      int    `json:"order"`
}

// Record is one per-student-per-day attendance mark. Placeholder entries have
// an empty ID and nil timestamps.
type Record struct {
	ID        string     `json:"id,omitempty"`
	Student   StudentRef `json:"student"`
	Date      time.Time  `json:"date"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Summary is one row of the percentage report.
type Summary struct {
	Student    StudentRef `json:"student"`
	Total      int        `json:"total"`
	Present    int        `json:"present"`
	Percentage float64    `json:"percentage"`
}

// Store is the persistence surface for the ledger.
type Store interface {
	ListForDate(ctx context.Context, day time.Time) ([]Record, error)
	Upsert(ctx context.Context, studentID string, day time.Time, status string) (Record, error)
	UpdateStatus(ctx context.Context, id, status string) (Record, error)
	Percentages(ctx context.Context) ([]Summary, error)
}

// Service coordinates attendance marking and reporting.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Normalize discards the time-of-day, keeping the calendar day in UTC.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validStatus(status string) bool {
	return status == StatusPresent || status == StatusAbsent || status == StatusNotMarked
}

// GetForDate returns exactly one entry per student for the given calendar day,
// in roster order.
func (s *Service) GetForDate(ctx context.Context, date time.Time) ([]Record, error) {
	return s.store.ListForDate(ctx, Normalize(date))
}

// Mark upserts the record for (student, day). Future days are rejected.
func (s *Service) Mark(ctx context.Context, studentID string, date time.Time, status string) (Record, error) {
	if studentID == "" {
		return Record{}, apperr.Validationf("studentId is required")
	}
	if !validStatus(status) {
		return Record{}, apperr.Validationf("status must be present, absent or not_marked, got %q", status)
	}
	day := Normalize(date)
	if day.After(Normalize(s.now())) {
		return Record{}, apperr.Validationf("cannot mark attendance for future dates")
	}
	return s.store.Upsert(ctx, studentID, day, status)
}

// UpdateByID mutates the status of an existing record.
func (s *Service) UpdateByID(ctx context.Context, id, status string) (Record, error) {
	if !validStatus(status) {
		return Record{}, apperr.Validationf("status must be present, absent or not_marked, got %q", status)
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// PercentageReport computes present/total*100 per student across the whole
// ledger, rounded to two decimals; students with no marked days report 0.
func (s *Service) PercentageReport(ctx context.Context) ([]Summary, error) {
	rows, err := s.store.Percentages(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Total > 0 {
			pct := float64(rows[i].Present) / float64(rows[i].Total) * 100
			rows[i].Percentage = math.Round(pct*100) / 100
		}
	}
	return rows, nil
}
