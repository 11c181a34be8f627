package schedule

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
)

// Weekday names accepted by the day field.
var weekdays = map[string]bool{
	"Monday":    true,
	"Tuesday":   true,
	"Wednesday": true,
	"Thursday":  true,
	"Friday":    true,
	"Saturday":  true,
	"Sunday":    true,
}

// Service implements the schedule registry on top of a Store.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// List returns schedules filtered by class and/or section.
func (s *Service) List(ctx context.Context, class, section string) ([]Schedule, error) {
	return s.store.List(ctx, class, section)
}

// ListByDay returns the slots for one weekday sorted by start time.
func (s *Service) ListByDay(ctx context.Context, day string) ([]Schedule, error) {
	return s.store.ListByDay(ctx, day)
}

// Create validates and persists a new slot.
func (s *Service) Create(ctx context.Context, in Schedule) (Schedule, error) {
	if err := validate(&in); err != nil {
		return Schedule{}, err
	}
	in.ID = uuid.NewString()
	return s.store.Insert(ctx, in)
}

// Update validates and full-replaces the six mutable fields of an existing slot.
func (s *Service) Update(ctx context.Context, id string, in Schedule) (Schedule, error) {
	if err := validate(&in); err != nil {
		return Schedule{}, err
	}
	in.ID = id
	return s.store.Update(ctx, in)
}

// Delete removes a slot; absent ids yield ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func validate(in *Schedule) error {
	in.Class = strings.TrimSpace(in.Class)
	in.Section = strings.TrimSpace(in.Section)
	in.Day = strings.TrimSpace(in.Day)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Subject = strings.TrimSpace(in.Subject)

	if in.Class == "" || in.Section == "" || in.Day == "" || in.StartTime == "" || in.EndTime == "" || in.Subject == "" {
		return apperr.Validationf("class, section, day, startTime, endTime and subject are required")
	}
	if !weekdays[in.Day] {
		return apperr.Validationf("day must be one of the seven weekday names, got %q", in.Day)
	}
	return nil
}
