package student

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/store"
)

const (
	cacheKeyClasses  = "students:classes"
	cacheKeySections = "students:sections:"
)

// Service implements the student directory on top of a Store. The cache is
// optional; distinct-value lookups go through it when present.
type Service struct {
	store Store
	cache *store.Cache
}

// NewService creates a service backed by a store and an optional cache.
func NewService(st Store, cache *store.Cache) *Service {
	return &Service{store: st, cache: cache}
}

// List returns students filtered by class and/or section, sorted by roll number.
func (s *Service) List(ctx context.Context, class, section string) ([]Student, error) {
	return s.store.List(ctx, class, section)
}

// DistinctClasses returns the distinct class values across the roster.
func (s *Service) DistinctClasses(ctx context.Context) ([]string, error) {
	if vals, ok := s.cache.GetStrings(ctx, cacheKeyClasses); ok {
		return vals, nil
	}
	vals, err := s.store.DistinctClasses(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetStrings(ctx, cacheKeyClasses, vals)
	return vals, nil
}

// DistinctSections returns distinct section values, optionally scoped to one class.
func (s *Service) DistinctSections(ctx context.Context, class string) ([]string, error) {
	key := cacheKeySections + class
	if vals, ok := s.cache.GetStrings(ctx, key); ok {
		return vals, nil
	}
	vals, err := s.store.DistinctSections(ctx, class)
	if err != nil {
		return nil, err
	}
	s.cache.SetStrings(ctx, key, vals)
	return vals, nil
}

// Create validates and persists a new student.
func (s *Service) Create(ctx context.Context, rollNumber, name, class, section string, order int) (Student, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	name = strings.TrimSpace(name)
	class = strings.TrimSpace(class)
	section = strings.TrimSpace(section)

	if rollNumber == "" || name == "" || class == "" || section == "" {
		return Student{}, apperr.Validationf("rollNumber, name, class and section are required")
	}

	existing, err := s.store.GetByRoll(ctx, rollNumber)
	if err != nil {
		return Student{}, err
	}
	if existing != nil {
		return Student{}, apperr.Validationf("roll number %s already exists", rollNumber)
	}

	created, err := s.store.Insert(ctx, Student{
		ID:         uuid.NewString(),
		Order:      order,
		RollNumber: rollNumber,
		Name:       name,
		Class:      class,
		Section:    section,
	})
	if err != nil {
		// Backstop for a concurrent create racing past the lookup above.
		if IsUniqueViolation(err) {
			return Student{}, apperr.Validationf("roll number %s already exists", rollNumber)
		}
		return Student{}, err
	}

	s.invalidateDistinct(ctx)
	return created, nil
}

// Delete removes a student; absent ids succeed silently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDistinct(ctx)
	return nil
}

// ReplaceAll swaps the entire roster in one shot; used by the CSV importer.
func (s *Service) ReplaceAll(ctx context.Context, students []Student) error {
	if err := s.store.ReplaceAll(ctx, students); err != nil {
		return err
	}
	s.invalidateDistinct(ctx)
	return nil
}

func (s *Service) invalidateDistinct(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, "students:")
}
