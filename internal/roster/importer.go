package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/student"
)

// CSV header names are the external contract with whoever produces the
// roster file; they match the school's export format verbatim.
const (
	colOrder   = "SlNo"
	colRoll    = "RegdNo"
	colName    = "NameoftheStudent"
	colClass   = "Class"
	colSection = "Section"
)

var requiredColumns = []string{colRoll, colName, colClass, colSection}

// Replacer swaps the whole student directory atomically.
type Replacer interface {
	ReplaceAll(ctx context.Context, students []student.Student) error
}

// Importer parses roster CSV uploads and replaces the student directory.
type Importer struct {
	students Replacer
}

// NewImporter creates an importer writing through the given replacer.
func NewImporter(students Replacer) *Importer {
	return &Importer{students: students}
}

// Import parses the CSV, validates every row, and only then replaces the
// directory. Any row failure aborts before a single write happens.
func (imp *Importer) Import(ctx context.Context, r io.Reader) ([]student.Student, error) {
	students, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if err := imp.students.ReplaceAll(ctx, students); err != nil {
		if student.IsUniqueViolation(err) {
			return nil, apperr.Validationf("duplicate roll numbers in CSV file")
		}
		return nil, err
	}
	return students, nil
}

// Parse reads the whole CSV into student records. The SlNo column is
// optional; when absent or non-numeric the 1-based row position is used.
func Parse(r io.Reader) ([]student.Student, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.Validationf("no valid data found in CSV file")
		}
		return nil, apperr.Validationf("error parsing CSV: %v", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, apperr.Validationf("missing required column %s; required columns: %s",
				col, strings.Join(requiredColumns, ", "))
		}
	}

	var students []student.Student
	rowNum := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validationf("error parsing CSV: %v", err)
		}
		rowNum++

		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		for _, col := range requiredColumns {
			if get(col) == "" {
				return nil, apperr.Validationf("row %d: missing required field %s", rowNum, col)
			}
		}

		order := rowNum
		if i, ok := idx[colOrder]; ok && i < len(row) {
			if parsed, err := strconv.Atoi(strings.TrimSpace(row[i])); err == nil {
				order = parsed
			}
		}

		students = append(students, student.Student{
			ID:         uuid.NewString(),
			Order:      order,
			RollNumber: get(colRoll),
			Name:       get(colName),
			Class:      get(colClass),
			Section:    get(colSection),
		})
	}

	if len(students) == 0 {
		return nil, apperr.Validationf("no valid data found in CSV file")
	}
	return students, nil
}

// Result is the import response payload.
type Result struct {
	Message  string            `json:"message"`
	Students []student.Student `json:"students"`
}

// NewResult builds the success payload for an import of n students.
func NewResult(students []student.Student) Result {
	return Result{
		Message:  fmt.Sprintf("Successfully imported %d students", len(students)),
		Students: students,
	}
}
