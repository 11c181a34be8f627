package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack/internal/apperr"
	"classtrack/internal/attendance"
	"classtrack/internal/roster"
	"classtrack/internal/schedule"
	"classtrack/internal/student"
)

// In-memory stores backing the services under test.

type studentStore struct {
	students []student.Student
}

func (f *studentStore) List(_ context.Context, class, section string) ([]student.Student, error) {
	var out []student.Student
	for _, s := range f.students {
		if class != "" && s.Class != class {
			continue
		}
		if section != "" && s.Section != section {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (f *studentStore) DistinctClasses(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, s := range f.students {
		if !seen[s.Class] {
			seen[s.Class] = true
			out = append(out, s.Class)
		}
	}
	return out, nil
}

func (f *studentStore) DistinctSections(_ context.Context, class string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, s := range f.students {
		if class != "" && s.Class != class {
			continue
		}
		if !seen[s.Section] {
			seen[s.Section] = true
			out = append(out, s.Section)
		}
	}
	return out, nil
}

func (f *studentStore) GetByRoll(_ context.Context, roll string) (*student.Student, error) {
	for i := range f.students {
		if f.students[i].RollNumber == roll {
			return &f.students[i], nil
		}
	}
	return nil, nil
}

func (f *studentStore) Insert(_ context.Context, s student.Student) (student.Student, error) {
	f.students = append(f.students, s)
	return s, nil
}

func (f *studentStore) Delete(_ context.Context, id string) error {
	for i := range f.students {
		if f.students[i].ID == id {
			f.students = append(f.students[:i], f.students[i+1:]...)
			break
		}
	}
	return nil
}

func (f *studentStore) ReplaceAll(_ context.Context, students []student.Student) error {
	f.students = students
	return nil
}

type scheduleStore struct {
	slots map[string]schedule.Schedule
}

func (f *scheduleStore) List(_ context.Context, class, section string) ([]schedule.Schedule, error) {
	var out []schedule.Schedule
	for _, s := range f.slots {
		if class != "" && s.Class != class {
			continue
		}
		if section != "" && s.Section != section {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *scheduleStore) ListByDay(_ context.Context, day string) ([]schedule.Schedule, error) {
	var out []schedule.Schedule
	for _, s := range f.slots {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *scheduleStore) Insert(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	f.slots[s.ID] = s
	return s, nil
}

func (f *scheduleStore) Update(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	if _, ok := f.slots[s.ID]; !ok {
		return schedule.Schedule{}, apperr.ErrNotFound
	}
	f.slots[s.ID] = s
	return s, nil
}

func (f *scheduleStore) Delete(_ context.Context, id string) error {
	if _, ok := f.slots[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.slots, id)
	return nil
}

type attendanceStore struct {
	students *studentStore
	records  map[string]attendance.Record
}

func attKey(studentID string, day time.Time) string {
	return studentID + "|" + day.Format("2006-01-02")
}

func (f *attendanceStore) ref(id string) (attendance.StudentRef, bool) {
	for _, s := range f.students.students {
		if s.ID == id {
			return attendance.StudentRef{ID: s.ID, RollNumber: s.RollNumber, Name: s.Name, Class: s.Class, Order: s.Order}, true
		}
	}
	return attendance.StudentRef{}, false
}

func (f *attendanceStore) ListForDate(_ context.Context, day time.Time) ([]attendance.Record, error) {
	all := append([]student.Student(nil), f.students.students...)
	sort.Slice(all, func(i, j int) bool { return all[i].Order < all[j].Order })

	var out []attendance.Record
	for _, s := range all {
		if rec, ok := f.records[attKey(s.ID, day)]; ok {
			out = append(out, rec)
			continue
		}
		ref, _ := f.ref(s.ID)
		out = append(out, attendance.Record{Student: ref, Date: day, Status: attendance.StatusNotMarked})
	}
	return out, nil
}

func (f *attendanceStore) Upsert(_ context.Context, studentID string, day time.Time, status string) (attendance.Record, error) {
	ref, ok := f.ref(studentID)
	if !ok {
		return attendance.Record{}, apperr.Validationf("student %s does not exist", studentID)
	}
	k := attKey(studentID, day)
	rec, ok := f.records[k]
	if !ok {
		now := time.Now()
		rec = attendance.Record{ID: uuid.NewString(), Student: ref, Date: day, CreatedAt: &now, UpdatedAt: &now}
	}
	rec.Status = status
	f.records[k] = rec
	return rec, nil
}

func (f *attendanceStore) UpdateStatus(_ context.Context, id, status string) (attendance.Record, error) {
	for k, rec := range f.records {
		if rec.ID == id {
			rec.Status = status
			f.records[k] = rec
			return rec, nil
		}
	}
	return attendance.Record{}, apperr.ErrNotFound
}

func (f *attendanceStore) Percentages(context.Context) ([]attendance.Summary, error) {
	var out []attendance.Summary
	for _, s := range f.students.students {
		ref, _ := f.ref(s.ID)
		sm := attendance.Summary{Student: ref}
		for _, rec := range f.records {
			if rec.Student.ID != s.ID {
				continue
			}
			sm.Total++
			if rec.Status == attendance.StatusPresent {
				sm.Present++
			}
		}
		out = append(out, sm)
	}
	return out, nil
}

type fixture struct {
	router   *gin.Engine
	students *studentStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ss := &studentStore{}
	students := student.NewService(ss, nil)
	schedules := schedule.NewService(&scheduleStore{slots: map[string]schedule.Schedule{}})
	ledger := attendance.NewService(&attendanceStore{students: ss, records: map[string]attendance.Record{}})

	api := &API{
		Students:   students,
		Schedules:  schedules,
		Attendance: ledger,
		Importer:   roster.NewImporter(students),
		UploadDir:  t.TempDir(),
	}

	r := gin.New()
	api.Register(r)
	return &fixture{router: r, students: ss}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) createStudent(t *testing.T, roll, name, class, section string, order int) student.Student {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/students", gin.H{
		"rollNumber": roll, "name": name, "class": class, "section": section, "order": order,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s student.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestStudentRoutes(t *testing.T) {
	t.Run("empty list is an empty array", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodGet, "/api/students", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("create then list sorted by roll number", func(t *testing.T) {
		f := newFixture(t)
		f.createStudent(t, "R002", "Binu Thomas", "5", "A", 2)
		f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)

		w := f.do(t, http.MethodGet, "/api/students", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []student.Student
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "R001", got[0].RollNumber)
		assert.Equal(t, "R002", got[1].RollNumber)
	})

	t.Run("duplicate roll number is a 400", func(t *testing.T) {
		f := newFixture(t)
		f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)
		w := f.do(t, http.MethodPost, "/api/students", gin.H{
			"rollNumber": "R001", "name": "Binu Thomas", "class": "5", "section": "B",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing field is a 400", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/api/students", gin.H{"rollNumber": "R001"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("distinct classes and sections", func(t *testing.T) {
		f := newFixture(t)
		f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)
		f.createStudent(t, "R002", "Binu Thomas", "5", "B", 2)
		f.createStudent(t, "R003", "Chitra Nair", "6", "A", 3)

		w := f.do(t, http.MethodGet, "/api/students/classes", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var classes []string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &classes))
		assert.ElementsMatch(t, []string{"5", "6"}, classes)

		w = f.do(t, http.MethodGet, "/api/students/sections?class=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var sections []string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sections))
		assert.ElementsMatch(t, []string{"A", "B"}, sections)
	})

	t.Run("delete is a no-op for unknown ids", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodDelete, "/api/students/no-such-id", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAttendanceRoutes(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")

	t.Run("invalid date parameter is a 400", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodGet, "/api/attendance/not-a-date", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("one entry per student with placeholders", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)
		f.createStudent(t, "R002", "Binu Thomas", "5", "A", 2)

		w := f.do(t, http.MethodPost, "/api/attendance", gin.H{
			"studentId": s1.ID, "date": today, "status": "present",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = f.do(t, http.MethodGet, "/api/attendance/"+today, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var recs []attendance.Record
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
		require.Len(t, recs, 2)
		assert.Equal(t, "present", recs[0].Status)
		assert.Equal(t, "not_marked", recs[1].Status)
		assert.Empty(t, recs[1].ID)
	})

	t.Run("future date is a 400", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)
		tomorrow := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
		w := f.do(t, http.MethodPost, "/api/attendance", gin.H{
			"studentId": s1.ID, "date": tomorrow, "status": "present",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("second mark wins", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)
		for _, status := range []string{"absent", "present"} {
			w := f.do(t, http.MethodPost, "/api/attendance", gin.H{
				"studentId": s1.ID, "date": today, "status": status,
			})
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := f.do(t, http.MethodGet, "/api/attendance/"+today, nil)
		var recs []attendance.Record
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
		require.Len(t, recs, 1)
		assert.Equal(t, "present", recs[0].Status)
	})

	t.Run("update by unknown id is a 404", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPut, "/api/attendance/no-such-id", gin.H{"status": "present"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("percentage report", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.createStudent(t, "R001", "Asha Rao", "5", "A", 1)

		for i, status := range []string{"present", "present", "absent", "present"} {
			date := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
			w := f.do(t, http.MethodPost, "/api/attendance", gin.H{
				"studentId": s1.ID, "date": date, "status": status,
			})
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := f.do(t, http.MethodGet, "/api/attendance/percentage", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var report []attendance.Summary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.Len(t, report, 1)
		assert.Equal(t, 75.0, report[0].Percentage)
	})
}

func TestScheduleRoutes(t *testing.T) {
	slot := gin.H{
		"class": "5", "section": "A", "day": "Monday",
		"startTime": "09:00", "endTime": "09:45", "subject": "Maths",
	}

	t.Run("create and list", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/api/schedules", slot)
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, http.MethodGet, "/api/schedules?class=5&section=A", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []schedule.Schedule
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 1)
	})

	t.Run("invalid day is a 400", func(t *testing.T) {
		f := newFixture(t)
		bad := gin.H{
			"class": "5", "section": "A", "day": "Funday",
			"startTime": "09:00", "endTime": "09:45", "subject": "Maths",
		}
		w := f.do(t, http.MethodPost, "/api/schedules", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update unknown id is a 404", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPut, "/api/schedules/no-such-id", slot)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete unknown id is a 404", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodDelete, "/api/schedules/no-such-id", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fmt.Fprint(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportRoute(t *testing.T) {
	const csv = "SlNo,RegdNo,NameoftheStudent,Class,Section\n1,R101,Asha Rao,5,A\n2,R102,Binu Thomas,5,B\n"

	t.Run("missing file is a 400", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/api/import/students", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-CSV upload is rejected", func(t *testing.T) {
		f := newFixture(t)
		body, contentType := multipartCSV(t, "roster.pdf", "not a csv")
		req := httptest.NewRequest(http.MethodPost, "/api/import/students", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("well-formed upload replaces the directory", func(t *testing.T) {
		f := newFixture(t)
		f.createStudent(t, "R001", "Old Student", "4", "C", 1)

		body, contentType := multipartCSV(t, "roster.csv", csv)
		req := httptest.NewRequest(http.MethodPost, "/api/import/students", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.Len(t, f.students.students, 2)
		assert.Equal(t, "R101", f.students.students[0].RollNumber)
	})

	t.Run("row failure leaves the directory untouched", func(t *testing.T) {
		f := newFixture(t)
		f.createStudent(t, "R001", "Old Student", "4", "C", 1)

		bad := "SlNo,RegdNo,NameoftheStudent,Class,Section\n1,R101,Asha Rao,,A\n"
		body, contentType := multipartCSV(t, "roster.csv", bad)
		req := httptest.NewRequest(http.MethodPost, "/api/import/students", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		require.Len(t, f.students.students, 1)
		assert.Equal(t, "R001", f.students.students[0].RollNumber)
	})
}
