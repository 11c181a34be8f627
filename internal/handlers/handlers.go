package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
	"classtrack/internal/attendance"
	"classtrack/internal/roster"
	"classtrack/internal/schedule"
	"classtrack/internal/store"
	"classtrack/internal/student"
)

// API groups the HTTP handlers and their service dependencies.
type API struct {
	Students   *student.Service
	Schedules  *schedule.Service
	Attendance *attendance.Service
	Importer   *roster.Importer
	UploadDir  string
	DB         *store.DB
	Redis      *store.Redis
}

// Register mounts every route on the engine.
func (a *API) Register(r *gin.Engine) {
	r.GET("/health", a.health)

	api := r.Group("/api")

	students := api.Group("/students")
	students.GET("", a.listStudents)
	students.GET("/classes", a.listClasses)
	students.GET("/sections", a.listSections)
	students.POST("", a.createStudent)
	students.DELETE("/:id", a.deleteStudent)

	att := api.Group("/attendance")
	att.GET("/percentage", a.attendancePercentage)
	att.GET("/:date", a.attendanceForDate)
	att.POST("", a.markAttendance)
	att.PUT("/:id", a.updateAttendance)

	schedules := api.Group("/schedules")
	schedules.GET("", a.listSchedules)
	schedules.POST("", a.createSchedule)
	schedules.PUT("/:id", a.updateSchedule)
	schedules.DELETE("/:id", a.deleteSchedule)

	api.POST("/import/students", a.importStudents)
}

func (a *API) health(c *gin.Context) {
	dbHealthy := a.DB != nil && a.DB.Client != nil && a.DB.Client.PingContext(c.Request.Context()) == nil
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"db":     dbHealthy,
		"redis":  a.Redis.Healthy(c.Request.Context()),
	})
}

// writeError maps the domain error taxonomy onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseDate accepts an ISO date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
