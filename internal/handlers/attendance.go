package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/metrics"
)

func (a *API) attendanceForDate(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}

	records, err := a.Attendance.GetForDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (a *API) markAttendance(c *gin.Context) {
	var req struct {
		StudentID string `json:"studentId" binding:"required"`
		Date      string `json:"date" binding:"required"`
		Status    string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(c, err)
		return
	}

	rec, err := a.Attendance.Mark(c.Request.Context(), req.StudentID, date, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	metrics.MarksTotal.WithLabelValues(rec.Status).Inc()
	c.JSON(http.StatusOK, rec)
}

func (a *API) updateAttendance(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := a.Attendance.UpdateByID(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) attendancePercentage(c *gin.Context) {
	report, err := a.Attendance.PercentageReport(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if report == nil {
		report = []attendance.Summary{}
	}
	c.JSON(http.StatusOK, report)
}
