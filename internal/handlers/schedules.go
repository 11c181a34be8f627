package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/schedule"
)

type scheduleRequest struct {
	Class     string `json:"class"`
	Section   string `json:"section"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
}

func (r scheduleRequest) toModel() schedule.Schedule {
	return schedule.Schedule{
		Class:     r.Class,
		Section:   r.Section,
		Day:       r.Day,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Subject:   r.Subject,
	}
}

func (a *API) listSchedules(c *gin.Context) {
	schedules, err := a.Schedules.List(c.Request.Context(), c.Query("class"), c.Query("section"))
	if err != nil {
		writeError(c, err)
		return
	}
	if schedules == nil {
		schedules = []schedule.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

func (a *API) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := a.Schedules.Create(c.Request.Context(), req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) updateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := a.Schedules.Update(c.Request.Context(), c.Param("id"), req.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) deleteSchedule(c *gin.Context) {
	if err := a.Schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted"})
}
