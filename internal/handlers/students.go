package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/student"
)

func (a *API) listStudents(c *gin.Context) {
	students, err := a.Students.List(c.Request.Context(), c.Query("class"), c.Query("section"))
	if err != nil {
		writeError(c, err)
		return
	}
	if students == nil {
		students = []student.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (a *API) listClasses(c *gin.Context) {
	classes, err := a.Students.DistinctClasses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if classes == nil {
		classes = []string{}
	}
	c.JSON(http.StatusOK, classes)
}

func (a *API) listSections(c *gin.Context) {
	sections, err := a.Students.DistinctSections(c.Request.Context(), c.Query("class"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sections == nil {
		sections = []string{}
	}
	c.JSON(http.StatusOK, sections)
}

func (a *API) createStudent(c *gin.Context) {
	var req struct {
		RollNumber string `json:"rollNumber"`
		Name       string `json:"name"`
		Class      string `json:"class"`
		Section    string `json:"section"`
		Order      int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := a.Students.Create(c.Request.Context(), req.RollNumber, req.Name, req.Class, req.Section, req.Order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) deleteStudent(c *gin.Context) {
	// Deleting an unknown id still reports success; the contract does not
	// distinguish "deleted" from "not found".
	if err := a.Students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}
