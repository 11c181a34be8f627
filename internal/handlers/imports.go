package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack/internal/metrics"
	"classtrack/internal/roster"
)

// importStudents handles the multipart CSV roster upload. The upload is
// spooled to UploadDir and removed again on every exit path.
func (a *API) importStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	if !isCSV(fileHeader.Filename, fileHeader.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only CSV files are allowed"})
		return
	}

	if err := os.MkdirAll(a.UploadDir, 0o755); err != nil {
		writeError(c, err)
		return
	}
	tmpPath := filepath.Join(a.UploadDir, uuid.NewString()+".csv")
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		writeError(c, err)
		return
	}
	defer os.Remove(tmpPath)

	f, err := os.Open(tmpPath)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	students, err := a.Importer.Import(c.Request.Context(), f)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		writeError(c, err)
		return
	}

	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, roster.NewResult(students))
}

func isCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	return strings.HasPrefix(contentType, "text/csv")
}
