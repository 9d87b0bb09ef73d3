package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abhi542/MouldLensAI/internal/entity"
)

// timeWindow resolves the query window: explicit start_date/end_date
// (YYYY-MM-DD, end day inclusive) win over the rolling hours default.
func timeWindow(c *gin.Context) (time.Time, time.Time, error) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate != "" && endDate != "" {
		from, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q, use YYYY-MM-DD", startDate)
		}
		to, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q, use YYYY-MM-DD", endDate)
		}
		// Include the whole end day.
		return from, to.AddDate(0, 0, 1), nil
	}

	hours := 24
	if h := c.Query("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid hours %q", h)
		}
		hours = parsed
	}
	now := time.Now().UTC()
	return now.Add(-time.Duration(hours) * time.Hour), now, nil
}

// handleRecent returns outcome records for the dashboard, newest first.
func (s *Server) handleRecent(c *gin.Context) {
	from, to, err := timeWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := s.readings.ListRange(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("metrics.recent.query_failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store unavailable"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

type correctionRequest struct {
	Cope *string           `json:"cope"`
	Drag *entity.DragValue `json:"drag"`
}

// handleCorrect applies a human override by inserting a new record that
// points back at the original. Records are never edited in place.
func (s *Server) handleCorrect(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid correction body"})
		return
	}
	if req.Cope == nil && req.Drag == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "no changes requested"})
		return
	}

	rec, err := s.readings.InsertCorrection(c.Request.Context(), c.Param("id"), req.Cope, req.Drag)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		s.logger.Error("metrics.correct.failed", "record_id", c.Param("id"), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store unavailable"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// handleExport streams the audit workbook for the requested window.
func (s *Server) handleExport(c *gin.Context) {
	from, to, err := timeWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := s.exporter.ExportReadingsXLSX(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("metrics.export.failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="mould_readings.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// handleAlarms exposes the consecutive-empty alarm states.
func (s *Server) handleAlarms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cameras": s.telemetry.Snapshot()})
}
