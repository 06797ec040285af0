package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Pranavsingh431/thermo-final/config"
	"github.com/Pranavsingh431/thermo-final/service"
)

const maxPageSize = 200

// Handlers exposes the inspection pipeline over HTTP.
type Handlers struct {
	cfg *config.Config
	svc *service.Service
}

// NewHandlers creates new HTTP handlers.
func NewHandlers(cfg *config.Config, svc *service.Service) *Handlers {
	return &Handlers{cfg: cfg, svc: svc}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(c *gin.Context) {
	if err := h.svc.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "thermal-inspection",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "thermal-inspection",
	})
}

// ListReports returns stored reports, newest first.
func (h *Handlers) ListReports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	reports, total, err := h.svc.ListReports(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetReport returns a single report by id.
func (h *Handlers) GetReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.svc.GetReport(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// DeleteReport removes a report and the artifacts it owns.
func (h *Handlers) DeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteReport(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// DeleteAllReports wipes the stored report history.
func (h *Handlers) DeleteAllReports(c *gin.Context) {
	count, err := h.svc.DeleteAllReports()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "count": count})
}

// RegenerateNarrative rebuilds the narrative and PDF for a stored report.
func (h *Handlers) RegenerateNarrative(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.svc.RegenerateNarrative(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate narrative"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetTowers returns the tower registry in registration order.
func (h *Handlers) GetTowers(c *gin.Context) {
	towers := h.svc.Towers()
	c.JSON(http.StatusOK, gin.H{"towers": towers, "count": len(towers)})
}

// GetTowersGeoJSON returns the registry as a GeoJSON FeatureCollection for
// map overlays. Towers without coordinates are left out.
func (h *Handlers) GetTowersGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.TowersGeoJSON())
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report id"})
		return 0, false
	}
	return id, true
}
