package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/server/internal/module/team"
	"github.com/taskhive/server/internal/utils/middleware"
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	service *Service
	teams   *team.Service
}

// NewHandler creates a new analytics handler.
func NewHandler(service *Service, teams *team.Service) *Handler {
	return &Handler{service: service, teams: teams}
}

// RegisterRoutes registers the analytics routes. All routes require
// authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analytics := r.Group("/analytics")
	{
		analytics.GET("/overview", h.Overview)
		analytics.GET("/trend", h.Trend)
		analytics.GET("/productivity", h.Productivity)
		analytics.GET("/teams/:id", h.TeamStats)
	}
}

func canManage(c *gin.Context) bool {
	role := middleware.GetRole(c)
	return role == "admin" || role == "manager"
}

// Overview returns aggregate counts for the caller's tasks.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), middleware.GetUserID(c), canManage(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Trend returns weekly created/completed counts.
func (h *Handler) Trend(c *gin.Context) {
	weeks := 8
	if v := c.Query("weeks"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 52 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid weeks, expected 1-52"})
			return
		}
		weeks = parsed
	}

	trend, err := h.service.Trend(c.Request.Context(), middleware.GetUserID(c), canManage(c), weeks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

// Productivity returns estimation and throughput averages.
func (h *Handler) Productivity(c *gin.Context) {
	productivity, err := h.service.Productivity(c.Request.Context(), middleware.GetUserID(c), canManage(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, productivity)
}

// TeamStats returns aggregate counts for one team.
// Requires team membership or a manager role.
func (h *Handler) TeamStats(c *gin.Context) {
	teamID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	if !canManage(c) {
		ok, err := h.teams.IsMember(c.Request.Context(), teamID, middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Access denied"})
			return
		}
	}

	stats, err := h.service.TeamStats(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
