package export

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/server/internal/module/task"
	"github.com/taskhive/server/internal/utils/middleware"
)

// Handler handles HTTP requests for exports.
type Handler struct {
	service *Service
}

// NewHandler creates a new export handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the export routes. All routes require
// authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/export/tasks", h.Tasks)
}

// Tasks streams a CSV or JSON export of the caller's tasks.
func (h *Handler) Tasks(c *gin.Context) {
	format := Format(c.DefaultQuery("format", "csv"))
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format, expected csv or json"})
		return
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := task.Actor{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetRole(c),
	}

	result, err := h.service.Tasks(c.Request.Context(), actor, filter, format)
	if err != nil {
		if errors.Is(err, task.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Access denied"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// filterFromQuery builds the task filter an export is narrowed by.
func filterFromQuery(c *gin.Context) (*task.Filter, error) {
	filter := &task.Filter{Search: c.Query("search")}
	for _, v := range c.QueryArray("status") {
		s := task.Status(v)
		if !s.Valid() {
			return nil, fmt.Errorf("invalid status %q", v)
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	if v := c.Query("team_id"); v != "" {
		teamID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid team_id")
		}
		filter.TeamID = &teamID
	}
	return filter, nil
}
