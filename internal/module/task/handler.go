package task

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/server/internal/utils/middleware"
	"github.com/taskhive/server/internal/utils/pagination"
)

// Handler handles HTTP requests for tasks.
type Handler struct {
	service *Service
}

// NewHandler creates a new task handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the task routes. All routes require authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tasks := r.Group("/tasks")
	{
		tasks.POST("", h.Create)
		tasks.GET("", h.List)
		tasks.GET("/:id", h.Get)
		tasks.PATCH("/:id", h.Update)
		tasks.DELETE("/:id", h.Delete)

		tasks.POST("/:id/attachments", h.UploadAttachment)
		tasks.GET("/:id/attachments", h.ListAttachments)
		tasks.GET("/:id/attachments/:attachment_id", h.DownloadAttachment)
		tasks.DELETE("/:id/attachments/:attachment_id", h.DeleteAttachment)
	}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetRole(c),
	}
}

// Create creates a new task.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, t.ToResponse())
}

// List returns tasks matching the query filters.
func (h *Handler) List(c *gin.Context) {
	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Normalize()

	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, total, err := h.service.List(c.Request.Context(), actorFrom(c), filter, p)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]*Response, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, t.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      responses,
		"pagination": p.Info(total),
	})
}

func filterFromQuery(c *gin.Context) (*Filter, error) {
	filter := &Filter{Search: c.Query("search")}

	for _, v := range c.QueryArray("status") {
		s := Status(v)
		if !s.Valid() {
			return nil, fmt.Errorf("invalid status %q", v)
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	for _, v := range c.QueryArray("priority") {
		p := Priority(v)
		if !p.Valid() {
			return nil, fmt.Errorf("invalid priority %q", v)
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	if v := c.Query("category"); v != "" {
		cat := Category(v)
		if !cat.Valid() {
			return nil, fmt.Errorf("invalid category %q", v)
		}
		filter.Category = &cat
	}
	for param, dst := range map[string]**int64{
		"owner_id":    &filter.OwnerID,
		"assignee_id": &filter.AssigneeID,
		"team_id":     &filter.TeamID,
	} {
		if v := c.Query(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s", param)
			}
			*dst = &id
		}
	}
	for param, dst := range map[string]**time.Time{
		"due_before": &filter.DueBefore,
		"due_after":  &filter.DueAfter,
	} {
		if v := c.Query(param); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s, expected RFC3339", param)
			}
			*dst = &ts
		}
	}
	filter.Overdue = c.Query("overdue") == "true"

	return filter, nil
}

// Get returns a task by ID.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	t, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, t.ToResponse())
}

// Update applies a partial update to a task.
func (h *Handler) Update(c *gin.Context) {
	id, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, t.ToResponse())
}

// Delete removes a task.
func (h *Handler) Delete(c *gin.Context) {
	id, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadAttachment accepts a multipart file upload for a task.
func (h *Handler) UploadAttachment(c *gin.Context) {
	id, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	attachment, err := h.service.UploadAttachment(
		c.Request.Context(),
		actorFrom(c),
		id,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment.ToResponse())
}

// ListAttachments returns the attachments of a task.
func (h *Handler) ListAttachments(c *gin.Context) {
	id, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	attachments, err := h.service.ListAttachments(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]*AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		responses = append(responses, a.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"attachments": responses})
}

// DownloadAttachment streams an attachment's content.
func (h *Handler) DownloadAttachment(c *gin.Context) {
	taskID, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	attachmentID, err := parseParam(c, "attachment_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	attachment, body, err := h.service.OpenAttachment(c.Request.Context(), actorFrom(c), taskID, attachmentID)
	if err != nil {
		handleError(c, err)
		return
	}
	defer body.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(
		http.StatusOK,
		attachment.SizeBytes,
		contentType,
		body,
		map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", attachment.FileName),
		},
	)
}

// DeleteAttachment removes an attachment.
func (h *Handler) DeleteAttachment(c *gin.Context) {
	taskID, err := parseParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	attachmentID, err := parseParam(c, "attachment_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	if err := h.service.DeleteAttachment(c.Request.Context(), actorFrom(c), taskID, attachmentID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task_not_found", "message": "Task not found"})
	case errors.Is(err, ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment_not_found", "message": "Attachment not found"})
	case errors.Is(err, ErrParentNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent_not_found", "message": "Parent task not found"})
	case errors.Is(err, ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_priority", "message": "Invalid priority"})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status", "message": "Invalid status"})
	case errors.Is(err, ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category", "message": "Invalid category"})
	case errors.Is(err, ErrArchivedTaskReadOnly):
		c.JSON(http.StatusConflict, gin.H{"error": "task_archived", "message": "Archived tasks cannot be modified"})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large", "message": "File exceeds the maximum allowed size"})
	case errors.Is(err, ErrFileTypeNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_type_not_allowed", "message": "File type not allowed"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
