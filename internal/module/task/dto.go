package task

import (
	"time"
)

// CreateRequest is the payload for creating a task.
type CreateRequest struct {
	Title          string     `json:"title" binding:"required,min=1,max=200"`
	Description    string     `json:"description" binding:"max=5000"`
	Priority       Priority   `json:"priority"`
	Category       Category   `json:"category"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" binding:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	AssigneeID     *int64     `json:"assignee_id,omitempty"`
	TeamID         *int64     `json:"team_id,omitempty"`
	ParentTaskID   *int64     `json:"parent_task_id,omitempty"`
}

// UpdateRequest is the payload for a partial task update.
// Nil fields are left unchanged.
type UpdateRequest struct {
	Title           *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description     *string    `json:"description,omitempty" binding:"omitempty,max=5000"`
	Priority        *Priority  `json:"priority,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Category        *Category  `json:"category,omitempty"`
	EstimatedHours  *float64   `json:"estimated_hours,omitempty" binding:"omitempty,gte=0"`
	ActualHours     *float64   `json:"actual_hours,omitempty" binding:"omitempty,gte=0"`
	ProgressPercent *int       `json:"progress_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	AssigneeID      *int64     `json:"assignee_id,omitempty"`
	TeamID          *int64     `json:"team_id,omitempty"`
}

// Filter narrows task listing. Statuses and Priorities match any of
// the given values.
type Filter struct {
	Statuses   []Status
	Priorities []Priority
	Category   *Category
	OwnerID    *int64
	AssigneeID *int64
	TeamID     *int64
	Search     string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Overdue    bool

	// Visibility scoping for non-manager actors, set by the service:
	// owner, assignee or any of the actor's teams.
	visibleToUser *int64
	visibleTeams  []int64
}

// Response is the API representation of a task.
type Response struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        Priority   `json:"priority"`
	Status          Status     `json:"status"`
	Category        Category   `json:"category"`
	EstimatedHours  *float64   `json:"estimated_hours,omitempty"`
	ActualHours     *float64   `json:"actual_hours,omitempty"`
	ProgressPercent int        `json:"progress_percent"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	OwnerID         int64      `json:"owner_id"`
	AssigneeID      *int64     `json:"assignee_id,omitempty"`
	TeamID          *int64     `json:"team_id,omitempty"`
	ParentTaskID    *int64     `json:"parent_task_id,omitempty"`
	IsOverdue       bool       `json:"is_overdue"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Attachments []*AttachmentResponse `json:"attachments,omitempty"`
}

// ToResponse converts a task to its API representation.
// IsOverdue is computed at serialization time, never stored.
func (t *Task) ToResponse() *Response {
	resp := &Response{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        t.Priority,
		Status:          t.Status,
		Category:        t.Category,
		EstimatedHours:  t.EstimatedHours,
		ActualHours:     t.ActualHours,
		ProgressPercent: t.ProgressPercent,
		DueDate:         t.DueDate,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
		OwnerID:         t.OwnerID,
		AssigneeID:      t.AssigneeID,
		TeamID:          t.TeamID,
		ParentTaskID:    t.ParentTaskID,
		IsOverdue:       t.IsOverdue(),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for i := range t.Attachments {
		resp.Attachments = append(resp.Attachments, t.Attachments[i].ToResponse())
	}
	return resp
}

// AttachmentResponse is the API representation of an attachment.
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts an attachment to its API representation.
func (a *Attachment) ToResponse() *AttachmentResponse {
	return &AttachmentResponse{
		ID:          a.ID,
		TaskID:      a.TaskID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}
