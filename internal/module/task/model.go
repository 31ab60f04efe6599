package task

import (
	"time"
)

// Priority represents task urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status represents the task lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Category classifies the kind of work a task represents.
type Category string

const (
	CategoryBug           Category = "bug"
	CategoryFeature       Category = "feature"
	CategoryImprovement   Category = "improvement"
	CategoryDocumentation Category = "documentation"
	CategoryMaintenance   Category = "maintenance"
	CategoryResearch      Category = "research"
	CategoryOther         Category = "other"
)

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryImprovement,
		CategoryDocumentation, CategoryMaintenance, CategoryResearch, CategoryOther:
		return true
	}
	return false
}

// Task represents a unit of work.
type Task struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string     `gorm:"size:200;not null;index" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Priority        Priority   `gorm:"size:20;not null;default:medium;index" json:"priority"`
	Status          Status     `gorm:"size:20;not null;default:todo;index" json:"status"`
	Category        Category   `gorm:"size:30;not null;default:other;index" json:"category"`
	EstimatedHours  *float64   `json:"estimated_hours,omitempty"`
	ActualHours     *float64   `json:"actual_hours,omitempty"`
	ProgressPercent int        `gorm:"not null;default:0" json:"progress_percent"`
	DueDate         *time.Time `gorm:"index" json:"due_date,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	OwnerID         int64      `gorm:"not null;index" json:"owner_id"`
	AssigneeID      *int64     `gorm:"index" json:"assignee_id,omitempty"`
	TeamID          *int64     `gorm:"index" json:"team_id,omitempty"`
	ParentTaskID    *int64     `gorm:"index" json:"parent_task_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Attachments []Attachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// TableName specifies the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// IsOverdue reports whether the task is past its due date and not finished.
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == StatusCompleted || t.Status == StatusArchived {
		return false
	}
	return t.DueDate.Before(time.Now())
}

// Attachment represents a file attached to a task.
type Attachment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID      int64     `gorm:"not null;index" json:"task_id"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	StoredName  string    `gorm:"size:255;not null" json:"-"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	UploadedBy  int64     `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Attachment.
func (Attachment) TableName() string {
	return "task_attachments"
}
