package notification

import (
	"time"
)

// Type classifies a notification.
type Type string

const (
	TypeTaskAssigned  Type = "task_assigned"
	TypeTaskUpdated   Type = "task_updated"
	TypeTaskCompleted Type = "task_completed"
	TypeTaskDueSoon   Type = "task_due_soon"
	TypeTaskOverdue   Type = "task_overdue"
	TypeTeamInvited   Type = "team_invited"
	TypeTeamRemoved   Type = "team_removed"
	TypeCommentAdded  Type = "comment_added"
	TypeMention       Type = "mention"
	TypeSystem        Type = "system"
)

// Valid returns true if the type is a known value.
func (t Type) Valid() bool {
	switch t {
	case TypeTaskAssigned, TypeTaskUpdated, TypeTaskCompleted,
		TypeTaskDueSoon, TypeTaskOverdue,
		TypeTeamInvited, TypeTeamRemoved, TypeCommentAdded,
		TypeMention, TypeSystem:
		return true
	}
	return false
}

// Notification represents a message delivered to a single user.
type Notification struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Type      Type       `gorm:"size:30;not null" json:"type"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Message   string     `gorm:"size:1000" json:"message"`
	IsRead    bool       `gorm:"not null;default:false;index" json:"is_read"`
	TaskID    *int64     `gorm:"index" json:"task_id,omitempty"`
	TeamID    *int64     `gorm:"index" json:"team_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for Notification.
func (Notification) TableName() string {
	return "notifications"
}
