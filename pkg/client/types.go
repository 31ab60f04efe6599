package client

import (
	"time"
)

// Principal is the authenticated acting user.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// Task mirrors the server's task representation. IsOverdue is computed
// server-side and never recomputed here.
type Task struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	Category        string     `json:"category"`
	ProgressPercent int        `json:"progress_percent"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	OwnerID         int64      `json:"owner_id"`
	AssigneeID      *int64     `json:"assignee_id,omitempty"`
	TeamID          *int64     `json:"team_id,omitempty"`
	IsOverdue       bool       `json:"is_overdue"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Team mirrors the server's team representation. Members is populated
// only on detail fetches; list fetches omit the roster.
type Team struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	IsActive     bool         `json:"is_active"`
	MembersCount int64        `json:"members_count"`
	TasksCount   int64        `json:"tasks_count"`
	Members      []TeamMember `json:"members,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TeamMember is one entry of a team roster, carrying the user display
// fields the server joins in.
type TeamMember struct {
	ID       int64     `json:"id"`
	TeamID   int64     `json:"team_id"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Notification mirrors the server's notification representation.
type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	IsRead    bool      `json:"is_read"`
	TaskID    *int64    `json:"task_id,omitempty"`
	TeamID    *int64    `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is the result of a filtered list query.
type Page[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

// pageInfo is the pagination envelope the server attaches to list
// responses.
type pageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
