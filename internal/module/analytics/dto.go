package analytics

import (
	"time"
)

// Overview summarizes the tasks visible to a user.
type Overview struct {
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	OverdueTasks   int64   `json:"overdue_tasks"`
	CompletionRate float64 `json:"completion_rate"`

	ByStatus   []StatusCount   `json:"by_status"`
	ByPriority []PriorityCount `json:"by_priority"`
	ByCategory []CategoryCount `json:"by_category"`
}

// StatusCount is the number of tasks in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// PriorityCount is the number of tasks with one priority.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

// CategoryCount is the number of tasks in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TrendPoint is one week of task activity.
type TrendPoint struct {
	WeekStart time.Time `json:"week_start"`
	Created   int64     `json:"created"`
	Completed int64     `json:"completed"`
}

// Productivity summarizes estimation accuracy and throughput.
type Productivity struct {
	AvgEstimatedHours  float64          `json:"avg_estimated_hours"`
	AvgActualHours     float64          `json:"avg_actual_hours"`
	AvgCompletionDays  float64          `json:"avg_completion_days"`
	TasksCompletedWeek int64            `json:"tasks_completed_this_week"`
	RecentActivity     []RecentActivity `json:"recent_activity"`
}

// RecentActivity is one recently completed task.
type RecentActivity struct {
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// MemberStats summarizes one member's task activity within a team.
type MemberStats struct {
	UserID         int64  `json:"user_id"`
	Username       string `json:"username"`
	AssignedTasks  int64  `json:"assigned_tasks"`
	CompletedTasks int64  `json:"completed_tasks"`
}

// TeamStats summarizes one team's task activity.
type TeamStats struct {
	TeamID         int64         `json:"team_id"`
	TotalTasks     int64         `json:"total_tasks"`
	CompletedTasks int64         `json:"completed_tasks"`
	OverdueTasks   int64         `json:"overdue_tasks"`
	CompletionRate float64       `json:"completion_rate"`
	MembersCount   int64         `json:"members_count"`
	Members        []MemberStats `json:"members"`
}
