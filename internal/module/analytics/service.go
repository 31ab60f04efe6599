package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskhive/server/internal/module/task"
)

// Service computes task analytics.
// Queries run against the tasks table directly; analytics is read-only
// and never mutates task state.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new analytics service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// scope restricts queries to tasks the user owns or is assigned to,
// unless the user can see everything.
func (s *Service) scope(ctx context.Context, userID int64, canManage bool) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&task.Task{})
	if !canManage {
		query = query.Where("owner_id = ? OR assignee_id = ?", userID, userID)
	}
	return query
}

// Overview returns aggregate counts and breakdowns.
func (s *Service) Overview(ctx context.Context, userID int64, canManage bool) (*Overview, error) {
	o := &Overview{}

	if err := s.scope(ctx, userID, canManage).Count(&o.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := s.scope(ctx, userID, canManage).
		Where("status = ?", task.StatusCompleted).
		Count(&o.CompletedTasks).Error; err != nil {
		return nil, err
	}
	if err := s.scope(ctx, userID, canManage).
		Where("due_date < ? AND status NOT IN ?",
			time.Now(), []task.Status{task.StatusCompleted, task.StatusArchived}).
		Count(&o.OverdueTasks).Error; err != nil {
		return nil, err
	}

	if o.TotalTasks > 0 {
		o.CompletionRate = float64(o.CompletedTasks) / float64(o.TotalTasks)
	}

	if err := s.scope(ctx, userID, canManage).
		Select("status, count(*) as count").
		Group("status").
		Scan(&o.ByStatus).Error; err != nil {
		return nil, err
	}
	if err := s.scope(ctx, userID, canManage).
		Select("priority, count(*) as count").
		Group("priority").
		Scan(&o.ByPriority).Error; err != nil {
		return nil, err
	}
	if err := s.scope(ctx, userID, canManage).
		Select("category, count(*) as count").
		Group("category").
		Scan(&o.ByCategory).Error; err != nil {
		return nil, err
	}

	return o, nil
}

// Trend returns weekly created/completed counts for the past `weeks`
// weeks, oldest first. Weeks with no activity are included with zero
// counts.
func (s *Service) Trend(ctx context.Context, userID int64, canManage bool, weeks int) ([]TrendPoint, error) {
	if weeks <= 0 {
		weeks = 8
	}

	now := time.Now()
	// Truncate to the start of the current week (Monday).
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	currentWeekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weekday - 1))
	since := currentWeekStart.AddDate(0, 0, -7*(weeks-1))

	type weekRow struct {
		Week  time.Time
		Count int64
	}

	var created, completed []weekRow
	if err := s.scope(ctx, userID, canManage).
		Select("date_trunc('week', created_at) as week, count(*) as count").
		Where("created_at >= ?", since).
		Group("week").
		Scan(&created).Error; err != nil {
		return nil, err
	}
	if err := s.scope(ctx, userID, canManage).
		Select("date_trunc('week', completed_at) as week, count(*) as count").
		Where("completed_at >= ?", since).
		Group("week").
		Scan(&completed).Error; err != nil {
		return nil, err
	}

	points := make([]TrendPoint, weeks)
	index := make(map[time.Time]*TrendPoint, weeks)
	for i := range points {
		points[i].WeekStart = since.AddDate(0, 0, 7*i)
		index[points[i].WeekStart.Truncate(24*time.Hour)] = &points[i]
	}

	for _, row := range created {
		if p, ok := index[row.Week.Truncate(24*time.Hour)]; ok {
			p.Created = row.Count
		}
	}
	for _, row := range completed {
		if p, ok := index[row.Week.Truncate(24*time.Hour)]; ok {
			p.Completed = row.Count
		}
	}

	return points, nil
}

// Productivity returns estimation and throughput averages over
// completed tasks.
func (s *Service) Productivity(ctx context.Context, userID int64, canManage bool) (*Productivity, error) {
	p := &Productivity{}

	row := struct {
		AvgEstimated  *float64
		AvgActual     *float64
		AvgCompletion *float64
	}{}

	err := s.scope(ctx, userID, canManage).
		Where("status = ?", task.StatusCompleted).
		Select(`avg(estimated_hours) as avg_estimated,
			avg(actual_hours) as avg_actual,
			avg(extract(epoch from (completed_at - created_at)) / 86400) as avg_completion`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	if row.AvgEstimated != nil {
		p.AvgEstimatedHours = *row.AvgEstimated
	}
	if row.AvgActual != nil {
		p.AvgActualHours = *row.AvgActual
	}
	if row.AvgCompletion != nil {
		p.AvgCompletionDays = *row.AvgCompletion
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := s.scope(ctx, userID, canManage).
		Where("status = ? AND completed_at >= ?", task.StatusCompleted, weekAgo).
		Count(&p.TasksCompletedWeek).Error; err != nil {
		return nil, err
	}

	p.RecentActivity = []RecentActivity{}
	if err := s.scope(ctx, userID, canManage).
		Where("status = ?", task.StatusCompleted).
		Select("id as task_id, title, completed_at").
		Order("completed_at DESC").
		Limit(10).
		Scan(&p.RecentActivity).Error; err != nil {
		return nil, err
	}

	return p, nil
}

// TeamStats returns aggregate task counts for one team.
func (s *Service) TeamStats(ctx context.Context, teamID int64) (*TeamStats, error) {
	stats := &TeamStats{TeamID: teamID}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&task.Task{}).Where("team_id = ?", teamID)
	}

	if err := base().Count(&stats.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", task.StatusCompleted).Count(&stats.CompletedTasks).Error; err != nil {
		return nil, err
	}
	if err := base().
		Where("due_date < ? AND status NOT IN ?",
			time.Now(), []task.Status{task.StatusCompleted, task.StatusArchived}).
		Count(&stats.OverdueTasks).Error; err != nil {
		return nil, err
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}

	if err := s.db.WithContext(ctx).
		Table("team_members").
		Where("team_id = ?", teamID).
		Count(&stats.MembersCount).Error; err != nil {
		return nil, err
	}

	stats.Members = []MemberStats{}
	err := s.db.WithContext(ctx).
		Table("team_members tm").
		Select(`tm.user_id,
			u.username,
			count(t.id) as assigned_tasks,
			count(t.id) filter (where t.status = ?) as completed_tasks`, task.StatusCompleted).
		Joins("JOIN users u ON u.id = tm.user_id").
		Joins("LEFT JOIN tasks t ON t.team_id = tm.team_id AND t.assignee_id = tm.user_id").
		Where("tm.team_id = ?", teamID).
		Group("tm.user_id, u.username").
		Order("tm.user_id").
		Scan(&stats.Members).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
