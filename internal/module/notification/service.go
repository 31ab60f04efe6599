package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskhive/server/internal/module/task"
	"github.com/taskhive/server/internal/module/team"
	"github.com/taskhive/server/internal/utils/metrics"
	"github.com/taskhive/server/internal/utils/pagination"
)

// Counter tracks per-user unread counts. Implemented by UnreadCache.
type Counter interface {
	Get(ctx context.Context, userID int64) (int64, bool, error)
	Set(ctx context.Context, userID, count int64) error
	Incr(ctx context.Context, userID int64) error
	Decr(ctx context.Context, userID int64) error
	Reset(ctx context.Context, userID int64) error
	Invalidate(ctx context.Context, userID int64) error
}

// Pusher delivers notifications to connected clients. Implemented by Hub.
type Pusher interface {
	Push(userID int64, n *Notification)
}

// Service implements notification business logic.
type Service struct {
	repo    Repository
	cache   Counter
	hub     Pusher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, cache Counter, hub Pusher, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		hub:     hub,
		metrics: m,
		logger:  logger,
	}
}

// Create persists a notification, bumps the user's unread count and
// pushes it to any open websocket connections.
func (s *Service) Create(ctx context.Context, n *Notification) error {
	if !n.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if err := s.cache.Incr(ctx, n.UserID); err != nil {
		s.logger.Warn("failed to bump unread cache",
			zap.Int64("user_id", n.UserID),
			zap.Error(err),
		)
		// A stale key is worse than a miss.
		s.cache.Invalidate(ctx, n.UserID)
	}

	s.metrics.NotificationsSentTotal.WithLabelValues(string(n.Type)).Inc()
	s.hub.Push(n.UserID, n)

	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, p *pagination.Pagination) ([]*Notification, int64, error) {
	return s.repo.List(ctx, userID, unreadOnly, p)
}

// UnreadCount returns the number of unread notifications, served from
// the cache when possible.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("unread cache read failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	} else if ok {
		s.metrics.CacheHitsTotal.WithLabelValues("unread_count").Inc()
		return count, nil
	}

	s.metrics.CacheMissesTotal.WithLabelValues("unread_count").Inc()

	count, err = s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, userID, count); err != nil {
		s.logger.Warn("failed to populate unread cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	return count, nil
}

// MarkRead marks one notification as read. Marking an already-read
// notification is a no-op and does not touch the counter.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) (*Notification, error) {
	n, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if n.IsRead {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	if err := s.cache.Decr(ctx, userID); err != nil {
		s.logger.Warn("failed to decrement unread cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		s.cache.Invalidate(ctx, userID)
	}

	return s.repo.GetByID(ctx, id)
}

// MarkAllRead marks every unread notification as read in one statement
// and resets the counter to zero.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Reset(ctx, userID); err != nil {
		s.logger.Warn("failed to reset unread cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		s.cache.Invalidate(ctx, userID)
	}

	s.logger.Info("notifications marked read",
		zap.Int64("user_id", userID),
		zap.Int64("count", affected),
	)

	return affected, nil
}

// Delete removes a notification. Deleting an unread notification also
// decrements the counter.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if !n.IsRead {
		if err := s.cache.Decr(ctx, userID); err != nil {
			s.logger.Warn("failed to decrement unread cache",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			s.cache.Invalidate(ctx, userID)
		}
	}

	return nil
}

func (s *Service) getOwned(ctx context.Context, userID, id int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrForbidden
	}
	return n, nil
}

// --- Task and team event adapters ---

// TaskAssigned notifies a user that a task was assigned to them.
func (s *Service) TaskAssigned(ctx context.Context, t *task.Task, assigneeID, actorID int64) {
	s.deliver(ctx, &Notification{
		UserID:  assigneeID,
		Type:    TypeTaskAssigned,
		Title:   "Task assigned to you",
		Message: fmt.Sprintf("You have been assigned to %q", t.Title),
		TaskID:  &t.ID,
	})
}

// TaskCompleted notifies the task owner that their task was completed.
func (s *Service) TaskCompleted(ctx context.Context, t *task.Task, actorID int64) {
	if t.OwnerID == actorID {
		return
	}
	s.deliver(ctx, &Notification{
		UserID:  t.OwnerID,
		Type:    TypeTaskCompleted,
		Title:   "Task completed",
		Message: fmt.Sprintf("%q has been completed", t.Title),
		TaskID:  &t.ID,
	})
}

// TeamMemberAdded notifies a user that they were added to a team.
func (s *Service) TeamMemberAdded(ctx context.Context, tm *team.Team, userID, actorID int64) {
	s.deliver(ctx, &Notification{
		UserID:  userID,
		Type:    TypeTeamInvited,
		Title:   "Added to team",
		Message: fmt.Sprintf("You have been added to team %q", tm.Name),
		TeamID:  &tm.ID,
	})
}

// TeamMemberRemoved notifies a user that they were removed from a team.
func (s *Service) TeamMemberRemoved(ctx context.Context, tm *team.Team, userID, actorID int64) {
	s.deliver(ctx, &Notification{
		UserID:  userID,
		Type:    TypeTeamRemoved,
		Title:   "Removed from team",
		Message: fmt.Sprintf("You have been removed from team %q", tm.Name),
		TeamID:  &tm.ID,
	})
}

// deliver creates a notification, logging failures instead of
// propagating them. Event notifications are best-effort and must not
// fail the operation that triggered them.
func (s *Service) deliver(ctx context.Context, n *Notification) {
	if err := s.Create(ctx, n); err != nil {
		s.logger.Error("failed to deliver notification",
			zap.Int64("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}
