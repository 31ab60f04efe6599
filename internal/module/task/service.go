package task

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive/server/internal/shared/config"
	"github.com/taskhive/server/internal/utils/metrics"
	"github.com/taskhive/server/internal/utils/pagination"
)

// Notifier delivers task lifecycle notifications.
// Implemented by the notification service.
type Notifier interface {
	TaskAssigned(ctx context.Context, t *Task, assigneeID, actorID int64)
	TaskCompleted(ctx context.Context, t *Task, actorID int64)
}

// MembershipChecker answers team membership questions.
// Implemented by the team service.
type MembershipChecker interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	TeamIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Actor identifies the user performing an operation.
type Actor struct {
	ID   int64
	Role string
}

// CanManage returns true for roles that may act on any task.
func (a Actor) CanManage() bool {
	return a.Role == "admin" || a.Role == "manager"
}

// Service implements task business logic.
type Service struct {
	repo     Repository
	blobs    BlobStore
	notifier Notifier
	teams    MembershipChecker
	metrics  *metrics.Metrics
	logger   *zap.Logger

	maxUploadBytes int64
	allowedExts    map[string]struct{}
}

// NewService creates a new task service.
func NewService(
	repo Repository,
	blobs BlobStore,
	notifier Notifier,
	teams MembershipChecker,
	uploadCfg *config.UploadConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	allowed := make(map[string]struct{}, len(uploadCfg.AllowedExts))
	for _, ext := range uploadCfg.AllowedExts {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &Service{
		repo:           repo,
		blobs:          blobs,
		notifier:       notifier,
		teams:          teams,
		metrics:        m,
		logger:         logger,
		maxUploadBytes: uploadCfg.MaxSizeMB * 1024 * 1024,
		allowedExts:    allowed,
	}
}

// Create creates a new task owned by the actor.
func (s *Service) Create(ctx context.Context, actor Actor, req *CreateRequest) (*Task, error) {
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if req.Category == "" {
		req.Category = CategoryOther
	}
	if !req.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if !req.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	if req.ParentTaskID != nil {
		if _, err := s.repo.GetByID(ctx, *req.ParentTaskID); err != nil {
			return nil, ErrParentNotFound
		}
	}

	t := &Task{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         StatusTodo,
		Category:       req.Category,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		OwnerID:        actor.ID,
		AssigneeID:     req.AssigneeID,
		TeamID:         req.TeamID,
		ParentTaskID:   req.ParentTaskID,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.metrics.TasksCreatedTotal.WithLabelValues(string(t.Priority), string(t.Category)).Inc()
	s.logger.Info("task created",
		zap.Int64("task_id", t.ID),
		zap.Int64("owner_id", actor.ID),
	)

	if t.AssigneeID != nil && *t.AssigneeID != actor.ID {
		s.notifier.TaskAssigned(ctx, t, *t.AssigneeID, actor.ID)
	}

	return t, nil
}

// Get returns a task if the actor may view it.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(ctx, actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns tasks visible to the actor, narrowed by the filter.
// Admins and managers see all tasks. Other users see tasks they own,
// are assigned to, or that belong to one of their teams; that scoping
// is applied by constraining the filter rather than post-filtering.
func (s *Service) List(ctx context.Context, actor Actor, filter *Filter, p *pagination.Pagination) ([]*Task, int64, error) {
	if filter == nil {
		filter = &Filter{}
	}

	if !actor.CanManage() {
		switch {
		case filter.TeamID != nil:
			ok, err := s.teams.IsMember(ctx, *filter.TeamID, actor.ID)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				return nil, 0, ErrForbidden
			}
		case filter.OwnerID != nil || filter.AssigneeID != nil:
			if filter.OwnerID != nil && *filter.OwnerID != actor.ID {
				return nil, 0, ErrForbidden
			}
			if filter.AssigneeID != nil && *filter.AssigneeID != actor.ID {
				return nil, 0, ErrForbidden
			}
		default:
			teamIDs, err := s.teams.TeamIDs(ctx, actor.ID)
			if err != nil {
				return nil, 0, err
			}
			filter.visibleToUser = &actor.ID
			filter.visibleTeams = teamIDs
		}
	}

	return s.repo.List(ctx, filter, p)
}

// Update applies a partial update, handling status transitions.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, req *UpdateRequest) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkModifyAccess(ctx, actor, t); err != nil {
		return nil, err
	}
	if t.Status == StatusArchived && (req.Status == nil || *req.Status == StatusArchived) {
		return nil, ErrArchivedTaskReadOnly
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		t.Priority = *req.Priority
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		t.Category = *req.Category
	}
	if req.EstimatedHours != nil {
		t.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		t.ActualHours = req.ActualHours
	}
	if req.ProgressPercent != nil {
		t.ProgressPercent = *req.ProgressPercent
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.TeamID != nil {
		t.TeamID = req.TeamID
	}

	previousAssignee := t.AssigneeID
	if req.AssigneeID != nil {
		t.AssigneeID = req.AssigneeID
	}

	var completed bool
	if req.Status != nil && *req.Status != t.Status {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		completed = s.applyStatusTransition(t, *req.Status)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		zap.Int64("task_id", t.ID),
		zap.Int64("updated_by", actor.ID),
		zap.String("status", string(t.Status)),
	)

	if completed {
		s.metrics.TasksCompletedTotal.Inc()
		s.notifier.TaskCompleted(ctx, t, actor.ID)
	}

	newlyAssigned := t.AssigneeID != nil &&
		(previousAssignee == nil || *previousAssignee != *t.AssigneeID)
	if newlyAssigned && *t.AssigneeID != actor.ID {
		s.notifier.TaskAssigned(ctx, t, *t.AssigneeID, actor.ID)
	}

	return t, nil
}

// applyStatusTransition moves the task to the new status and maintains
// the timestamps and progress that depend on it. Returns true if the
// task just became completed.
func (s *Service) applyStatusTransition(t *Task, next Status) bool {
	now := time.Now()

	switch next {
	case StatusInProgress:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
	case StatusCompleted:
		t.CompletedAt = &now
		t.ProgressPercent = 100
	}

	if t.Status == StatusCompleted && next != StatusCompleted && next != StatusArchived {
		t.CompletedAt = nil
	}

	wasCompleted := t.Status == StatusCompleted
	t.Status = next
	return next == StatusCompleted && !wasCompleted
}

// Delete removes a task and its attachments.
// Only the owner or an admin/manager may delete.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.OwnerID != actor.ID && !actor.CanManage() {
		return ErrForbidden
	}

	for i := range t.Attachments {
		if err := s.blobs.Delete(ctx, t.Attachments[i].StoredName); err != nil {
			s.logger.Warn("failed to delete attachment blob",
				zap.Int64("attachment_id", t.Attachments[i].ID),
				zap.Error(err),
			)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted",
		zap.Int64("task_id", id),
		zap.Int64("deleted_by", actor.ID),
	)
	return nil
}

// --- Attachments ---

// UploadAttachment stores a file and records it against the task.
func (s *Service) UploadAttachment(ctx context.Context, actor Actor, taskID int64, fileName, contentType string, size int64, body io.Reader) (*Attachment, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.checkModifyAccess(ctx, actor, t); err != nil {
		return nil, err
	}

	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if len(s.allowedExts) > 0 {
		if _, ok := s.allowedExts[ext]; !ok {
			return nil, ErrFileTypeNotAllowed
		}
	}

	storedName := uuid.New().String()
	if ext != "" {
		storedName = fmt.Sprintf("%s.%s", storedName, ext)
	}

	if err := s.blobs.Put(ctx, storedName, body, size, contentType); err != nil {
		return nil, err
	}

	attachment := &Attachment{
		TaskID:      taskID,
		FileName:    fileName,
		StoredName:  storedName,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  actor.ID,
	}

	if err := s.repo.CreateAttachment(ctx, attachment); err != nil {
		if delErr := s.blobs.Delete(ctx, storedName); delErr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				zap.String("key", storedName),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	s.logger.Info("attachment uploaded",
		zap.Int64("task_id", taskID),
		zap.Int64("attachment_id", attachment.ID),
		zap.Int64("size_bytes", size),
	)

	return attachment, nil
}

// ListAttachments returns the attachments of a task.
func (s *Service) ListAttachments(ctx context.Context, actor Actor, taskID int64) ([]*Attachment, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewAccess(ctx, actor, t); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, taskID)
}

// OpenAttachment returns the attachment metadata and a reader over its content.
// The caller must close the reader.
func (s *Service) OpenAttachment(ctx context.Context, actor Actor, taskID, attachmentID int64) (*Attachment, io.ReadCloser, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkViewAccess(ctx, actor, t); err != nil {
		return nil, nil, err
	}

	attachment, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if attachment.TaskID != taskID {
		return nil, nil, ErrAttachmentNotFound
	}

	body, err := s.blobs.Get(ctx, attachment.StoredName)
	if err != nil {
		return nil, nil, err
	}
	return attachment, body, nil
}

// DeleteAttachment removes an attachment record and its stored file.
func (s *Service) DeleteAttachment(ctx context.Context, actor Actor, taskID, attachmentID int64) error {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.checkModifyAccess(ctx, actor, t); err != nil {
		return err
	}

	attachment, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.TaskID != taskID {
		return ErrAttachmentNotFound
	}

	if err := s.repo.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, attachment.StoredName); err != nil {
		s.logger.Warn("failed to delete attachment blob",
			zap.Int64("attachment_id", attachmentID),
			zap.Error(err),
		)
	}
	return nil
}

// --- Access checks ---

func (s *Service) checkViewAccess(ctx context.Context, actor Actor, t *Task) error {
	if actor.CanManage() || t.OwnerID == actor.ID {
		return nil
	}
	if t.AssigneeID != nil && *t.AssigneeID == actor.ID {
		return nil
	}
	if t.TeamID != nil {
		ok, err := s.teams.IsMember(ctx, *t.TeamID, actor.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) checkModifyAccess(ctx context.Context, actor Actor, t *Task) error {
	if actor.Role == "viewer" {
		return ErrForbidden
	}
	return s.checkViewAccess(ctx, actor, t)
}
