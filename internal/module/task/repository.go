package task

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/taskhive/server/internal/utils/pagination"
)

// Repository defines the interface for task data access.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter *Filter, p *pagination.Pagination) ([]*Task, int64, error)

	CreateAttachment(ctx context.Context, attachment *Attachment) error
	GetAttachment(ctx context.Context, id int64) (*Attachment, error)
	ListAttachments(ctx context.Context, taskID int64) ([]*Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *repository) Update(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&Attachment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

func (r *repository) List(ctx context.Context, filter *Filter, p *pagination.Pagination) ([]*Task, int64, error) {
	var tasks []*Task
	var total int64

	query := r.db.WithContext(ctx).Model(&Task{})
	query = applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if p != nil {
		query = query.Offset(p.Offset()).Limit(p.Limit())
	}

	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func applyFilter(query *gorm.DB, filter *Filter) *gorm.DB {
	if filter == nil {
		return query
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Priorities) > 0 {
		query = query.Where("priority IN ?", filter.Priorities)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueAfter)
	}
	if filter.Overdue {
		query = query.Where("due_date < ? AND status NOT IN ?",
			time.Now(), []Status{StatusCompleted, StatusArchived})
	}
	if filter.visibleToUser != nil {
		uid := *filter.visibleToUser
		if len(filter.visibleTeams) > 0 {
			query = query.Where("owner_id = ? OR assignee_id = ? OR team_id IN ?",
				uid, uid, filter.visibleTeams)
		} else {
			query = query.Where("owner_id = ? OR assignee_id = ?", uid, uid)
		}
	}
	return query
}

// --- Attachments ---

func (r *repository) CreateAttachment(ctx context.Context, attachment *Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *repository) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	var attachment Attachment
	err := r.db.WithContext(ctx).First(&attachment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

func (r *repository) ListAttachments(ctx context.Context, taskID int64) ([]*Attachment, error) {
	var attachments []*Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *repository) DeleteAttachment(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&Attachment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
