package team

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/taskhive/server/internal/utils/pagination"
)

// Repository defines the interface for team data access.
type Repository interface {
	Create(ctx context.Context, team *Team, ownerID int64) error
	GetByID(ctx context.Context, id int64) (*Team, error)
	GetByIDWithMembers(ctx context.Context, id int64) (*Team, error)
	Update(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, userID *int64, p *pagination.Pagination) ([]*Team, int64, error)

	AddMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, teamID, userID int64) (*Member, error)
	GetMemberDetail(ctx context.Context, teamID, userID int64) (*Member, error)
	UpdateMember(ctx context.Context, member *Member) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	CountMembersByRole(ctx context.Context, teamID int64, role Role) (int64, error)

	MembersCount(ctx context.Context, teamID int64) (int64, error)
	TasksCount(ctx context.Context, teamID int64) (int64, error)
	MemberTeamIDs(ctx context.Context, userID int64) ([]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new team repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the team and its owner membership in one transaction.
func (r *repository) Create(ctx context.Context, team *Team, ownerID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return translateUniqueViolation(err)
		}
		member := &Member{
			TeamID: team.ID,
			UserID: ownerID,
			Role:   RoleOwner,
		}
		return tx.Create(member).Error
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Team, error) {
	var team Team
	err := r.db.WithContext(ctx).First(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (r *repository) GetByIDWithMembers(ctx context.Context, id int64) (*Team, error) {
	team, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Members = members

	return team, nil
}

// listMembers returns the roster with user display fields joined in.
func (r *repository) listMembers(ctx context.Context, teamID int64) ([]Member, error) {
	var members []Member
	err := r.db.WithContext(ctx).
		Table("team_members tm").
		Select("tm.id, tm.team_id, tm.user_id, tm.role, tm.joined_at, u.username, u.full_name").
		Joins("JOIN users u ON u.id = tm.user_id").
		Where("tm.team_id = ?", teamID).
		Order("tm.joined_at ASC").
		Scan(&members).Error
	return members, err
}

func (r *repository) Update(ctx context.Context, team *Team) error {
	if err := r.db.WithContext(ctx).Save(team).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&Member{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Team{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTeamNotFound
		}
		return nil
	})
}

// List returns teams, restricted to the given user's teams when userID
// is non-nil.
func (r *repository) List(ctx context.Context, userID *int64, p *pagination.Pagination) ([]*Team, int64, error) {
	var teams []*Team
	var total int64

	query := r.db.WithContext(ctx).Model(&Team{})
	if userID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&Member{}).Select("team_id").Where("user_id = ?", *userID),
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if p != nil {
		query = query.Offset(p.Offset()).Limit(p.Limit())
	}

	if err := query.Order("created_at DESC").Find(&teams).Error; err != nil {
		return nil, 0, err
	}

	return teams, total, nil
}

// --- Members ---

func (r *repository) AddMember(ctx context.Context, member *Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *repository) GetMember(ctx context.Context, teamID, userID int64) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetMemberDetail returns one membership with the user display fields
// joined in, for API responses.
func (r *repository) GetMemberDetail(ctx context.Context, teamID, userID int64) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Table("team_members tm").
		Select("tm.id, tm.team_id, tm.user_id, tm.role, tm.joined_at, u.username, u.full_name").
		Joins("JOIN users u ON u.id = tm.user_id").
		Where("tm.team_id = ? AND tm.user_id = ?", teamID, userID).
		Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.UserID == 0 {
		return nil, ErrMemberNotFound
	}
	return &member, nil
}

func (r *repository) UpdateMember(ctx context.Context, member *Member) error {
	return r.db.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ? AND user_id = ?", member.TeamID, member.UserID).
		Update("role", member.Role).Error
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *repository) CountMembersByRole(ctx context.Context, teamID int64, role Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ? AND role = ?", teamID, role).
		Count(&count).Error
	return count, err
}

// --- Projections ---

func (r *repository) MembersCount(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	return count, err
}

// TasksCount counts tasks referencing the team. The tasks table is
// owned by the task module, so the query goes by table name.
func (r *repository) TasksCount(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("tasks").
		Where("team_id = ?", teamID).
		Count(&count).Error
	return count, err
}

func (r *repository) MemberTeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error
	return ids, err
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "name") {
		return ErrNameTaken
	}
	return err
}
