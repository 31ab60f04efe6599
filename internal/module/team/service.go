package team

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskhive/server/internal/utils/pagination"
)

// Notifier delivers team membership notifications.
// Implemented by the notification service.
type Notifier interface {
	TeamMemberAdded(ctx context.Context, team *Team, userID, actorID int64)
	TeamMemberRemoved(ctx context.Context, team *Team, userID, actorID int64)
}

// Actor identifies the user performing an operation.
type Actor struct {
	ID   int64
	Role string
}

// CanManage returns true for global roles that may act on any team.
func (a Actor) CanManage() bool {
	return a.Role == "admin" || a.Role == "manager"
}

// Service implements team business logic.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a new team service.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Create creates a team; the actor becomes its owner.
func (s *Service) Create(ctx context.Context, actor Actor, req *CreateRequest) (*Team, error) {
	team := &Team{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Create(ctx, team, actor.ID); err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		zap.Int64("team_id", team.ID),
		zap.Int64("owner_id", actor.ID),
		zap.String("name", team.Name),
	)

	return team, nil
}

// Get returns a team with its member roster and counters.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Response, error) {
	team, err := s.repo.GetByIDWithMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage() && !isMemberOf(team, actor.ID) {
		return nil, ErrForbidden
	}

	return s.toResponse(ctx, team, true)
}

// List returns teams with their counters but without rosters.
// Admins and managers see all teams; other users see their own.
func (s *Service) List(ctx context.Context, actor Actor, p *pagination.Pagination) ([]*Response, int64, error) {
	var userID *int64
	if !actor.CanManage() {
		userID = &actor.ID
	}

	teams, total, err := s.repo.List(ctx, userID, p)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*Response, 0, len(teams))
	for _, team := range teams {
		resp, err := s.toResponse(ctx, team, false)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, resp)
	}

	return responses, total, nil
}

// Update changes a team's name or description.
// Requires the team owner or admin role.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, req *UpdateRequest) (*Team, error) {
	team, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamRole(ctx, actor, id, RoleAdmin); err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("team updated",
		zap.Int64("team_id", id),
		zap.Int64("updated_by", actor.ID),
	)

	return team, nil
}

// Delete removes a team and its memberships.
// Only a team owner or a global admin may delete.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if actor.Role != "admin" {
		if err := s.requireTeamRole(ctx, actor, id, RoleOwner); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("team deleted",
		zap.Int64("team_id", id),
		zap.Int64("deleted_by", actor.ID),
	)
	return nil
}

// AddMember adds a user to the team.
// The owner role cannot be granted to new members.
func (s *Service) AddMember(ctx context.Context, actor Actor, teamID int64, req *AddMemberRequest) (*Member, error) {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamRole(ctx, actor, teamID, RoleAdmin); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if role == RoleOwner {
		return nil, ErrCannotAddOwner
	}

	member := &Member{
		TeamID: teamID,
		UserID: req.UserID,
		Role:   role,
	}

	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("team member added",
		zap.Int64("team_id", teamID),
		zap.Int64("user_id", req.UserID),
		zap.String("role", string(role)),
	)

	if req.UserID != actor.ID {
		s.notifier.TeamMemberAdded(ctx, team, req.UserID, actor.ID)
	}

	return s.repo.GetMemberDetail(ctx, teamID, req.UserID)
}

// UpdateMemberRole changes a member's role.
// Demoting the last owner is rejected.
func (s *Service) UpdateMemberRole(ctx context.Context, actor Actor, teamID, userID int64, req *UpdateMemberRequest) (*Member, error) {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.requireTeamRole(ctx, actor, teamID, RoleOwner); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	member, err := s.repo.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	if member.Role == RoleOwner && req.Role != RoleOwner {
		owners, err := s.repo.CountMembersByRole(ctx, teamID, RoleOwner)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}

	member.Role = req.Role
	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("team member role updated",
		zap.Int64("team_id", teamID),
		zap.Int64("user_id", userID),
		zap.String("role", string(req.Role)),
	)

	return s.repo.GetMemberDetail(ctx, teamID, userID)
}

// RemoveMember removes a user from the team.
// Members may remove themselves; otherwise admin privileges are
// required. The last owner cannot leave.
func (s *Service) RemoveMember(ctx context.Context, actor Actor, teamID, userID int64) error {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if userID != actor.ID {
		if err := s.requireTeamRole(ctx, actor, teamID, RoleAdmin); err != nil {
			return err
		}
	}

	member, err := s.repo.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}

	if member.Role == RoleOwner {
		owners, err := s.repo.CountMembersByRole(ctx, teamID, RoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	s.logger.Info("team member removed",
		zap.Int64("team_id", teamID),
		zap.Int64("user_id", userID),
		zap.Int64("removed_by", actor.ID),
	)

	if userID != actor.ID {
		s.notifier.TeamMemberRemoved(ctx, team, userID, actor.ID)
	}

	return nil
}

// IsMember reports whether the user belongs to the team.
func (s *Service) IsMember(ctx context.Context, teamID, userID int64) (bool, error) {
	_, err := s.repo.GetMember(ctx, teamID, userID)
	if err != nil {
		if err == ErrMemberNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TeamIDs returns the IDs of the teams the user belongs to.
func (s *Service) TeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.MemberTeamIDs(ctx, userID)
}

// requireTeamRole checks that the actor holds at least the given team
// role. Global admins and managers pass unconditionally.
func (s *Service) requireTeamRole(ctx context.Context, actor Actor, teamID int64, minimum Role) error {
	if actor.CanManage() {
		return nil
	}
	member, err := s.repo.GetMember(ctx, teamID, actor.ID)
	if err != nil {
		if err == ErrMemberNotFound {
			return ErrForbidden
		}
		return err
	}
	if !member.Role.IsAtLeast(minimum) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) toResponse(ctx context.Context, team *Team, includeRoster bool) (*Response, error) {
	membersCount, err := s.repo.MembersCount(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	tasksCount, err := s.repo.TasksCount(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ID:           team.ID,
		Name:         team.Name,
		Description:  team.Description,
		IsActive:     team.IsActive,
		CreatedBy:    team.CreatedBy,
		MembersCount: membersCount,
		TasksCount:   tasksCount,
		CreatedAt:    team.CreatedAt,
		UpdatedAt:    team.UpdatedAt,
	}

	if includeRoster {
		for i := range team.Members {
			resp.Members = append(resp.Members, team.Members[i].ToResponse())
		}
	}

	return resp, nil
}

func isMemberOf(team *Team, userID int64) bool {
	for i := range team.Members {
		if team.Members[i].UserID == userID {
			return true
		}
	}
	return false
}
