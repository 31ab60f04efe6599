package team

import (
	"time"
)

// CreateRequest is the payload for creating a team.
type CreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

// UpdateRequest is the payload for a partial team update.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AddMemberRequest is the payload for adding a member.
type AddMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	Role   Role  `json:"role"`
}

// UpdateMemberRequest is the payload for changing a member's role.
type UpdateMemberRequest struct {
	Role Role `json:"role" binding:"required"`
}

// Response is the API representation of a team.
// Members is only populated on detail views; list views carry the
// counters without the roster.
type Response struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	IsActive     bool              `json:"is_active"`
	CreatedBy    int64             `json:"created_by"`
	MembersCount int64             `json:"members_count"`
	TasksCount   int64             `json:"tasks_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Members      []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse is the API representation of a team member,
// including the joined user display fields.
type MemberResponse struct {
	ID       int64     `json:"id"`
	TeamID   int64     `json:"team_id"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name,omitempty"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ToResponse converts a member to its API representation.
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Username: m.Username,
		FullName: m.FullName,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}
