package team

import (
	"time"
)

// Role represents a team member's role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid returns true if the role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Level returns the privilege level of a role for comparisons.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 100
	case RoleAdmin:
		return 75
	case RoleMember:
		return 50
	case RoleViewer:
		return 25
	default:
		return 0
	}
}

// IsAtLeast returns true if the role has at least the privileges of other.
func (r Role) IsAtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// Team represents a group of users working on shared tasks.
type Team struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:1000" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   int64     `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members []Member `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TableName specifies the table name for Team.
func (Team) TableName() string {
	return "teams"
}

// Member represents a user's membership in a team. Username and
// FullName are joined from the users table for display and never
// written through this model.
type Member struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID   int64     `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID   int64     `gorm:"not null;uniqueIndex:idx_team_user" json:"user_id"`
	Role     Role      `gorm:"size:20;not null;default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Username string `gorm:"->;-:migration" json:"username,omitempty"`
	FullName string `gorm:"->;-:migration" json:"full_name,omitempty"`
}

// TableName specifies the table name for Member.
func (Member) TableName() string {
	return "team_members"
}
