package team

import "errors"

var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrNameTaken       = errors.New("team name already taken")
	ErrMemberNotFound  = errors.New("member not found")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrInvalidRole     = errors.New("invalid role")
	ErrLastOwner       = errors.New("team must retain at least one owner")
	ErrForbidden       = errors.New("access denied")
	ErrCannotAddOwner  = errors.New("owner role can only be granted to existing members")
)
