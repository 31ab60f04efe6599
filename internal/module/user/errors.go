package user

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidUsername     = errors.New("username may only contain letters, digits, underscores and hyphens")
	ErrWeakPassword        = errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrInvalidRole         = errors.New("invalid role")
	ErrIncorrectPassword   = errors.New("current password is incorrect")
	ErrForbidden           = errors.New("access denied")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
