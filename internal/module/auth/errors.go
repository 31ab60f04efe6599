package auth

import "errors"

// Token errors.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrWrongTokenType     = errors.New("wrong token type")
)
