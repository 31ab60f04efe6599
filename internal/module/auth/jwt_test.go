package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	cfg := DefaultJWTConfig()
	cfg.Secret = "test-secret"
	return NewJWTManager(cfg)
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	manager := newTestManager()

	token, expiresAt, err := manager.GenerateAccessToken(42, "manager")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "taskhive", claims.Issuer)
}

func TestJWTManager_RefreshTokenRoundTrip(t *testing.T) {
	manager := newTestManager()

	token, _, err := manager.GenerateRefreshToken(7)
	require.NoError(t, err)

	claims, err := manager.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Empty(t, claims.Role)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestJWTManager_RejectsWrongTokenType(t *testing.T) {
	manager := newTestManager()

	access, _, err := manager.GenerateAccessToken(1, "member")
	require.NoError(t, err)
	refresh, _, err := manager.GenerateRefreshToken(1)
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = manager.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	manager := newTestManager()

	token, _, err := manager.GenerateAccessToken(1, "member")
	require.NoError(t, err)

	otherCfg := DefaultJWTConfig()
	otherCfg.Secret = "different-secret"
	other := NewJWTManager(otherCfg)

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig()
	cfg.Secret = "test-secret"
	cfg.AccessTokenExpiry = -time.Minute
	manager := NewJWTManager(cfg)

	token, _, err := manager.GenerateAccessToken(1, "member")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	manager := newTestManager()

	_, err := manager.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
