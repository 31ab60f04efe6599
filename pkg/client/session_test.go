package client

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_RegisterValidation(t *testing.T) {
	transport := &fakeTransport{
		handler: func(_, _ string, _ any, _ url.Values) (*Response, error) {
			t.Fatal("no request expected before validation passes")
			return nil, nil
		},
	}
	store := NewSessionStore(transport, NewMemoryTokenStore())

	t.Run("short password", func(t *testing.T) {
		_, err := store.Register(context.Background(), Registration{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "short1A",
			PasswordConfirm: "short1A",
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "password", validationErr.Field)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		_, err := store.Register(context.Background(), Registration{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "Sup3rsecret",
			PasswordConfirm: "Sup3rsecret!",
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "password_confirm", validationErr.Field)
	})

	assert.Equal(t, 0, transport.callCount())
}

func TestSessionStore_LoginStoresTokens(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, _ any, _ url.Values) (*Response, error) {
			assert.Equal(t, "POST", method)
			assert.Equal(t, "/api/v1/auth/login", path)
			return jsonResponse(t, 200, map[string]any{
				"user": Principal{ID: 1, Username: "alice", Role: "member"},
				"tokens": map[string]any{
					"access_token":  "access-abc",
					"refresh_token": "refresh-def",
				},
			}), nil
		},
	}

	tokens := NewMemoryTokenStore()
	store := NewSessionStore(transport, tokens)

	require.NoError(t, store.Login(context.Background(), Credentials{Login: "alice", Password: "Sup3rsecret"}))

	assert.True(t, store.IsAuthenticated())
	require.NotNil(t, store.Principal())
	assert.Equal(t, "alice", store.Principal().Username)
	assert.Equal(t, "access-abc", tokens.AccessToken())
	assert.Equal(t, "refresh-def", tokens.RefreshToken())
}

func TestSessionStore_LoginFailureLeavesStateUnchanged(t *testing.T) {
	transport := &fakeTransport{
		handler: func(_, _ string, _ any, _ url.Values) (*Response, error) {
			return nil, &AuthError{Message: "Invalid username or password"}
		},
	}

	tokens := NewMemoryTokenStore()
	store := NewSessionStore(transport, tokens)

	err := store.Login(context.Background(), Credentials{Login: "alice", Password: "wrong"})
	require.Error(t, err)

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Principal())
	assert.Empty(t, tokens.AccessToken())

	_, errMsg := store.State()
	assert.Equal(t, "Invalid username or password", errMsg)
}

func TestSessionStore_RefreshRotatesTokens(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any, _ url.Values) (*Response, error) {
			assert.Equal(t, "POST", method)
			assert.Equal(t, "/api/v1/auth/refresh", path)
			assert.Equal(t, map[string]string{"refresh_token": "old-refresh"}, body)
			return jsonResponse(t, 200, map[string]any{
				"access_token":  "new-access",
				"refresh_token": "new-refresh",
			}), nil
		},
	}

	tokens := NewMemoryTokenStore()
	tokens.Set("old-access", "old-refresh")
	store := NewSessionStore(transport, tokens)

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, "new-access", tokens.AccessToken())
	assert.Equal(t, "new-refresh", tokens.RefreshToken())
}

func TestSessionStore_RefreshWithoutTokenFailsFast(t *testing.T) {
	transport := &fakeTransport{
		handler: func(_, _ string, _ any, _ url.Values) (*Response, error) {
			t.Fatal("no request expected without a refresh token")
			return nil, nil
		},
	}

	store := NewSessionStore(transport, NewMemoryTokenStore())

	var authErr *AuthError
	require.ErrorAs(t, store.Refresh(context.Background()), &authErr)
	assert.Equal(t, 0, transport.callCount())
}

func TestSessionStore_Logout(t *testing.T) {
	transport := &fakeTransport{
		handler: func(_, _ string, _ any, _ url.Values) (*Response, error) {
			return jsonResponse(t, 200, map[string]any{
				"user":   Principal{ID: 1, Username: "alice"},
				"tokens": map[string]any{"access_token": "a", "refresh_token": "r"},
			}), nil
		},
	}

	tokens := NewMemoryTokenStore()
	store := NewSessionStore(transport, tokens)
	require.NoError(t, store.Login(context.Background(), Credentials{Login: "alice", Password: "Sup3rsecret"}))

	store.Logout()

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Principal())
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
}
