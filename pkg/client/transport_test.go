package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tokens := NewMemoryTokenStore()
	tokens.Set("my-token", "")
	transport := NewHTTPTransport(HTTPTransportConfig{BaseURL: server.URL}, tokens)

	_, err := transport.Request(context.Background(), http.MethodGet, "/api/v1/users/me", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)
}

func TestHTTPTransport_UnauthorizedClearsTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token","message":"Invalid or expired token"}`))
	}))
	defer server.Close()

	tokens := NewMemoryTokenStore()
	tokens.Set("expired", "refresh")
	transport := NewHTTPTransport(HTTPTransportConfig{BaseURL: server.URL}, tokens)

	_, err := transport.Request(context.Background(), http.MethodGet, "/api/v1/tasks", nil, nil)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid or expired token", authErr.Message)
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
}

func TestHTTPTransport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"task_not_found","message":"Task not found"}`,
			check: func(t *testing.T, err error) {
				var notFound *NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "Task not found", notFound.Message)
			},
		},
		{
			name:   "server error with detail",
			status: http.StatusConflict,
			body:   `{"error":"name_taken","message":"Team name already taken"}`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, http.StatusConflict, reqErr.Status)
				assert.Equal(t, "Team name already taken", reqErr.Message)
			},
		},
		{
			name:   "unparseable error body",
			status: http.StatusInternalServerError,
			body:   `<html>boom</html>`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			transport := NewHTTPTransport(HTTPTransportConfig{BaseURL: server.URL}, NewMemoryTokenStore())
			_, err := transport.Request(context.Background(), http.MethodGet, "/x", nil, nil)
			tt.check(t, err)
		})
	}
}

func TestHTTPTransport_QueryEncoding(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{BaseURL: server.URL}, NewMemoryTokenStore())
	_, err := transport.Request(context.Background(), http.MethodGet, "/api/v1/tasks", nil,
		TaskFilter{Query: "fix login", Status: []string{"todo", "completed"}}.values())
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "search=fix+login")
	assert.Contains(t, gotQuery, "status=todo")
	assert.Contains(t, gotQuery, "status=completed")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", userMessage(nil))
	assert.Equal(t, "password: too short", userMessage(&ValidationError{Field: "password", Message: "too short"}))
	assert.Equal(t, "bad creds", userMessage(&AuthError{Message: "bad creds"}))
	assert.Equal(t, "request failed with status 502", userMessage(&RequestError{Status: 502}))
	assert.Equal(t, "something went wrong, please try again", userMessage(assert.AnError))
}
