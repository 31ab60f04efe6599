package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// Credentials is the login payload. Login accepts a username or an
// email address.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Registration is the sign-up payload. PasswordConfirm is checked
// client-side and never sent.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"-"`
	FullName        string `json:"full_name,omitempty"`
}

// SessionStore holds the authenticated principal and session state.
// It owns the token store: tokens are written on login/register and
// cleared on logout or auth failure.
type SessionStore struct {
	mu        sync.RWMutex
	transport Transport
	tokens    TokenStore

	principal       *Principal
	isAuthenticated bool
	loading         bool
	lastError       string
}

// NewSessionStore creates a session store over the given transport.
func NewSessionStore(transport Transport, tokens TokenStore) *SessionStore {
	return &SessionStore{
		transport: transport,
		tokens:    tokens,
	}
}

// Login authenticates and stores the token pair. On failure the
// authentication state is left unchanged and the error is recorded.
func (s *SessionStore) Login(ctx context.Context, creds Credentials) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPost, "/api/v1/auth/login", creds, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	var payload struct {
		User   Principal `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		wrapped := &RequestError{Message: "unexpected login response"}
		s.setError(wrapped)
		return wrapped
	}

	s.tokens.Set(payload.Tokens.AccessToken, payload.Tokens.RefreshToken)

	s.mu.Lock()
	s.principal = &payload.User
	s.isAuthenticated = true
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Register creates an account. Client-side pre-validation rejects
// short or mismatched passwords before any request is sent; everything
// else (email format, username charset, password complexity) is the
// server's call and its messages are surfaced verbatim.
func (s *SessionStore) Register(ctx context.Context, reg Registration) (*Principal, error) {
	if len(reg.Password) < 8 {
		err := &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
		s.setError(err)
		return nil, err
	}
	if reg.Password != reg.PasswordConfirm {
		err := &ValidationError{Field: "password_confirm", Message: "passwords do not match"}
		s.setError(err)
		return nil, err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPost, "/api/v1/auth/register", reg, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var principal Principal
	if err := json.Unmarshal(resp.Data, &principal); err != nil {
		wrapped := &RequestError{Message: "unexpected register response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()

	return &principal, nil
}

// FetchPrincipal loads the current principal from the server.
func (s *SessionStore) FetchPrincipal(ctx context.Context) (*Principal, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodGet, "/api/v1/users/me", nil, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var principal Principal
	if err := json.Unmarshal(resp.Data, &principal); err != nil {
		wrapped := &RequestError{Message: "unexpected profile response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.principal = &principal
	s.isAuthenticated = true
	s.lastError = ""
	s.mu.Unlock()

	return &principal, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
// On an auth failure the transport has already cleared the tokens, so
// the session drops to signed-out.
func (s *SessionStore) Refresh(ctx context.Context) error {
	refresh := s.tokens.RefreshToken()
	if refresh == "" {
		err := &AuthError{Message: "no refresh token"}
		s.setError(err)
		return err
	}

	body := map[string]string{"refresh_token": refresh}
	resp, err := s.transport.Request(ctx, http.MethodPost, "/api/v1/auth/refresh", body, nil)
	if err != nil {
		s.setError(err)
		if s.tokens.AccessToken() == "" {
			s.mu.Lock()
			s.principal = nil
			s.isAuthenticated = false
			s.mu.Unlock()
		}
		return err
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(resp.Data, &tokens); err != nil {
		wrapped := &RequestError{Message: "unexpected refresh response"}
		s.setError(wrapped)
		return wrapped
	}

	s.tokens.Set(tokens.AccessToken, tokens.RefreshToken)

	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Logout clears tokens and resets the session state.
func (s *SessionStore) Logout() {
	s.tokens.Clear()

	s.mu.Lock()
	s.principal = nil
	s.isAuthenticated = false
	s.lastError = ""
	s.mu.Unlock()
}

// Principal returns the current principal, or nil when signed out.
func (s *SessionStore) Principal() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// IsAuthenticated reports whether a principal is signed in.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated
}

// State returns the loading flag and last error message for rendering.
func (s *SessionStore) State() (loading bool, errMessage string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading, s.lastError
}

func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SessionStore) setError(err error) {
	s.mu.Lock()
	s.lastError = userMessage(err)
	s.mu.Unlock()
}
