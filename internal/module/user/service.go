package user

import (
	"context"
	"regexp"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/server/internal/module/auth"
	"github.com/taskhive/server/internal/utils/metrics"
	"github.com/taskhive/server/internal/utils/pagination"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Service implements user account business logic.
type Service struct {
	repo    Repository
	jwt     *auth.JWTManager
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, jwt *auth.JWTManager, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		jwt:     jwt,
		metrics: m,
		logger:  logger,
	}
}

// Register creates a new account with the member role.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, ErrInvalidUsername
	}
	if err := validatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         RoleMember,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.metrics.RecordAuthEvent("register", "failure")
		return nil, err
	}

	s.metrics.RecordAuthEvent("register", "success")
	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates by username or email and issues a token pair.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, *TokenResponse, error) {
	user, err := s.repo.GetByLogin(ctx, req.Login)
	if err != nil {
		s.metrics.RecordAuthEvent("login", "failure")
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordAuthEvent("login", "failure")
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.RecordAuthEvent("login", "disabled")
		return nil, nil, ErrAccountDisabled
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record last login",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.RecordAuthEvent("login", "success")
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))

	return user, tokens, nil
}

// Refresh validates a refresh token and issues a fresh token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.RecordAuthEvent("refresh", "failure")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuthEvent("refresh", "success")
	return tokens, nil
}

func (s *Service) issueTokens(user *User) (*TokenResponse, error) {
	accessToken, _, err := s.jwt.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwt.GetAccessTokenExpiry().Seconds()),
	}, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns users matching the filter.
// Only admins and managers may list users.
func (s *Service) List(ctx context.Context, requesterRole Role, filter *Filter, p *pagination.Pagination) ([]*User, int64, error) {
	if requesterRole != RoleAdmin && requesterRole != RoleManager {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, filter, p)
}

// Update applies a partial update to a user.
// Role and active-state changes require the admin role.
func (s *Service) Update(ctx context.Context, requesterID int64, requesterRole Role, targetID int64, req *UpdateRequest) (*User, error) {
	if requesterID != targetID && requesterRole != RoleAdmin {
		return nil, ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Role != nil {
		if requesterRole != RoleAdmin {
			return nil, ErrForbidden
		}
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if requesterRole != RoleAdmin {
			return nil, ErrForbidden
		}
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		zap.Int64("user_id", user.ID),
		zap.Int64("updated_by", requesterID),
	)

	return user, nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrIncorrectPassword
	}
	if err := validatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// Delete removes an account. Admins may delete anyone, users only themselves.
func (s *Service) Delete(ctx context.Context, requesterID int64, requesterRole Role, targetID int64) error {
	if requesterID != targetID && requesterRole != RoleAdmin {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info("user deleted",
		zap.Int64("user_id", targetID),
		zap.Int64("deleted_by", requesterID),
	)
	return nil
}

// validatePasswordStrength requires at least one uppercase letter,
// one lowercase letter and one digit.
func validatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
