package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/auth"
	"iris/internal/identity"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/session"
	"iris/pkg/validator"
)

// SessionStore registers and revokes login sessions
type SessionStore interface {
	Save(ctx context.Context, jti string, rec session.Record, ttl time.Duration) error
	Revoke(ctx context.Context, jti string) error
}

// LoginRequest is the payload of Login
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	store    repository.Store
	authSvc  *auth.Service
	sessions SessionStore
	resolver *identity.Resolver
}

// NewAuthService creates a new authentication service
func NewAuthService(store repository.Store, authSvc *auth.Service, sessions SessionStore, resolver *identity.Resolver) *AuthService {
	return &AuthService{
		store:    store,
		authSvc:  authSvc,
		sessions: sessions,
		resolver: resolver,
	}
}

// Login verifies credentials, registers a session for the new token and
// records the login
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = validator.SanitizeEmail(req.Email)
	if err := validate(&req); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	user, err := repos.Users.GetByEmail(ctx, req.Email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := s.authSvc.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("user account is inactive")
	}

	token, jti, err := s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	rec := session.Record{
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Save(ctx, jti, rec, s.authSvc.Expiration()); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	entry := &models.UserLoginLog{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}
	if err := repos.Users.RecordLogin(ctx, entry); err != nil {
		slog.Error("Failed to record login", "user_id", user.ID, "error", err)
	}

	slog.Info("User logged in", "user_id", user.ID, "ip", req.IPAddress)
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.authSvc.Expiration().Seconds()),
		User:        user,
	}, nil
}

// Logout revokes the session behind an access token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	jti, err := s.authSvc.ExtractJTI(token)
	if err != nil {
		return apperr.Unauthenticated("invalid token")
	}
	if err := s.sessions.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Me returns the actor with their roles and capabilities
func (s *AuthService) Me(ctx context.Context, actor *models.User) (*models.UserWithCapabilities, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	roles, err := s.resolver.Roles(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	caps, err := s.resolver.Capabilities(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	return &models.UserWithCapabilities{User: *actor, Roles: roles, Capabilities: caps}, nil
}
