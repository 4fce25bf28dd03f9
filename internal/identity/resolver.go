// Package identity resolves the current actor from a bearer token and answers
// role-membership questions. Every predicate queries storage on each call so
// checks always reflect the latest committed state.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"iris/internal/apperr"
	"iris/internal/auth"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/session"
)

// TokenValidator verifies access tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.JWTClaims, error)
}

// SessionLookup finds live sessions by JTI
type SessionLookup interface {
	Lookup(ctx context.Context, jti string) (*session.Record, error)
}

// Resolver maps tokens to actors and actors to capabilities
type Resolver struct {
	tokens    TokenValidator
	sessions  SessionLookup
	users     repository.UserStore
	roles     repository.RoleStore
	employees repository.EmployeeStore
}

// NewResolver creates a resolver over the given stores
func NewResolver(tokens TokenValidator, sessions SessionLookup, repos repository.Repositories) *Resolver {
	return &Resolver{
		tokens:    tokens,
		sessions:  sessions,
		users:     repos.Users,
		roles:     repos.Roles,
		employees: repos.Employees,
	}
}

// CurrentActor returns the user behind a bearer token, or nil when the token
// is absent, invalid, revoked, or names an unknown or inactive user.
func (r *Resolver) CurrentActor(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		slog.Debug("Rejected access token", "error", err)
		return nil
	}

	if r.sessions != nil {
		rec, err := r.sessions.Lookup(ctx, claims.ID)
		if err != nil {
			slog.Debug("No live session for token", "jti", claims.ID, "error", err)
			return nil
		}
		if rec.UserID != claims.UserID {
			slog.Warn("Session user does not match token subject", "jti", claims.ID)
			return nil
		}
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			slog.Error("Failed to load actor", "user_id", claims.UserID, "error", err)
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}
	return user
}

// Roles returns the role names held by a user
func (r *Resolver) Roles(ctx context.Context, userID string) ([]string, error) {
	return r.roles.GetUserRoles(ctx, userID)
}

// IsChallengeOwner reports Challenge Owner role membership
func (r *Resolver) IsChallengeOwner(ctx context.Context, userID string) (bool, error) {
	return r.roles.HasRole(ctx, userID, models.RoleChallengeOwner)
}

// IsMentor reports Mentor role membership
func (r *Resolver) IsMentor(ctx context.Context, userID string) (bool, error) {
	return r.roles.HasRole(ctx, userID, models.RoleMentor)
}

// IsIBUHead reports IBU Head role membership
func (r *Resolver) IsIBUHead(ctx context.Context, userID string) (bool, error) {
	return r.roles.HasRole(ctx, userID, models.RoleIBUHead)
}

// IsReportingManager reports whether any employee names userID as reporting manager
func (r *Resolver) IsReportingManager(ctx context.Context, userID string) (bool, error) {
	n, err := r.employees.CountDirectReports(ctx, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsReportingManagerOf reports whether managerID is the reporting manager of employeeID
func (r *Resolver) IsReportingManagerOf(ctx context.Context, managerID, employeeID string) (bool, error) {
	detail, err := r.employees.GetByUserID(ctx, employeeID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return detail.ReportingManagerID != nil && *detail.ReportingManagerID == managerID, nil
}

// ReportingManagerOf returns the reporting manager id of a user, if recorded
func (r *Resolver) ReportingManagerOf(ctx context.Context, userID string) (string, bool, error) {
	detail, err := r.employees.GetByUserID(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if detail.ReportingManagerID == nil {
		return "", false, nil
	}
	return *detail.ReportingManagerID, true, nil
}

// Capabilities computes the full capability set of a user
func (r *Resolver) Capabilities(ctx context.Context, userID string) (models.Capabilities, error) {
	var caps models.Capabilities

	roles, err := r.roles.GetUserRoles(ctx, userID)
	if err != nil {
		return caps, fmt.Errorf("failed to load roles: %w", err)
	}
	for _, role := range roles {
		switch role {
		case models.RoleChallengeOwner:
			caps.ChallengeOwner = true
		case models.RoleMentor:
			caps.Mentor = true
		case models.RoleIBUHead:
			caps.IBUHead = true
		}
	}

	caps.ReportingManager, err = r.IsReportingManager(ctx, userID)
	if err != nil {
		return caps, fmt.Errorf("failed to check reporting manager: %w", err)
	}
	return caps, nil
}
