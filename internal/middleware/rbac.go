package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
)

// RoleResolver answers role and reporting-line questions about a user
type RoleResolver interface {
	Roles(ctx context.Context, userID string) ([]string, error)
	IsReportingManager(ctx context.Context, userID string) (bool, error)
}

// RBACMiddleware handles role-based access control. It runs after
// Authenticate and re-reads memberships on every request.
type RBACMiddleware struct {
	roles RoleResolver
}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware(roles RoleResolver) *RBACMiddleware {
	return &RBACMiddleware{
		roles: roles,
	}
}

// RequireRole checks if the user has the required role
func (m *RBACMiddleware) RequireRole(roleName string) func(http.Handler) http.Handler {
	return m.RequireAnyRole(roleName)
}

// RequireAnyRole checks if the user has any of the required roles
func (m *RBACMiddleware) RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			roles, err := m.roles.Roles(r.Context(), userID)
			if err != nil {
				slog.Error("Failed to get user roles", "user_id", userID, "error", err)
				respondWithError(w, http.StatusInternalServerError, "Failed to get user roles")
				return
			}

			hasRole := slices.ContainsFunc(roleNames, func(required string) bool {
				return slices.Contains(roles, required)
			})
			if !hasRole {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireReportingManager admits users named as reporting manager by at least one employee
func (m *RBACMiddleware) RequireReportingManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		isManager, err := m.roles.IsReportingManager(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to check reporting manager", "user_id", userID, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to check reporting line")
			return
		}
		if !isManager {
			respondWithError(w, http.StatusForbidden, "Only reporting managers can access this resource")
			return
		}

		next.ServeHTTP(w, r)
	})
}
