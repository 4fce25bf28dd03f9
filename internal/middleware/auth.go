package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"iris/internal/models"
)

type contextKey string

const (
	ActorKey     contextKey = "actor"
	RequestIDKey contextKey = "request_id"
)

// ActorResolver maps a bearer token to the user behind it
type ActorResolver interface {
	CurrentActor(ctx context.Context, token string) *models.User
}

// AuthMiddleware resolves the current actor from the Authorization header
type AuthMiddleware struct {
	resolver ActorResolver
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(resolver ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// Authenticate requires a valid, unrevoked token and adds the actor to context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		actor := m.resolver.CurrentActor(r.Context(), token)
		if actor == nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor *models.User) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the authenticated actor from the request context
func GetActor(r *http.Request) (*models.User, bool) {
	actor, ok := r.Context().Value(ActorKey).(*models.User)
	return actor, ok && actor != nil
}

// GetUserID retrieves the authenticated user id from the request context
func GetUserID(r *http.Request) (string, bool) {
	actor, ok := GetActor(r)
	if !ok {
		return "", false
	}
	return actor.ID, true
}

// Helper function to respond with JSON error
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
