package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"iris/internal/auth"
	"iris/internal/config"
	"iris/internal/models"
	"iris/internal/session"
)

// AuthHelper issues real tokens backed by a miniredis session store
type AuthHelper struct {
	Auth     *auth.Service
	Sessions *session.RedisStore
	Redis    *miniredis.Miniredis
}

// NewAuthHelper creates a token service and an in-memory session store
func NewAuthHelper(t *testing.T) *AuthHelper {
	t.Helper()

	mr := miniredis.RunT(t)
	sessions, err := session.NewRedisStore("redis://"+mr.Addr(), "test:session:")
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	return &AuthHelper{
		Auth: auth.NewService(&config.JWTConfig{
			Secret:     "test-secret-key-for-testing-only",
			Expiration: time.Hour,
		}),
		Sessions: sessions,
		Redis:    mr,
	}
}

// Login issues a token for user and registers its session
func (h *AuthHelper) Login(t *testing.T, user *models.User) string {
	t.Helper()

	token, jti, err := h.Auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	rec := session.Record{UserID: user.ID, Email: user.Email}
	if err := h.Sessions.Save(context.Background(), jti, rec, time.Hour); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	return token
}

// AddAuthHeader adds an authorization header to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+h.Login(t, user))
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}
