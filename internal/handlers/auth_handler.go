package handlers

import (
	"log/slog"
	"net/http"

	"iris/internal/middleware"
	"iris/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
	auditMw     *middleware.AuditMiddleware
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditMw *middleware.AuditMiddleware) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auditMw:     auditMw,
	}
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password and receive a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Account disabled"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.IPAddress = middleware.ClientIP(r)
	req.UserAgent = r.UserAgent()

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.auditMw.LogAction(r, "", AuditActionLoginFailed, "users", "Login failed for "+req.Email, http.StatusUnauthorized)
		respondError(w, r, err)
		return
	}

	h.auditMw.LogAction(r, resp.User.ID, AuditActionLogin, "users", "", http.StatusOK)
	JSONResponse(w, http.StatusOK, resp)
}

// Logout revokes the current session
// @Summary Logout
// @Description Revoke the session behind the bearer token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Not authenticated"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerToken(r)
	if err := h.authService.Logout(r.Context(), token); err != nil {
		respondError(w, r, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	slog.Info("User logged out", "user_id", userID)
	h.auditMw.LogAction(r, userID, AuditActionLogout, "sessions", "", http.StatusOK)
	JSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the current actor with roles and capabilities
// @Summary Current user
// @Description The authenticated user, role names and derived capabilities
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserWithCapabilities
// @Failure 401 {object} map[string]string "Not authenticated"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	me, err := h.authService.Me(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, me)
}
