package main

import (
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"iris/internal/handlers"
	"iris/internal/middleware"
	"iris/internal/models"
)

// routes holds everything the router dispatches to
type routes struct {
	authMw  *middleware.AuthMiddleware
	rbacMw  *middleware.RBACMiddleware
	auditMw *middleware.AuditMiddleware

	health        *handlers.HealthHandler
	config        *handlers.ConfigHandler
	auth          *handlers.AuthHandler
	challenges    *handlers.ChallengeHandler
	ideas         *handlers.IdeaHandler
	grassroots    *handlers.GrassrootHandler
	notifications *handlers.NotificationHandler
	dashboard     *handlers.DashboardHandler
	reports       *handlers.ReportHandler
}

const apiPrefix = "/api/v1"

// register mounts every endpoint on mux
func (rt *routes) register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler {
		return rt.authMw.Authenticate(h)
	}
	withRole := func(role string, h http.HandlerFunc) http.Handler {
		return rt.authMw.Authenticate(rt.rbacMw.RequireRole(role)(h))
	}
	handle := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+apiPrefix+path, h)
	}

	// Public
	handle("POST /auth/login", http.HandlerFunc(rt.auth.Login))
	handle("GET /config/app", http.HandlerFunc(rt.config.GetAppConfig))
	handle("GET /stats", http.HandlerFunc(rt.dashboard.Stats))

	// Session
	handle("POST /auth/logout", authed(rt.auth.Logout))
	handle("GET /auth/me", authed(rt.auth.Me))
	handle("GET /dashboard", authed(rt.dashboard.UserDashboard))

	// Challenges
	handle("GET /challenges", authed(rt.challenges.List))
	handle("GET /challenges/featured", authed(rt.challenges.Featured))
	handle("GET /challenges/suggestions", authed(rt.challenges.Suggestions))
	handle("POST /challenges", withRole(models.RoleChallengeOwner, rt.challenges.Create))
	handle("GET /challenges/{id}", authed(rt.challenges.Get))
	handle("POST /challenges/{id}/panels", authed(rt.challenges.AddPanel))
	handle("DELETE /challenges/{id}/panels/{panelId}", authed(rt.challenges.DeletePanel))
	handle("POST /challenges/{id}/panels/{panelId}/mentors", authed(rt.challenges.AddMentor))
	handle("DELETE /challenges/{id}/panels/{panelId}/mentors/{mentorId}", authed(rt.challenges.RemoveMentor))
	handle("POST /challenges/{id}/publish", authed(rt.challenges.Publish))
	handle("POST /challenges/{id}/complete", authed(rt.challenges.Complete))
	handle("POST /challenges/{id}/archive", authed(rt.challenges.Archive))

	// Ideas
	handle("POST /challenges/{id}/ideas", authed(rt.ideas.Submit))
	handle("GET /ideas", authed(rt.ideas.List))
	handle("GET /ideas/mine", authed(rt.ideas.Mine))
	handle("GET /ideas/{id}", authed(rt.ideas.Get))

	// Grassroot ideas
	handle("POST /grassroot-ideas", authed(rt.grassroots.Submit))
	handle("GET /grassroot-ideas", authed(rt.grassroots.List))
	handle("GET /grassroot-ideas/rm-dashboard",
		rt.authMw.Authenticate(rt.rbacMw.RequireReportingManager(http.HandlerFunc(rt.grassroots.RMDashboard))))
	handle("GET /grassroot-ideas/ibu-dashboard", withRole(models.RoleIBUHead, rt.grassroots.IBUDashboard))
	handle("GET /grassroot-ideas/{id}", authed(rt.grassroots.Get))
	handle("POST /grassroot-ideas/{id}/evaluate", authed(rt.grassroots.Evaluate))
	handle("POST /grassroot-ideas/{id}/customer-input", withRole(models.RoleIBUHead, rt.grassroots.CustomerInput))
	handle("GET /improvement-categories", authed(rt.grassroots.Categories))
	handle("GET /improvement-subcategories", authed(rt.grassroots.Subcategories))

	// Notifications
	handle("GET /notifications", authed(rt.notifications.List))
	handle("GET /notifications/unread-count", authed(rt.notifications.UnreadCount))
	handle("POST /notifications/{id}/read", authed(rt.notifications.MarkRead))

	// Reports
	handle("GET /reports/export", authed(rt.reports.Export))

	mux.HandleFunc("GET /health", rt.health.Health)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)
}
