package middleware

import (
	"log/slog"
	"net/http"
)

// AuditMiddleware writes security-relevant actions to a dedicated audit log
type AuditMiddleware struct {
	logger *slog.Logger
}

// NewAuditMiddleware creates a new audit middleware. A nil logger uses the default one.
func NewAuditMiddleware(logger *slog.Logger) *AuditMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditMiddleware{
		logger: logger.With("log_type", "audit"),
	}
}

// Log records action on resource after the wrapped handler has run
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			userID, _ := GetUserID(r)
			m.LogAction(r, userID, action, resource, "", wrapped.statusCode)
		})
	}
}

// LogAction records a specific action. userID may be empty for anonymous requests.
func (m *AuditMiddleware) LogAction(r *http.Request, userID, action, resource, details string, status int) {
	attrs := []any{
		"action", action,
		"resource", resource,
		"status", status,
		"ip_address", ClientIP(r),
		"user_agent", r.UserAgent(),
	}
	if userID != "" {
		attrs = append(attrs, "user_id", userID)
	}
	if details != "" {
		attrs = append(attrs, "details", details)
	}
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		attrs = append(attrs, "request_id", id)
	}

	if status >= http.StatusBadRequest {
		m.logger.Warn("Audit event", attrs...)
		return
	}
	m.logger.Info("Audit event", attrs...)
}
