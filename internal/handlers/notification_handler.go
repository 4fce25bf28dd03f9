package handlers

import (
	"net/http"
	"strconv"

	"iris/internal/apperr"
	"iris/internal/middleware"
	"iris/internal/service"
)

// NotificationHandler serves the caller's notification inbox
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {array} models.Notification
// @Failure 400 {object} map[string]string "Invalid unread flag"
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, apperr.Validation("unread must be a boolean"))
			return
		}
		unreadOnly = b
	}

	list, err := h.notifications.List(r.Context(), actor, unreadOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, list)
}

// UnreadCount returns the number of unread notifications
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	n, err := h.notifications.UnreadCount(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead marks one of the caller's notifications as read
// @Summary Mark notification read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	if err := h.notifications.MarkRead(r.Context(), actor, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
