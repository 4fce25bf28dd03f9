package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"iris/internal/models"
	"iris/internal/repository"
)

// Inbox links carried by workflow notifications
const (
	LinkChallenges         = "/challenges/"
	LinkMyIdeas            = "/my-ideas/"
	LinkRMDashboard        = "/rm-dashboard/"
	LinkIBUDashboard       = "/ibu-dashboard/"
	LinkGrassrootDashboard = "/grassroot-dashboard/"
)

// Notify persists one inbox row through repos. Workflow operations call it
// with their transaction's repositories so the notification commits or rolls
// back together with the transition that triggered it.
func Notify(ctx context.Context, repos repository.Repositories, recipientID, message string, sender *models.User, link string) error {
	n := &models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Message:     message,
		Link:        strPtr(link),
	}
	if sender != nil {
		n.SenderID = &sender.ID
	}
	if err := repos.Notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to notify %s: %w", recipientID, err)
	}
	return nil
}

// NotificationService serves the actor's inbox
type NotificationService struct {
	store repository.Store
}

// NewNotificationService creates a new notification service
func NewNotificationService(store repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor *models.User, unreadOnly bool) ([]models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Notifications.ListByRecipient(ctx, actor.ID, unreadOnly, 0)
}

// UnreadCount returns the number of unread notifications of the actor
func (s *NotificationService) UnreadCount(ctx context.Context, actor *models.User) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	return s.store.Repos().Notifications.CountUnread(ctx, actor.ID)
}

// MarkRead flips the read flag of one of the actor's notifications. A
// notification addressed to someone else is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor *models.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.store.Repos().Notifications.MarkRead(ctx, id, actor.ID)
}
