package service

import (
	"context"
	"testing"

	"iris/internal/apperr"
)

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	repos := env.store.Repos()

	for _, msg := range []string{"first", "second"} {
		if err := Notify(ctx, repos, env.fx.Ideator.ID, msg, env.fx.Owner, LinkMyIdeas); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}
	if err := Notify(ctx, repos, env.fx.Colleague.ID, "other", nil, ""); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	svc := NewNotificationService(env.store)
	inbox, err := svc.List(ctx, env.fx.Ideator, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(inbox) != 2 || inbox[0].Message != "second" {
		t.Fatalf("inbox = %+v, want newest first", inbox)
	}
	if inbox[0].SenderID == nil || *inbox[0].SenderID != env.fx.Owner.ID {
		t.Errorf("sender = %v, want owner", inbox[0].SenderID)
	}

	// someone else's notification is invisible
	others, _ := svc.List(ctx, env.fx.Colleague, false)
	if len(others) != 1 || others[0].Link != nil {
		t.Fatalf("colleague inbox = %+v", others)
	}
	err = svc.MarkRead(ctx, env.fx.Ideator, others[0].ID)
	assertKind(t, err, apperr.KindNotFound)

	if err := svc.MarkRead(ctx, env.fx.Ideator, inbox[0].ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	n, err := svc.UnreadCount(ctx, env.fx.Ideator)
	if err != nil || n != 1 {
		t.Errorf("UnreadCount = %d, %v; want 1", n, err)
	}
	unread, _ := svc.List(ctx, env.fx.Ideator, true)
	if len(unread) != 1 || unread[0].Message != "first" {
		t.Errorf("unread = %+v", unread)
	}

	_, err = svc.List(ctx, nil, false)
	assertKind(t, err, apperr.KindUnauthenticated)
}
