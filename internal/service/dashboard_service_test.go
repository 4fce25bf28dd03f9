package service

import (
	"context"
	"testing"

	"iris/internal/apperr"
)

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Counted")

	ideas := NewIdeaService(env.store, nil, nil, 0)
	if _, err := ideas.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("One"), nil); err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}
	grassroots := NewGrassrootService(env.store, env.resolver)
	if _, err := grassroots.Submit(ctx, env.fx.Ideator, grassrootInput("Two")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	stats, err := NewDashboardService(env.store).Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.MemberCount != 7 || stats.IdeaCount != 2 || stats.ChallengeCount != 1 {
		t.Errorf("stats = %+v, want 7 members, 2 ideas, 1 challenge", stats)
	}
}

func TestUserDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var challengeIDs []string
	for _, title := range []string{"A", "B", "C", "D"} {
		challengeIDs = append(challengeIDs, createLive(t, env, title).ID)
	}

	ideas := NewIdeaService(env.store, nil, nil, 0)
	for i := 0; i < 6; i++ {
		if _, err := ideas.SubmitIdea(ctx, env.fx.Ideator, challengeIDs[i%2], ideaInput("Idea"), nil); err != nil {
			t.Fatalf("SubmitIdea failed: %v", err)
		}
	}

	svc := NewDashboardService(env.store)
	d, err := svc.UserDashboard(ctx, env.fx.Ideator)
	if err != nil {
		t.Fatalf("UserDashboard failed: %v", err)
	}
	if d.TotalPoints != 30 || d.IdeasCount != 6 || d.ChallengesParticipated != 2 {
		t.Errorf("dashboard counters = %d/%d/%d, want 30/6/2", d.TotalPoints, d.IdeasCount, d.ChallengesParticipated)
	}
	if len(d.RecentIdeas) != 5 {
		t.Errorf("recent ideas = %d, want 5", len(d.RecentIdeas))
	}
	if len(d.LiveChallenges) != 3 {
		t.Errorf("live challenges = %d, want 3", len(d.LiveChallenges))
	}

	owner, err := svc.UserDashboard(ctx, env.fx.Owner)
	if err != nil {
		t.Fatalf("UserDashboard failed: %v", err)
	}
	if len(owner.Notifications) != 5 {
		t.Errorf("owner unread notifications = %d, want 5", len(owner.Notifications))
	}

	_, err = svc.UserDashboard(ctx, nil)
	assertKind(t, err, apperr.KindUnauthenticated)
}
