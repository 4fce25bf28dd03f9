package service

import (
	"context"

	"iris/internal/models"
	"iris/internal/repository"
)

// Dashboard list sizes
const (
	dashboardRecentIdeas    = 5
	dashboardNotifications  = 5
	dashboardLiveChallenges = 3
)

// DashboardService builds the read models of the landing pages
type DashboardService struct {
	store repository.Store
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Stats returns the public portal counters. Grassroot ideas count as ideas.
func (s *DashboardService) Stats(ctx context.Context) (*models.Stats, error) {
	repos := s.store.Repos()

	members, err := repos.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	ideas, err := repos.Ideas.Count(ctx)
	if err != nil {
		return nil, err
	}
	grassroots, err := repos.Grassroots.Count(ctx)
	if err != nil {
		return nil, err
	}
	live, err := repos.Challenges.CountLive(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Stats{MemberCount: members, IdeaCount: ideas + grassroots, ChallengeCount: live}, nil
}

// UserDashboard returns the actor's points, activity and what to look at next
func (s *DashboardService) UserDashboard(ctx context.Context, actor *models.User) (*models.UserDashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	d := &models.UserDashboard{}
	var err error

	if d.TotalPoints, err = repos.Rewards.SumPoints(ctx, actor.ID); err != nil {
		return nil, err
	}
	if d.IdeasCount, err = repos.Ideas.CountBySubmitter(ctx, actor.ID); err != nil {
		return nil, err
	}
	if d.ChallengesParticipated, err = repos.Ideas.CountChallengesParticipated(ctx, actor.ID); err != nil {
		return nil, err
	}
	if d.RecentIdeas, err = repos.Ideas.ListBySubmitter(ctx, actor.ID, dashboardRecentIdeas); err != nil {
		return nil, err
	}
	if d.Notifications, err = repos.Notifications.ListByRecipient(ctx, actor.ID, true, dashboardNotifications); err != nil {
		return nil, err
	}
	d.LiveChallenges, err = repos.Challenges.List(ctx, repository.ChallengeFilter{
		Status: models.ChallengeLive,
		Limit:  dashboardLiveChallenges,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
