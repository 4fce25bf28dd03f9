package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/testutil"
)

func newChallenge(owner *models.User, title string, status models.ChallengeStatus, end *time.Time) *models.Challenge {
	return &models.Challenge{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    title,
		Keywords:       "ops",
		Status:         status,
		Visibility:     models.VisibilityPublic,
		TargetAudience: models.AudienceBoth,
		EndDate:        end,
		CreatedBy:      &owner.ID,
	}
}

func TestChallengeRepository(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	store := repository.NewDBStore(containers.DB)
	fx := testutil.SetupFixtures(t, store)
	repos := store.Repos()
	ctx := context.Background()

	live := newChallenge(fx.Owner, "Faster builds", models.ChallengeLive, testutil.Days(-1))
	draft := newChallenge(fx.Owner, "Greener office", models.ChallengeDraft, testutil.Days(10))
	for _, c := range []*models.Challenge{live, draft} {
		if err := repos.Challenges.Create(ctx, c); err != nil {
			t.Fatalf("Failed to create challenge: %v", err)
		}
	}

	panel := &models.ChallengePanel{ID: uuid.NewString(), ChallengeID: draft.ID, RoundNumber: 1, Name: "Screening"}
	if err := repos.Challenges.CreatePanel(ctx, panel); err != nil {
		t.Fatal(err)
	}

	t.Run("duplicate mentor is reported, not an error", func(t *testing.T) {
		link := func() (bool, error) {
			return repos.Challenges.AddMentor(ctx, &models.ChallengeMentor{ID: uuid.NewString(), PanelID: panel.ID, MentorID: fx.Mentor.ID})
		}
		if added, err := link(); err != nil || !added {
			t.Fatalf("first add = %v, %v", added, err)
		}
		if added, err := link(); err != nil || added {
			t.Fatalf("second add = %v, %v; want false, nil", added, err)
		}
		ids, err := repos.Challenges.ListMentorIDs(ctx, draft.ID)
		if err != nil || len(ids) != 1 {
			t.Errorf("mentor ids = %v, %v", ids, err)
		}
	})

	t.Run("visibility filters", func(t *testing.T) {
		tests := []struct {
			name   string
			filter repository.ChallengeFilter
			want   int
		}{
			{"employee sees live only", repository.ChallengeFilter{}, 1},
			{"owner sees own and live", repository.ChallengeFilter{OwnerID: fx.Owner.ID}, 2},
			{"mentor sees assigned", repository.ChallengeFilter{MentorID: fx.Mentor.ID}, 1},
			{"status narrows", repository.ChallengeFilter{OwnerID: fx.Owner.ID, Status: models.ChallengeDraft}, 1},
			{"query matches title", repository.ChallengeFilter{OwnerID: fx.Owner.ID, Query: "green"}, 1},
			{"ids replace query", repository.ChallengeFilter{OwnerID: fx.Owner.ID, Query: "zzz", IDs: []string{live.ID}}, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repos.Challenges.List(ctx, tt.filter)
				if err != nil {
					t.Fatal(err)
				}
				if len(got) != tt.want {
					t.Errorf("got %d challenges, want %d", len(got), tt.want)
				}
			})
		}
	})

	t.Run("expired live challenges", func(t *testing.T) {
		expired, err := repos.Challenges.ListExpired(ctx, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if len(expired) != 1 || expired[0].ID != live.ID {
			t.Errorf("expired = %+v, want only %s", expired, live.Title)
		}
	})

	t.Run("missing rows are not found", func(t *testing.T) {
		_, err := repos.Challenges.GetByID(ctx, uuid.NewString())
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("err = %v, want not found", err)
		}
	})
}

func TestInTxRollsBack(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	store := repository.NewDBStore(containers.DB)
	fx := testutil.SetupFixtures(t, store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Rewards.Create(ctx, &models.Reward{ID: uuid.NewString(), UserID: fx.Ideator.ID, Points: 5, Reason: "test"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	points, err := store.Repos().Rewards.SumPoints(ctx, fx.Ideator.ID)
	if err != nil {
		t.Fatal(err)
	}
	if points != 0 {
		t.Errorf("points = %d after rollback, want 0", points)
	}
}

func TestUniqueViolationsAreConflicts(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	store := repository.NewDBStore(containers.DB)
	fx := testutil.SetupFixtures(t, store)
	repos := store.Repos()
	ctx := context.Background()

	dup := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToUpper(fx.Ideator.Email),
		PasswordHash: "x",
		FullName:     "Copy",
		UserType:     models.UserTypeInternal,
		IsActive:     true,
	}
	if err := repos.Users.Create(ctx, dup); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("duplicate email err = %v, want conflict", err)
	}

	c := newChallenge(fx.Owner, "Weighted", models.ChallengeDraft, nil)
	if err := repos.Challenges.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	param, err := repos.Challenges.FindOrCreateParameter(ctx, "Impact")
	if err != nil {
		t.Fatal(err)
	}
	weight := func() error {
		return repos.Challenges.AddParameterWeight(ctx, &models.ChallengeReviewParameter{
			ID: uuid.NewString(), ChallengeID: c.ID, ParameterID: param.ID, Weight: 50,
		})
	}
	if err := weight(); err != nil {
		t.Fatalf("first weight: %v", err)
	}
	if err := weight(); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("duplicate weight err = %v, want conflict", err)
	}
}
