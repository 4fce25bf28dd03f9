package identity

import (
	"context"
	"testing"

	"iris/internal/models"
	"iris/internal/testutil"
)

func setupResolver(t *testing.T) (*Resolver, *testutil.AuthHelper, *testutil.MemStore, *testutil.Fixtures) {
	t.Helper()
	store := testutil.NewMemStore()
	fx := testutil.SetupFixtures(t, store)
	ah := testutil.NewAuthHelper(t)
	return NewResolver(ah.Auth, ah.Sessions, store.Repos()), ah, store, fx
}

func TestCurrentActor(t *testing.T) {
	r, ah, _, fx := setupResolver(t)
	ctx := context.Background()

	token := ah.Login(t, fx.Ideator)
	actor := r.CurrentActor(ctx, token)
	if actor == nil || actor.ID != fx.Ideator.ID {
		t.Fatalf("CurrentActor = %v, want %s", actor, fx.Ideator.ID)
	}

	if got := r.CurrentActor(ctx, ""); got != nil {
		t.Errorf("empty token should resolve to nil, got %v", got)
	}
	if got := r.CurrentActor(ctx, "not-a-jwt"); got != nil {
		t.Errorf("garbage token should resolve to nil, got %v", got)
	}
}

func TestCurrentActorRevokedSession(t *testing.T) {
	r, ah, _, fx := setupResolver(t)
	ctx := context.Background()

	token := ah.Login(t, fx.Mentor)
	jti, err := ah.Auth.ExtractJTI(token)
	if err != nil {
		t.Fatalf("ExtractJTI failed: %v", err)
	}
	if err := ah.Sessions.Revoke(ctx, jti); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if got := r.CurrentActor(ctx, token); got != nil {
		t.Errorf("revoked token should resolve to nil, got %v", got)
	}
}

func TestCurrentActorInactiveUser(t *testing.T) {
	r, ah, store, _ := setupResolver(t)
	ctx := context.Background()

	inactive := &models.User{ID: "inactive-1", Email: "left@iris.test", FullName: "Lee Left", UserType: models.UserTypeInternal}
	if err := store.Repos().Users.Create(ctx, inactive); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if got := r.CurrentActor(ctx, ah.Login(t, inactive)); got != nil {
		t.Errorf("inactive user should resolve to nil, got %v", got)
	}

	ghost := &models.User{ID: "ghost", Email: "ghost@iris.test"}
	if got := r.CurrentActor(ctx, ah.Login(t, ghost)); got != nil {
		t.Errorf("unknown user should resolve to nil, got %v", got)
	}
}

func TestRolePredicates(t *testing.T) {
	r, _, _, fx := setupResolver(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(context.Context, string) (bool, error)
		user  *models.User
		want  bool
	}{
		{"owner is challenge owner", r.IsChallengeOwner, fx.Owner, true},
		{"ideator is not challenge owner", r.IsChallengeOwner, fx.Ideator, false},
		{"mentor is mentor", r.IsMentor, fx.Mentor, true},
		{"owner is not mentor", r.IsMentor, fx.Owner, false},
		{"ibu head", r.IsIBUHead, fx.IBUHead, true},
		{"manager is not ibu head", r.IsIBUHead, fx.Manager, false},
		{"manager has reports", r.IsReportingManager, fx.Manager, true},
		{"ideator has no reports", r.IsReportingManager, fx.Ideator, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.check(ctx, tt.user.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportingManagerRelation(t *testing.T) {
	r, _, _, fx := setupResolver(t)
	ctx := context.Background()

	ok, err := r.IsReportingManagerOf(ctx, fx.Manager.ID, fx.Ideator.ID)
	if err != nil || !ok {
		t.Errorf("IsReportingManagerOf(manager, ideator) = %v, %v; want true", ok, err)
	}
	ok, err = r.IsReportingManagerOf(ctx, fx.Owner.ID, fx.Ideator.ID)
	if err != nil || ok {
		t.Errorf("IsReportingManagerOf(owner, ideator) = %v, %v; want false", ok, err)
	}
	ok, err = r.IsReportingManagerOf(ctx, fx.Manager.ID, fx.External.ID)
	if err != nil || ok {
		t.Errorf("external user without employee record = %v, %v; want false", ok, err)
	}

	managerID, found, err := r.ReportingManagerOf(ctx, fx.Colleague.ID)
	if err != nil || !found || managerID != fx.Manager.ID {
		t.Errorf("ReportingManagerOf = %q, %v, %v", managerID, found, err)
	}
	if _, found, _ := r.ReportingManagerOf(ctx, fx.Owner.ID); found {
		t.Error("owner has no reporting manager on record")
	}
}

func TestCapabilities(t *testing.T) {
	r, _, store, fx := setupResolver(t)
	ctx := context.Background()

	testutil.GrantRole(t, store, fx.Manager, models.RoleMentor)

	caps, err := r.Capabilities(ctx, fx.Manager.ID)
	if err != nil {
		t.Fatalf("Capabilities failed: %v", err)
	}
	want := models.Capabilities{Mentor: true, ReportingManager: true}
	if caps != want {
		t.Errorf("Capabilities = %+v, want %+v", caps, want)
	}

	// role changes are visible immediately
	testutil.GrantRole(t, store, fx.Manager, models.RoleIBUHead)
	if ok, _ := r.IsIBUHead(ctx, fx.Manager.ID); !ok {
		t.Error("newly granted role should be visible on the next check")
	}
}
