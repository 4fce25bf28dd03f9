package service

import (
	"context"
	"testing"

	"iris/internal/apperr"
	"iris/internal/identity"
	"iris/internal/models"
	"iris/internal/testutil"
)

func setupAuthService(t *testing.T) (*AuthService, *identity.Resolver, *testutil.MemStore, *testutil.Fixtures) {
	t.Helper()
	store := testutil.NewMemStore()
	fx := testutil.SetupFixtures(t, store)
	ah := testutil.NewAuthHelper(t)
	resolver := identity.NewResolver(ah.Auth, ah.Sessions, store.Repos())
	return NewAuthService(store, ah.Auth, ah.Sessions, resolver), resolver, store, fx
}

func TestLoginLogout(t *testing.T) {
	svc, resolver, store, fx := setupAuthService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{
		Email:     " Owner@IRIS.test",
		Password:  testutil.TestPassword,
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.User.ID != fx.Owner.ID {
		t.Errorf("unexpected response: %+v", resp)
	}

	if actor := resolver.CurrentActor(ctx, resp.AccessToken); actor == nil || actor.ID != fx.Owner.ID {
		t.Fatalf("token should resolve to the owner, got %v", actor)
	}

	logs := store.LoginLogs()
	if len(logs) != 1 || logs[0].IPAddress != "203.0.113.7" || logs[0].UserAgent != "test-agent" {
		t.Errorf("login log = %+v", logs)
	}

	if err := svc.Logout(ctx, resp.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if actor := resolver.CurrentActor(ctx, resp.AccessToken); actor != nil {
		t.Error("token should be revoked after logout")
	}

	err = svc.Logout(ctx, "garbage")
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestLoginFailures(t *testing.T) {
	svc, _, store, _ := setupAuthService(t)
	ctx := context.Background()

	disabled := &models.User{ID: "disabled", Email: "disabled@iris.test", FullName: "Dee Disabled", UserType: models.UserTypeInternal}
	hash, _ := svc.authSvc.HashPassword(testutil.TestPassword)
	disabled.PasswordHash = hash
	if err := store.Repos().Users.Create(ctx, disabled); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name string
		req  LoginRequest
		kind apperr.Kind
	}{
		{"wrong password", LoginRequest{Email: "owner@iris.test", Password: "nope-nope"}, apperr.KindUnauthenticated},
		{"unknown email", LoginRequest{Email: "who@iris.test", Password: testutil.TestPassword}, apperr.KindUnauthenticated},
		{"invalid email", LoginRequest{Email: "not-an-email", Password: testutil.TestPassword}, apperr.KindValidation},
		{"missing password", LoginRequest{Email: "owner@iris.test"}, apperr.KindValidation},
		{"inactive account", LoginRequest{Email: "disabled@iris.test", Password: testutil.TestPassword}, apperr.KindPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			assertKind(t, err, tt.kind)
		})
	}
	if got := len(store.LoginLogs()); got != 0 {
		t.Errorf("login logs = %d, want 0", got)
	}
}

func TestMe(t *testing.T) {
	svc, _, _, fx := setupAuthService(t)
	ctx := context.Background()

	me, err := svc.Me(ctx, fx.Manager)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if len(me.Roles) != 0 || !me.Capabilities.ReportingManager || me.Capabilities.IBUHead {
		t.Errorf("manager capabilities = %+v roles=%v", me.Capabilities, me.Roles)
	}

	me, _ = svc.Me(ctx, fx.Owner)
	if len(me.Roles) != 1 || me.Roles[0] != models.RoleChallengeOwner || !me.Capabilities.ChallengeOwner {
		t.Errorf("owner = %+v", me)
	}

	_, err = svc.Me(ctx, nil)
	assertKind(t, err, apperr.KindUnauthenticated)
}
