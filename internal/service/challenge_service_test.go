package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iris/internal/apperr"
	"iris/internal/identity"
	"iris/internal/models"
	"iris/internal/testutil"
	"iris/internal/workflow"
)

type testEnv struct {
	store    *testutil.MemStore
	fx       *testutil.Fixtures
	resolver *identity.Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testutil.NewMemStore()
	fx := testutil.SetupFixtures(t, store)
	return &testEnv{store: store, fx: fx, resolver: identity.NewResolver(nil, nil, store.Repos())}
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func draftInput(title string) CreateChallengeInput {
	return CreateChallengeInput{
		Title:       title,
		Description: "Reduce onboarding time for new hires",
		Keywords:    "onboarding, hr",
		EndDate:     testutil.Days(30),
		ReviewParameters: []ReviewParameterInput{
			{Name: "Impact", Weight: 60},
			{Name: "Feasibility", Weight: 40},
		},
	}
}

// publishableInput has the minimum panel layout with a mentor on every panel
func publishableInput(title, mentorEmail string) CreateChallengeInput {
	in := draftInput(title)
	in.Panels = []PanelInput{
		{RoundNumber: 1, Name: "Screening A", MentorEmails: []string{mentorEmail}},
		{RoundNumber: 1, Name: "Screening B", MentorEmails: []string{mentorEmail}},
		{RoundNumber: 2, Name: "Final", MentorEmails: []string{mentorEmail}},
	}
	return in
}

func createLive(t *testing.T, env *testEnv, title string) *models.Challenge {
	t.Helper()
	svc := NewChallengeService(env.store, env.resolver, nil)
	in := publishableInput(title, env.fx.Mentor.Email)
	in.Publish = true
	c, err := svc.CreateDraftChallenge(context.Background(), env.fx.Owner, in)
	if err != nil {
		t.Fatalf("Failed to create live challenge: %v", err)
	}
	return c
}

func TestCreateDraftChallenge(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, publishableInput("Faster onboarding", "MENTOR@iris.test"))
	if err != nil {
		t.Fatalf("CreateDraftChallenge failed: %v", err)
	}
	if c.Status != models.ChallengeDraft {
		t.Errorf("status = %s, want DRAFT", c.Status)
	}
	if c.Visibility != models.VisibilityPublic || c.TargetAudience != models.AudienceBoth {
		t.Errorf("defaults not applied: visibility=%s audience=%s", c.Visibility, c.TargetAudience)
	}

	counts := env.store.Counts()
	if counts.Challenges != 1 || counts.Panels != 3 || counts.Mentors != 3 || counts.Weights != 2 {
		t.Errorf("unexpected row counts: %+v", counts)
	}

	detail, err := svc.GetChallenge(ctx, env.fx.Owner, c.ID)
	if err != nil {
		t.Fatalf("GetChallenge failed: %v", err)
	}
	if detail.WeightTotal != 100 {
		t.Errorf("weight total = %d, want 100", detail.WeightTotal)
	}
	if len(detail.Panels) != 3 {
		t.Errorf("panels = %d, want 3", len(detail.Panels))
	}

	// one assignment notification per panel
	var mentorMsgs int
	for _, n := range env.store.Notifications() {
		if n.RecipientID == env.fx.Mentor.ID && strings.HasPrefix(n.Message, "You have been assigned as a mentor") {
			mentorMsgs++
		}
	}
	if mentorMsgs != 3 {
		t.Errorf("mentor notifications = %d, want 3", mentorMsgs)
	}
}

func TestCreateDraftChallengeRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)

	_, err := svc.CreateDraftChallenge(context.Background(), env.fx.Ideator, draftInput("Nope"))
	assertKind(t, err, apperr.KindPermissionDenied)

	_, err = svc.CreateDraftChallenge(context.Background(), nil, draftInput("Nope"))
	assertKind(t, err, apperr.KindUnauthenticated)

	if env.store.Counts().Challenges != 0 {
		t.Error("no challenge should be stored")
	}
}

func TestCreateDraftChallengeValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)

	tests := []struct {
		name   string
		mutate func(*CreateChallengeInput)
	}{
		{"missing title", func(in *CreateChallengeInput) { in.Title = " " }},
		{"weight above 100", func(in *CreateChallengeInput) { in.ReviewParameters[0].Weight = 101 }},
		{"negative weight", func(in *CreateChallengeInput) { in.ReviewParameters[1].Weight = -1 }},
		{"duplicate parameter", func(in *CreateChallengeInput) { in.ReviewParameters[1].Name = "impact" }},
		{"bad visibility", func(in *CreateChallengeInput) { in.Visibility = "SECRET" }},
		{"end before start", func(in *CreateChallengeInput) { in.StartDate = testutil.Days(40) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := draftInput("Invalid")
			tt.mutate(&in)
			_, err := svc.CreateDraftChallenge(context.Background(), env.fx.Owner, in)
			assertKind(t, err, apperr.KindValidation)
		})
	}
}

func TestCreateDraftChallengeRollsBack(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	t.Run("unknown mentor", func(t *testing.T) {
		in := publishableInput("Rollback", env.fx.Mentor.Email)
		in.Panels[2].MentorEmails = []string{"nobody@iris.test"}
		_, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, in)
		assertKind(t, err, apperr.KindNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		env.store.FailOn("Challenges.AddParameterWeight", errors.New("disk full"))
		_, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, publishableInput("Rollback", env.fx.Mentor.Email))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("panel cap", func(t *testing.T) {
		in := draftInput("Too many")
		for i := 0; i < 4; i++ {
			in.Panels = append(in.Panels, PanelInput{RoundNumber: 1, Name: "P"})
		}
		_, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, in)
		assertKind(t, err, apperr.KindPreconditionFailed)
	})

	counts := env.store.Counts()
	if counts.Challenges != 0 || counts.Panels != 0 || counts.Mentors != 0 || counts.Weights != 0 || counts.Notifications != 0 {
		t.Errorf("partial rows left behind: %+v", counts)
	}
}

func TestCreateAndPublish(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)

	in := draftInput("Publish now")
	in.Publish = true
	_, err := svc.CreateDraftChallenge(context.Background(), env.fx.Owner, in)
	assertKind(t, err, apperr.KindPreconditionFailed)
	if env.store.Counts().Challenges != 0 {
		t.Error("failed publish must not leave a draft")
	}

	c := createLive(t, env, "Publish now")
	if c.Status != models.ChallengeLive {
		t.Errorf("status = %s, want LIVE", c.Status)
	}
}

func TestAddPanelCap(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Caps"))
	if err != nil {
		t.Fatalf("CreateDraftChallenge failed: %v", err)
	}

	for i := 0; i < workflow.MaxRound1Panels; i++ {
		if _, err := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "R1"}); err != nil {
			t.Fatalf("AddPanel %d failed: %v", i, err)
		}
	}
	_, err = svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "R1 extra"})
	assertKind(t, err, apperr.KindPreconditionFailed)

	for i := 0; i < workflow.MaxRound2Panels; i++ {
		if _, err := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 2, Name: "R2"}); err != nil {
			t.Fatalf("AddPanel round 2 failed: %v", err)
		}
	}
	_, err = svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 2, Name: "R2 extra"})
	assertKind(t, err, apperr.KindPreconditionFailed)

	_, err = svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 3, Name: "R3"})
	assertKind(t, err, apperr.KindPreconditionFailed)

	_, err = svc.AddPanel(ctx, env.fx.Mentor, c.ID, PanelInput{RoundNumber: 2, Name: "Not mine"})
	assertKind(t, err, apperr.KindPermissionDenied)

	if got := env.store.Counts().Panels; got != 5 {
		t.Errorf("panels = %d, want 5", got)
	}
}

func TestAddMentor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Mentors"))
	panel, err := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "Screening"})
	if err != nil {
		t.Fatalf("AddPanel failed: %v", err)
	}

	res, err := svc.AddMentor(ctx, env.fx.Owner, c.ID, panel.ID, env.fx.Mentor.Email)
	if err != nil {
		t.Fatalf("AddMentor failed: %v", err)
	}
	if !res.Added {
		t.Error("first add should report Added")
	}

	res, err = svc.AddMentor(ctx, env.fx.Owner, c.ID, panel.ID, " Mentor@IRIS.test ")
	if err != nil {
		t.Fatalf("duplicate AddMentor must not fail: %v", err)
	}
	if res.Added {
		t.Error("duplicate add should not report Added")
	}
	if want := "Max Mentor is already in this panel."; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}

	counts := env.store.Counts()
	if counts.Mentors != 1 {
		t.Errorf("mentor rows = %d, want 1", counts.Mentors)
	}
	if counts.Notifications != 1 {
		t.Errorf("notifications = %d, want 1", counts.Notifications)
	}
	n := env.store.Notifications()[0]
	want := "You have been assigned as a mentor for the challenge: Mentors in panel: Screening."
	if n.Message != want || n.Link == nil || *n.Link != LinkChallenges {
		t.Errorf("notification = %q (%v), want %q", n.Message, n.Link, want)
	}

	_, err = svc.AddMentor(ctx, env.fx.Owner, c.ID, panel.ID, "ghost@iris.test")
	assertKind(t, err, apperr.KindNotFound)
	if !strings.Contains(err.Error(), "User with email ghost@iris.test not found.") {
		t.Errorf("unexpected message: %v", err)
	}

	_, err = svc.AddMentor(ctx, env.fx.Ideator, c.ID, panel.ID, env.fx.Colleague.Email)
	assertKind(t, err, apperr.KindPermissionDenied)
}

func TestRemoveMentorAndDeletePanel(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, publishableInput("Removal", env.fx.Mentor.Email))
	detail, _ := svc.GetChallenge(ctx, env.fx.Owner, c.ID)
	panelID := detail.Panels[0].ID

	if err := svc.RemoveMentor(ctx, env.fx.Owner, c.ID, panelID, env.fx.Mentor.ID); err != nil {
		t.Fatalf("RemoveMentor failed: %v", err)
	}
	if _, err := svc.PromoteToLive(ctx, env.fx.Owner, c.ID); err == nil {
		t.Fatal("publish should fail with an empty panel")
	}

	if err := svc.DeletePanel(ctx, env.fx.Owner, c.ID, panelID); err != nil {
		t.Fatalf("DeletePanel failed: %v", err)
	}
	if got := env.store.Counts().Panels; got != 2 {
		t.Errorf("panels = %d, want 2", got)
	}

	err := svc.DeletePanel(ctx, env.fx.Owner, c.ID, "missing")
	assertKind(t, err, apperr.KindNotFound)
}

func TestLiveChallengeKeepsCompletePanels(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()
	c := createLive(t, env, "Live edits")

	detail, err := svc.GetChallenge(ctx, env.fx.Owner, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	first := detail.Panels[0].ID

	err = svc.DeletePanel(ctx, env.fx.Owner, c.ID, first)
	assertKind(t, err, apperr.KindPreconditionFailed)
	err = svc.RemoveMentor(ctx, env.fx.Owner, c.ID, first, env.fx.Mentor.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)
	if got := env.store.Counts(); got.Panels != 3 || got.Mentors != 3 {
		t.Errorf("rejected edits were kept: %+v", got)
	}

	// edits above the minimum are still allowed
	if _, err := svc.AddMentor(ctx, env.fx.Owner, c.ID, first, env.fx.Colleague.Email); err != nil {
		t.Fatalf("AddMentor failed: %v", err)
	}
	if err := svc.RemoveMentor(ctx, env.fx.Owner, c.ID, first, env.fx.Mentor.ID); err != nil {
		t.Errorf("RemoveMentor with a mentor left failed: %v", err)
	}
	extra, err := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "Extra"})
	if err != nil {
		t.Fatalf("AddPanel failed: %v", err)
	}
	if err := svc.DeletePanel(ctx, env.fx.Owner, c.ID, extra.ID); err != nil {
		t.Errorf("DeletePanel of an extra panel failed: %v", err)
	}
}

func TestPromoteToLiveScenario(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Scenario"))
	p1, _ := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "One"})
	if _, err := svc.AddMentor(ctx, env.fx.Owner, c.ID, p1.ID, env.fx.Mentor.Email); err != nil {
		t.Fatalf("AddMentor failed: %v", err)
	}

	_, err := svc.PromoteToLive(ctx, env.fx.Owner, c.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)
	if !strings.Contains(err.Error(), "panels incomplete") {
		t.Errorf("reason = %v, want panels incomplete", err)
	}

	p2, _ := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 1, Name: "Two"})
	p3, _ := svc.AddPanel(ctx, env.fx.Owner, c.ID, PanelInput{RoundNumber: 2, Name: "Final"})

	_, err = svc.PromoteToLive(ctx, env.fx.Owner, c.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)
	if !strings.Contains(err.Error(), "panel 'Two' has no mentors") {
		t.Errorf("reason = %v, want first panel without mentors", err)
	}

	for _, p := range []string{p2.ID, p3.ID} {
		if _, err := svc.AddMentor(ctx, env.fx.Owner, c.ID, p, env.fx.Mentor.Email); err != nil {
			t.Fatalf("AddMentor failed: %v", err)
		}
	}

	_, err = svc.PromoteToLive(ctx, env.fx.Mentor, c.ID)
	assertKind(t, err, apperr.KindPermissionDenied)

	live, err := svc.PromoteToLive(ctx, env.fx.Owner, c.ID)
	if err != nil {
		t.Fatalf("PromoteToLive failed: %v", err)
	}
	if live.Status != models.ChallengeLive {
		t.Errorf("status = %s, want LIVE", live.Status)
	}

	_, err = svc.PromoteToLive(ctx, env.fx.Owner, c.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)

	logs, err := env.store.Repos().WorkflowLogs.ListByEntity(ctx, models.EntityChallenge, c.ID)
	if err != nil {
		t.Fatalf("ListByEntity failed: %v", err)
	}
	if len(logs) != 2 || logs[1].NewStatus != string(models.ChallengeLive) {
		t.Errorf("workflow log = %+v, want created + live", logs)
	}
}

func TestLifecycleActions(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	c := createLive(t, env, "Lifecycle")

	_, err := svc.ArchiveChallenge(ctx, env.fx.Ideator, c.ID)
	assertKind(t, err, apperr.KindPermissionDenied)

	done, err := svc.CompleteChallenge(ctx, env.fx.Owner, c.ID)
	if err != nil {
		t.Fatalf("CompleteChallenge failed: %v", err)
	}
	if done.Status != models.ChallengeCompleted {
		t.Errorf("status = %s, want COMPLETED", done.Status)
	}
	_, err = svc.CompleteChallenge(ctx, env.fx.Owner, c.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)

	archived, err := svc.ArchiveChallenge(ctx, env.fx.Owner, c.ID)
	if err != nil {
		t.Fatalf("ArchiveChallenge failed: %v", err)
	}
	if archived.Status != models.ChallengeArchived {
		t.Errorf("status = %s, want ARCHIVED", archived.Status)
	}
	_, err = svc.ArchiveChallenge(ctx, env.fx.Owner, c.ID)
	assertKind(t, err, apperr.KindPreconditionFailed)
}

func TestCloseExpired(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	expired := publishableInput("Expired", env.fx.Mentor.Email)
	expired.StartDate = testutil.Days(-10)
	expired.EndDate = testutil.Days(-1)
	expired.Publish = true
	old, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, expired)
	if err != nil {
		t.Fatalf("CreateDraftChallenge failed: %v", err)
	}
	current := createLive(t, env, "Current")

	n, err := svc.CloseExpired(ctx, *testutil.Days(0))
	if err != nil {
		t.Fatalf("CloseExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("closed = %d, want 1", n)
	}

	repos := env.store.Repos()
	if c, _ := repos.Challenges.GetByID(ctx, old.ID); c.Status != models.ChallengeCompleted {
		t.Errorf("expired challenge status = %s, want COMPLETED", c.Status)
	}
	if c, _ := repos.Challenges.GetByID(ctx, current.ID); c.Status != models.ChallengeLive {
		t.Errorf("current challenge status = %s, want LIVE", c.Status)
	}
}

func TestListChallengesVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	live := createLive(t, env, "Cloud cost savings")
	draft, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Secret draft"))

	otherOwner := testutil.CreateUser(t, env.store, "owner2@iris.test", "Oscar Owner", models.UserTypeInternal)
	testutil.GrantRole(t, env.store, otherOwner, models.RoleChallengeOwner)

	ids := func(list []models.Challenge) []string {
		var out []string
		for _, c := range list {
			out = append(out, c.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		actor  *models.User
		filter string
		want   []string
	}{
		{"ideator sees live", env.fx.Ideator, "active", []string{live.ID}},
		{"ideator sees no drafts", env.fx.Ideator, "draft", nil},
		{"owner sees own draft", env.fx.Owner, "draft", []string{draft.ID}},
		{"other owner sees no foreign draft", otherOwner, "draft", nil},
		{"mentor sees panel challenges", env.fx.Mentor, "all", []string{live.ID}},
		{"default bucket is active", env.fx.External, "", []string{live.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListChallenges(ctx, tt.actor, tt.filter, "")
			if err != nil {
				t.Fatalf("ListChallenges failed: %v", err)
			}
			if g := ids(got); strings.Join(g, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", g, tt.want)
			}
		})
	}

	_, err := svc.ListChallenges(ctx, env.fx.Ideator, "upcoming", "")
	assertKind(t, err, apperr.KindValidation)

	got, err := svc.ListChallenges(ctx, env.fx.Ideator, "active", "CLOUD")
	if err != nil || len(got) != 1 {
		t.Errorf("query match = %v, %v; want 1 result", got, err)
	}
	got, _ = svc.ListChallenges(ctx, env.fx.Ideator, "active", "blockchain")
	if len(got) != 0 {
		t.Errorf("query mismatch returned %d results", len(got))
	}
}

type fakeSearch struct {
	ids     []string
	titles  []string
	ok      bool
	indexed []string
}

func (f *fakeSearch) MatchIDs(string) ([]string, bool)     { return f.ids, f.ok }
func (f *fakeSearch) Suggest(string, int) ([]string, bool) { return f.titles, f.ok }
func (f *fakeSearch) IndexChallenge(c *models.Challenge)   { f.indexed = append(f.indexed, c.ID) }

func TestListChallengesUsesSearchIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := createLive(t, env, "Alpha")
	createLive(t, env, "Beta")

	search := &fakeSearch{ids: []string{a.ID}, ok: true}
	svc := NewChallengeService(env.store, env.resolver, search)

	got, err := svc.ListChallenges(ctx, env.fx.Ideator, "active", "whatever the index understands")
	if err != nil {
		t.Fatalf("ListChallenges failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("got %v, want only %s", got, a.ID)
	}

	search.ids = []string{}
	got, _ = svc.ListChallenges(ctx, env.fx.Ideator, "active", "nothing")
	if len(got) != 0 {
		t.Errorf("empty index result should list nothing, got %d", len(got))
	}

	if _, err := svc.PromoteToLive(ctx, env.fx.Owner, a.ID); err == nil {
		t.Error("re-publishing should fail")
	}
	if _, err := svc.CompleteChallenge(ctx, env.fx.Owner, a.ID); err != nil {
		t.Fatalf("CompleteChallenge failed: %v", err)
	}
	if len(search.indexed) != 1 || search.indexed[0] != a.ID {
		t.Errorf("indexed = %v, want the completed challenge", search.indexed)
	}
}

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	for _, title := range []string{"Green A", "Green B", "Green C", "Green D", "Green E", "Green F", "Blue"} {
		if _, err := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput(title)); err != nil {
			t.Fatalf("CreateDraftChallenge failed: %v", err)
		}
	}

	got, err := svc.Suggestions(ctx, env.fx.Ideator, "g")
	if err != nil || len(got) != 0 {
		t.Errorf("short query = %v, %v; want empty", got, err)
	}
	got, _ = svc.Suggestions(ctx, env.fx.Ideator, "gre")
	if len(got) != SuggestionLimit {
		t.Errorf("suggestions = %d, want %d", len(got), SuggestionLimit)
	}

	search := &fakeSearch{titles: []string{"From index"}, ok: true}
	svc = NewChallengeService(env.store, env.resolver, search)
	got, _ = svc.Suggestions(ctx, env.fx.Ideator, "gre")
	if len(got) != 1 || got[0] != "From index" {
		t.Errorf("suggestions = %v, want index result", got)
	}
}

func TestGetChallengeAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	draft, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Hidden"))

	if _, err := svc.GetChallenge(ctx, env.fx.Ideator, draft.ID); err != nil {
		t.Errorf("internal user should see drafts: %v", err)
	}
	_, err := svc.GetChallenge(ctx, env.fx.External, draft.ID)
	assertKind(t, err, apperr.KindPermissionDenied)

	live := createLive(t, env, "Open")
	if _, err := svc.GetChallenge(ctx, env.fx.External, live.ID); err != nil {
		t.Errorf("live challenge should be visible: %v", err)
	}

	_, err = svc.GetChallenge(ctx, env.fx.Ideator, "missing")
	assertKind(t, err, apperr.KindNotFound)
}

func TestFeatured(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChallengeService(env.store, env.resolver, nil)
	ctx := context.Background()

	_, err := svc.Featured(ctx, env.fx.Ideator)
	assertKind(t, err, apperr.KindNotFound)

	in := draftInput("Spotlight")
	in.IsFeatured = true
	c, _ := svc.CreateDraftChallenge(ctx, env.fx.Owner, in)

	got, err := svc.Featured(ctx, env.fx.Ideator)
	if err != nil || got.ID != c.ID {
		t.Errorf("Featured = %v, %v; want %s", got, err, c.ID)
	}
}
