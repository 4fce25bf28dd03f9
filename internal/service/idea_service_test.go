package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/internal/testutil"
)

func ideaInput(title string) SubmitIdeaInput {
	return SubmitIdeaInput{
		Title:            title,
		ProblemStatement: "Laptops take two days to provision",
		ProposedSolution: "Pre-image a pool of laptops every Friday",
		ValueProposition: "New hires productive on day one",
		RiskAssessment:   "Stock ties up budget",
	}
}

func TestSubmitIdea(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Onboarding")

	files := testutil.NewFakeFileStore()
	svc := NewIdeaService(env.store, files, nil, 0)

	in := ideaInput("Laptop pool")
	in.CoIdeatorEmails = []string{env.fx.Colleague.Email, env.fx.Manager.Email, env.fx.IBUHead.Email, "nobody@iris.test"}
	uploads := []Upload{{FileName: "pitch.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")}}

	idea, err := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, in, uploads)
	if err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}
	if idea.Status != models.IdeaSubmitted || idea.SharingScope != models.SharingNone {
		t.Errorf("unexpected defaults: status=%s scope=%s", idea.Status, idea.SharingScope)
	}
	if idea.ChallengeTitle != "Onboarding" {
		t.Errorf("challenge title = %q", idea.ChallengeTitle)
	}

	counts := env.store.Counts()
	if counts.Ideas != 1 || counts.Details != 1 || counts.Documents != 1 || counts.Rewards != 1 {
		t.Errorf("unexpected row counts: %+v", counts)
	}
	if counts.CoIdeators != 3 {
		t.Errorf("co-ideators = %d, want 3 (unknown email skipped)", counts.CoIdeators)
	}
	if len(files.Objects) != 1 {
		t.Errorf("stored objects = %d, want 1", len(files.Objects))
	}
	for key := range files.Objects {
		if !strings.HasPrefix(key, "ideas/"+idea.ID+"/") || !strings.HasSuffix(key, "pitch.pdf") {
			t.Errorf("unexpected object key %q", key)
		}
	}

	rewards, _ := env.store.Repos().Rewards.ListByUser(ctx, env.fx.Ideator.ID)
	if len(rewards) != 1 || rewards[0].Points != DefaultIdeaPoints || rewards[0].Reason != "Idea submission for Onboarding" {
		t.Errorf("reward = %+v", rewards)
	}

	var owner, mentor int
	for _, n := range env.store.Notifications() {
		switch {
		case n.RecipientID == env.fx.Owner.ID:
			owner++
			if n.Message != "New idea 'Laptop pool' submitted for your challenge: Onboarding." {
				t.Errorf("owner message = %q", n.Message)
			}
		case n.RecipientID == env.fx.Mentor.ID && strings.HasPrefix(n.Message, "New idea"):
			mentor++
		}
	}
	if owner != 1 {
		t.Errorf("owner notifications = %d, want 1", owner)
	}
	// the mentor sits on three panels but is notified once
	if mentor != 1 {
		t.Errorf("mentor notifications = %d, want 1", mentor)
	}
}

func TestSubmitIdeaCreatorMentorNotifiedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	testutil.GrantRole(t, env.store, env.fx.Owner, models.RoleMentor)
	chSvc := NewChallengeService(env.store, env.resolver, nil)
	in := publishableInput("Self mentored", env.fx.Owner.Email)
	in.Publish = true
	c, err := chSvc.CreateDraftChallenge(ctx, env.fx.Owner, in)
	if err != nil {
		t.Fatalf("CreateDraftChallenge failed: %v", err)
	}
	before := len(env.store.Notifications())

	svc := NewIdeaService(env.store, nil, nil, 0)
	if _, err := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("Solo"), nil); err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}
	if got := len(env.store.Notifications()) - before; got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestSubmitIdeaRequiresLiveChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chSvc := NewChallengeService(env.store, env.resolver, nil)
	draft, _ := chSvc.CreateDraftChallenge(ctx, env.fx.Owner, draftInput("Not yet"))

	svc := NewIdeaService(env.store, nil, nil, 0)
	_, err := svc.SubmitIdea(ctx, env.fx.Ideator, draft.ID, ideaInput("Early"), nil)
	assertKind(t, err, apperr.KindPreconditionFailed)
	if err.Error() != "ideation not open for this challenge" {
		t.Errorf("reason = %q", err.Error())
	}

	_, err = svc.SubmitIdea(ctx, env.fx.Ideator, "missing", ideaInput("Lost"), nil)
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.SubmitIdea(ctx, nil, draft.ID, ideaInput("Anon"), nil)
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestSubmitIdeaValidation(t *testing.T) {
	env := newTestEnv(t)
	c := createLive(t, env, "Validation")
	svc := NewIdeaService(env.store, nil, nil, 0)

	in := ideaInput("")
	_, err := svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, in, nil)
	assertKind(t, err, apperr.KindValidation)

	in = ideaInput("Bad type")
	in.InnovationType = "RADICAL"
	_, err = svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, in, nil)
	assertKind(t, err, apperr.KindValidation)

	uploads := []Upload{{FileName: "a.txt", Body: strings.NewReader("x")}}
	_, err = svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, ideaInput("No storage"), uploads)
	assertKind(t, err, apperr.KindPreconditionFailed)
}

func TestRewardLedgerIsExact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Ledger")
	svc := NewIdeaService(env.store, nil, nil, 0)

	const n = 4
	for i := 0; i < n; i++ {
		if _, err := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("Idea"), nil); err != nil {
			t.Fatalf("SubmitIdea %d failed: %v", i, err)
		}
	}

	// a submission failing after the reward row rolls everything back
	env.store.FailOn("Notifications.Create", errors.New("inbox down"))
	if _, err := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("Broken"), nil); err == nil {
		t.Fatal("expected failure")
	}

	total, err := env.store.Repos().Rewards.SumPoints(ctx, env.fx.Ideator.ID)
	if err != nil {
		t.Fatalf("SumPoints failed: %v", err)
	}
	if total != 5*n {
		t.Errorf("points = %d, want %d", total, 5*n)
	}
	if got := env.store.Counts().Ideas; got != n {
		t.Errorf("ideas = %d, want %d", got, n)
	}
}

func TestSubmitIdeaUploadFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	c := createLive(t, env, "Uploads")
	files := testutil.NewFakeFileStore()
	files.Err = errors.New("bucket unavailable")
	svc := NewIdeaService(env.store, files, nil, 0)

	uploads := []Upload{{FileName: "a.txt", Body: strings.NewReader("x"), Size: 1}}
	if _, err := svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, ideaInput("Upload"), uploads); err == nil {
		t.Fatal("expected failure")
	}
	counts := env.store.Counts()
	if counts.Ideas != 0 || counts.Details != 0 || counts.Rewards != 0 {
		t.Errorf("partial rows left behind: %+v", counts)
	}
}

func TestSubmitIdeaRollbackDiscardsUploads(t *testing.T) {
	env := newTestEnv(t)
	c := createLive(t, env, "Uploads")
	files := testutil.NewFakeFileStore()
	svc := NewIdeaService(env.store, files, nil, 0)

	boom := errors.New("boom")
	env.store.FailOn("Rewards.Create", boom)
	uploads := []Upload{
		{FileName: "plan.pdf", Body: strings.NewReader("plan"), Size: 4},
		{FileName: "budget.xlsx", Body: strings.NewReader("budget"), Size: 6},
	}
	_, err := svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, ideaInput("Rollback"), uploads)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := env.store.Counts(); got.Ideas != 0 || got.Documents != 0 {
		t.Errorf("rows left behind: %+v", got)
	}
	if files.Len() != 0 {
		t.Errorf("stored objects = %d after rollback, want 0", files.Len())
	}

	// a later successful submission keeps its files
	if _, err := svc.SubmitIdea(context.Background(), env.fx.Ideator, c.ID, ideaInput("Kept"), uploads[:1]); err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}
	if files.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", files.Len())
	}
}

func TestConfidentialIdea(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Secrets")
	svc := NewIdeaService(env.store, nil, testutil.FakeCipher{}, 0)

	in := ideaInput("Patentable")
	in.IsConfidential = true
	in.CoIdeatorEmails = []string{env.fx.Colleague.Email}
	idea, err := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, in, nil)
	if err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}
	if idea.Detail.ProblemStatement != in.ProblemStatement {
		t.Error("submitter should get the plain narrative back")
	}

	stored, err := env.store.Repos().Ideas.GetDetail(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}
	if !stored.Sealed || stored.ProblemStatement == in.ProblemStatement {
		t.Error("narrative should be sealed at rest")
	}

	for _, reader := range []*models.User{env.fx.Ideator, env.fx.Colleague, env.fx.Owner, env.fx.Mentor} {
		got, err := svc.GetIdea(ctx, reader, idea.ID)
		if err != nil {
			t.Fatalf("GetIdea(%s) failed: %v", reader.Email, err)
		}
		if got.Detail.ProposedSolution != in.ProposedSolution {
			t.Errorf("GetIdea(%s) returned %q", reader.Email, got.Detail.ProposedSolution)
		}
	}

	_, err = svc.GetIdea(ctx, env.fx.Manager, idea.ID)
	assertKind(t, err, apperr.KindPermissionDenied)
}

func TestListAndMyIdeas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Listing")
	svc := NewIdeaService(env.store, nil, nil, 0)

	own, _ := svc.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("Own"), nil)
	in := ideaInput("Shared")
	in.CoIdeatorEmails = []string{env.fx.Ideator.Email}
	shared, _ := svc.SubmitIdea(ctx, env.fx.Colleague, c.ID, in, nil)

	all, err := svc.ListIdeas(ctx, env.fx.Owner, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListIdeas = %d, %v; want 2", len(all), err)
	}
	mine, _ := svc.ListIdeas(ctx, env.fx.Ideator, env.fx.Ideator.ID)
	if len(mine) != 2 {
		t.Errorf("submitter-or-co-ideator list = %d, want 2", len(mine))
	}

	my, err := svc.MyIdeas(ctx, env.fx.Ideator)
	if err != nil {
		t.Fatalf("MyIdeas failed: %v", err)
	}
	if len(my.Submitted) != 1 || my.Submitted[0].ID != own.ID {
		t.Errorf("submitted = %+v", my.Submitted)
	}
	if len(my.Shared) != 1 || my.Shared[0].ID != shared.ID {
		t.Errorf("shared = %+v", my.Shared)
	}
	if my.TotalPoints != DefaultIdeaPoints {
		t.Errorf("points = %d, want %d", my.TotalPoints, DefaultIdeaPoints)
	}
}
