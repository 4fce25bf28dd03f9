package workflow

import (
	"testing"

	"iris/internal/apperr"
	"iris/internal/models"
)

func TestCanAddPanel(t *testing.T) {
	tests := []struct {
		name        string
		round       int
		existing    int
		wantAllowed bool
		wantReason  string
	}{
		{name: "first round 1 panel", round: 1, existing: 0, wantAllowed: true},
		{name: "third round 1 panel", round: 1, existing: 2, wantAllowed: true},
		{name: "fourth round 1 panel", round: 1, existing: 3, wantReason: "round 1 cannot have more than 3 panels"},
		{name: "second round 2 panel", round: 2, existing: 1, wantAllowed: true},
		{name: "third round 2 panel", round: 2, existing: 2, wantReason: "round 2 cannot have more than 2 panels"},
		{name: "unknown round", round: 3, existing: 0, wantReason: "round number must be 1 or 2, got 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAddPanel(tt.round, tt.existing)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanPromoteToLive(t *testing.T) {
	complete := []PanelSummary{
		{Name: "Alpha", RoundNumber: 1, MentorCount: 1},
		{Name: "Beta", RoundNumber: 1, MentorCount: 2},
		{Name: "Final", RoundNumber: 2, MentorCount: 1},
	}

	tests := []struct {
		name        string
		status      models.ChallengeStatus
		panels      []PanelSummary
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "complete draft goes live",
			status:      models.ChallengeDraft,
			panels:      complete,
			wantAllowed: true,
		},
		{
			name:       "single round 1 panel",
			status:     models.ChallengeDraft,
			panels:     []PanelSummary{{Name: "Alpha", RoundNumber: 1, MentorCount: 1}},
			wantReason: ReasonPanelsIncomplete,
		},
		{
			name:   "missing round 2 panel",
			status: models.ChallengeDraft,
			panels: []PanelSummary{
				{Name: "Alpha", RoundNumber: 1, MentorCount: 1},
				{Name: "Beta", RoundNumber: 1, MentorCount: 1},
			},
			wantReason: ReasonPanelsIncomplete,
		},
		{
			name:   "panel count checked before mentors",
			status: models.ChallengeDraft,
			panels: []PanelSummary{
				{Name: "Alpha", RoundNumber: 1, MentorCount: 0},
			},
			wantReason: ReasonPanelsIncomplete,
		},
		{
			name:   "first mentorless panel reported",
			status: models.ChallengeDraft,
			panels: []PanelSummary{
				{Name: "Alpha", RoundNumber: 1, MentorCount: 1},
				{Name: "Beta", RoundNumber: 1, MentorCount: 0},
				{Name: "Final", RoundNumber: 2, MentorCount: 0},
			},
			wantReason: "panel 'Beta' has no mentors",
		},
		{
			name:       "live challenge cannot be republished",
			status:     models.ChallengeLive,
			panels:     complete,
			wantReason: "only draft challenges can be published (current status: LIVE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanPromoteToLive(tt.status, tt.panels)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanKeepPanels(t *testing.T) {
	complete := []PanelSummary{
		{Name: "A", RoundNumber: 1, MentorCount: 1},
		{Name: "B", RoundNumber: 1, MentorCount: 2},
		{Name: "Final", RoundNumber: 2, MentorCount: 1},
	}
	oneRound1 := complete[1:]
	emptyPanel := []PanelSummary{complete[0], complete[1], {Name: "Final", RoundNumber: 2}}

	tests := []struct {
		name        string
		status      models.ChallengeStatus
		panels      []PanelSummary
		wantAllowed bool
		wantReason  string
	}{
		{"live and complete", models.ChallengeLive, complete, true, ""},
		{"live below panel minimum", models.ChallengeLive, oneRound1, false, "a live challenge must keep complete panels: " + ReasonPanelsIncomplete},
		{"live with empty panel", models.ChallengeLive, emptyPanel, false, "a live challenge must keep complete panels: panel 'Final' has no mentors"},
		{"draft may shrink", models.ChallengeDraft, nil, true, ""},
		{"completed may shrink", models.ChallengeCompleted, oneRound1, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanKeepPanels(tt.status, tt.panels)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanSubmitIdea(t *testing.T) {
	for _, status := range []models.ChallengeStatus{
		models.ChallengeDraft, models.ChallengeCompleted, models.ChallengeArchived,
	} {
		result := CanSubmitIdea(status)
		if result.Allowed {
			t.Errorf("CanSubmitIdea(%s) allowed, want denied", status)
		}
		if !apperr.Is(result.Error(), apperr.KindPreconditionFailed) {
			t.Errorf("CanSubmitIdea(%s) error kind = %q", status, apperr.KindOf(result.Error()))
		}
	}
	if result := CanSubmitIdea(models.ChallengeLive); !result.Allowed || result.Error() != nil {
		t.Errorf("CanSubmitIdea(LIVE) = %+v, want allowed", result)
	}
}

func TestCanViewChallenge(t *testing.T) {
	owner := "owner-1"
	draft := &models.Challenge{Status: models.ChallengeDraft, CreatedBy: &owner}
	live := &models.Challenge{Status: models.ChallengeLive, CreatedBy: &owner}

	external := &models.User{ID: "ext", UserType: models.UserTypeExternal}
	internal := &models.User{ID: "int", UserType: models.UserTypeInternal}
	creator := &models.User{ID: owner, UserType: models.UserTypeExternal}

	tests := []struct {
		name      string
		challenge *models.Challenge
		viewer    *models.User
		want      bool
	}{
		{"live open to anyone", live, nil, true},
		{"draft hidden from external", draft, external, false},
		{"draft visible to internal", draft, internal, true},
		{"draft visible to creator", draft, creator, true},
		{"draft hidden from anonymous", draft, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewChallenge(tt.challenge, tt.viewer).Allowed; got != tt.want {
				t.Errorf("Allowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallengeLifecycleGuards(t *testing.T) {
	if !CanCompleteChallenge(models.ChallengeLive).Allowed {
		t.Error("live challenge should be completable")
	}
	if CanCompleteChallenge(models.ChallengeDraft).Allowed {
		t.Error("draft challenge should not be completable")
	}
	if !CanArchiveChallenge(models.ChallengeCompleted).Allowed {
		t.Error("completed challenge should be archivable")
	}
	if CanArchiveChallenge(models.ChallengeArchived).Allowed {
		t.Error("archived challenge should not be archivable again")
	}
}
