package workflow

import (
	"iris/internal/models"
)

// Panel caps per evaluation round.
const (
	MaxRound1Panels = 3
	MaxRound2Panels = 2

	MinRound1Panels = 2
	MinRound2Panels = 1
)

// Reasons reported by the challenge guards.
const (
	ReasonPanelsIncomplete = "panels incomplete: add at least 2 panels for round 1 and 1 panel for round 2"
	ReasonIdeationNotOpen  = "ideation not open for this challenge"
)

// PanelSummary is the part of a panel the publication guard needs.
type PanelSummary struct {
	Name        string
	RoundNumber int
	MentorCount int
}

// CanAddPanel evaluates whether another panel fits into a round.
// Rules:
// - Round must be 1 or 2
// - Round 1 holds at most 3 panels, round 2 at most 2
func CanAddPanel(round, existing int) GuardResult {
	switch round {
	case 1:
		if existing >= MaxRound1Panels {
			return deny("round 1 cannot have more than %d panels", MaxRound1Panels)
		}
	case 2:
		if existing >= MaxRound2Panels {
			return deny("round 2 cannot have more than %d panels", MaxRound2Panels)
		}
	default:
		return deny("round number must be 1 or 2, got %d", round)
	}
	return allow()
}

// CanPromoteToLive evaluates whether a challenge may go live.
// Rules, reported first failure only:
// - Challenge must be a draft
// - At least 2 round-1 panels and 1 round-2 panel
// - Every panel has at least one mentor
func CanPromoteToLive(status models.ChallengeStatus, panels []PanelSummary) GuardResult {
	if status != models.ChallengeDraft {
		return deny("only draft challenges can be published (current status: %s)", status)
	}
	return panelsComplete(panels)
}

// CanKeepPanels evaluates the panels a challenge would have after a panel or
// mentor is removed. A live challenge must still satisfy the publication
// minimums; drafts and closed challenges may be edited freely.
func CanKeepPanels(status models.ChallengeStatus, remaining []PanelSummary) GuardResult {
	if status != models.ChallengeLive {
		return allow()
	}
	if r := panelsComplete(remaining); !r.Allowed {
		return deny("a live challenge must keep complete panels: %s", r.Reason)
	}
	return allow()
}

func panelsComplete(panels []PanelSummary) GuardResult {
	round1, round2 := 0, 0
	for _, p := range panels {
		switch p.RoundNumber {
		case 1:
			round1++
		case 2:
			round2++
		}
	}
	if round1 < MinRound1Panels || round2 < MinRound2Panels {
		return deny(ReasonPanelsIncomplete)
	}

	for _, p := range panels {
		if p.MentorCount < 1 {
			return deny("panel '%s' has no mentors", p.Name)
		}
	}

	return allow()
}

// CanSubmitIdea evaluates whether a challenge accepts ideas.
func CanSubmitIdea(status models.ChallengeStatus) GuardResult {
	if status != models.ChallengeLive {
		return deny(ReasonIdeationNotOpen)
	}
	return allow()
}

// CanCompleteChallenge evaluates whether a challenge can be closed.
func CanCompleteChallenge(status models.ChallengeStatus) GuardResult {
	if status != models.ChallengeLive {
		return deny("only live challenges can be completed (current status: %s)", status)
	}
	return allow()
}

// CanArchiveChallenge evaluates whether a challenge can be archived.
func CanArchiveChallenge(status models.ChallengeStatus) GuardResult {
	if status == models.ChallengeArchived {
		return deny("challenge is already archived")
	}
	return allow()
}

// CanViewChallenge evaluates read access to a challenge detail page.
// Live challenges are open; otherwise only the creator or internal users.
func CanViewChallenge(c *models.Challenge, viewer *models.User) GuardResult {
	if c.Status == models.ChallengeLive {
		return allow()
	}
	if viewer != nil && (c.IsCreatedBy(viewer.ID) || viewer.IsInternal()) {
		return allow()
	}
	return deny("challenge is not accessible")
}
