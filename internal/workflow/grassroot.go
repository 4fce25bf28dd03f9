package workflow

import (
	"strings"

	"iris/internal/apperr"
	"iris/internal/models"
)

// transitions is the grassroot approval table keyed by current status.
var transitions = map[models.GrassrootStatus]map[models.Decision]models.GrassrootStatus{
	models.GrassrootSubmittedRM: {
		models.DecisionApprove: models.GrassrootApprovedRM,
		models.DecisionRework:  models.GrassrootReworkRM,
		models.DecisionReject:  models.GrassrootRejectedRM,
	},
	models.GrassrootApprovedRM: {
		models.DecisionApprove: models.GrassrootApprovedIBU,
		models.DecisionRework:  models.GrassrootReworkIBU,
		models.DecisionReject:  models.GrassrootRejectedIBU,
	},
}

// ParseDecision validates a decision coming from a request.
func ParseDecision(s string) (models.Decision, error) {
	d := models.Decision(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case models.DecisionApprove, models.DecisionRework, models.DecisionReject:
		return d, nil
	}
	return "", apperr.Newf(apperr.KindValidation, "invalid decision %q: must be approve, rework or reject", s)
}

// EvaluatorRole derives the stage tag recorded on an evaluation from the
// status the idea was in when it was evaluated.
func EvaluatorRole(status models.GrassrootStatus) models.EvaluatorRole {
	if status == models.GrassrootSubmittedRM {
		return models.EvaluatorRM
	}
	return models.EvaluatorIBU
}

// NextStatus returns the status an idea moves to for a decision.
func NextStatus(status models.GrassrootStatus, d models.Decision) (models.GrassrootStatus, GuardResult) {
	byDecision, ok := transitions[status]
	if !ok {
		return "", deny("grassroot idea in status %s is not awaiting evaluation", status)
	}
	next, ok := byDecision[d]
	if !ok {
		return "", deny("decision %q is not valid", d)
	}
	return next, allow()
}

// EvaluationContext carries what the evaluation gate needs to know about the actor.
type EvaluationContext struct {
	Status             models.GrassrootStatus
	IsReportingManager bool // actor is the reporting manager of the ideator
	IsIBUHead          bool
}

// CanEvaluate evaluates whether the actor may evaluate the idea in its
// current status. The status guard is checked by NextStatus; this gate only
// covers the role.
func CanEvaluate(ctx EvaluationContext) GuardResult {
	switch ctx.Status {
	case models.GrassrootSubmittedRM:
		if !ctx.IsReportingManager {
			return deny("only the ideator's reporting manager can evaluate this idea")
		}
	case models.GrassrootApprovedRM:
		if !ctx.IsIBUHead {
			return deny("only an IBU head can evaluate this idea")
		}
	}
	return allow()
}

// CanSubmitCustomerInput evaluates whether customer input is accepted.
func CanSubmitCustomerInput(status models.GrassrootStatus) GuardResult {
	if status != models.GrassrootApprovedIBU {
		return deny("customer input requires an IBU-approved idea (current status: %s)", status)
	}
	return allow()
}
