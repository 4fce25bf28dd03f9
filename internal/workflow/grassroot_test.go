package workflow

import (
	"testing"

	"iris/internal/apperr"
	"iris/internal/models"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		status   models.GrassrootStatus
		decision models.Decision
		want     models.GrassrootStatus
	}{
		{models.GrassrootSubmittedRM, models.DecisionApprove, models.GrassrootApprovedRM},
		{models.GrassrootSubmittedRM, models.DecisionRework, models.GrassrootReworkRM},
		{models.GrassrootSubmittedRM, models.DecisionReject, models.GrassrootRejectedRM},
		{models.GrassrootApprovedRM, models.DecisionApprove, models.GrassrootApprovedIBU},
		{models.GrassrootApprovedRM, models.DecisionRework, models.GrassrootReworkIBU},
		{models.GrassrootApprovedRM, models.DecisionReject, models.GrassrootRejectedIBU},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.decision), func(t *testing.T) {
			got, result := NextStatus(tt.status, tt.decision)
			if !result.Allowed {
				t.Fatalf("NextStatus denied: %s", result.Reason)
			}
			if got != tt.want {
				t.Errorf("NextStatus = %s, want %s", got, tt.want)
			}
			if !got.Valid() {
				t.Errorf("NextStatus returned non-enumerated status %s", got)
			}
		})
	}
}

func TestNextStatusRejectsTerminalStates(t *testing.T) {
	for _, status := range []models.GrassrootStatus{
		models.GrassrootReworkRM, models.GrassrootRejectedRM, models.GrassrootApprovedIBU,
		models.GrassrootReworkIBU, models.GrassrootRejectedIBU, models.GrassrootCompleted,
	} {
		_, result := NextStatus(status, models.DecisionApprove)
		if result.Allowed {
			t.Errorf("NextStatus(%s) allowed, want denied", status)
		}
	}
}

func TestEvaluatorRole(t *testing.T) {
	for _, status := range models.GrassrootStatuses {
		want := models.EvaluatorIBU
		if status == models.GrassrootSubmittedRM {
			want = models.EvaluatorRM
		}
		if got := EvaluatorRole(status); got != want {
			t.Errorf("EvaluatorRole(%s) = %s, want %s", status, got, want)
		}
	}
}

func TestCanEvaluate(t *testing.T) {
	tests := []struct {
		name string
		ctx  EvaluationContext
		want bool
	}{
		{"RM evaluates own report", EvaluationContext{Status: models.GrassrootSubmittedRM, IsReportingManager: true}, true},
		{"IBU head cannot skip RM", EvaluationContext{Status: models.GrassrootSubmittedRM, IsIBUHead: true}, false},
		{"IBU head evaluates approved idea", EvaluationContext{Status: models.GrassrootApprovedRM, IsIBUHead: true}, true},
		{"RM cannot act at IBU stage", EvaluationContext{Status: models.GrassrootApprovedRM, IsReportingManager: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEvaluate(tt.ctx).Allowed; got != tt.want {
				t.Errorf("Allowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	for _, in := range []string{"approve", " Rework ", "REJECT"} {
		if _, err := ParseDecision(in); err != nil {
			t.Errorf("ParseDecision(%q) error: %v", in, err)
		}
	}
	_, err := ParseDecision("escalate")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("ParseDecision(escalate) kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestCanSubmitCustomerInput(t *testing.T) {
	if !CanSubmitCustomerInput(models.GrassrootApprovedIBU).Allowed {
		t.Error("approved IBU idea should accept customer input")
	}
	if CanSubmitCustomerInput(models.GrassrootApprovedRM).Allowed {
		t.Error("RM-approved idea should not accept customer input")
	}
}
