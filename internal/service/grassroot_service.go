package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/identity"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/workflow"
)

// ReasonAlreadyEvaluated is reported to the evaluator who lost a race
const ReasonAlreadyEvaluated = "idea was already evaluated"

// SubmitGrassrootInput is the payload of Submit
type SubmitGrassrootInput struct {
	CategoryID            string `json:"category_id"`
	SubcategoryID         string `json:"subcategory_id"`
	BusinessValue         string `json:"business_value" validate:"required"`
	MonetaryValue         string `json:"monetary_value" validate:"required"`
	NonMonetaryValue      string `json:"non_monetary_value" validate:"required"`
	ProposedIdea          string `json:"proposed_idea" validate:"required"`
	Assumptions           string `json:"assumptions" validate:"required"`
	KeyRisks              string `json:"key_risks" validate:"required"`
	AdditionalInformation string `json:"additional_information"`
}

// EvaluateInput is one reviewer action on a grassroot idea
type EvaluateInput struct {
	Decision     string `json:"decision" validate:"required"`
	Desirability bool   `json:"desirability"`
	Feasibility  bool   `json:"feasibility"`
	Viability    bool   `json:"viability"`
	Remarks      string `json:"remarks" validate:"max=2000"`
}

// CustomerInputRequest is the terminal IBU-stage data
type CustomerInputRequest struct {
	Confidentiality   string `json:"confidentiality" validate:"required"`
	CustomerFeedback  string `json:"customer_feedback"`
	InnovationContext string `json:"innovation_context"`
}

// GrassrootService runs the grassroot idea approval workflow
type GrassrootService struct {
	store    repository.Store
	resolver *identity.Resolver
}

// NewGrassrootService creates a new grassroot service
func NewGrassrootService(store repository.Store, resolver *identity.Resolver) *GrassrootService {
	return &GrassrootService{store: store, resolver: resolver}
}

func logGrassrootTransition(ctx context.Context, repos repository.Repositories, id string, from, to models.GrassrootStatus, actor *models.User, remarks string) error {
	return repos.WorkflowLogs.Create(ctx, &models.WorkflowLog{
		ID:             uuid.NewString(),
		EntityType:     models.EntityGrassroot,
		EntityID:       id,
		PreviousStatus: string(from),
		NewStatus:      string(to),
		ChangedBy:      &actor.ID,
		Remarks:        remarks,
	})
}

// resolveCategory checks that the category exists and that the subcategory,
// when given, belongs to it
func resolveCategory(ctx context.Context, repos repository.Repositories, categoryID, subcategoryID string) error {
	if subcategoryID != "" && categoryID == "" {
		return apperr.Validation("category_id is required when subcategory_id is set")
	}
	if categoryID == "" {
		return nil
	}
	if _, err := repos.Categories.GetCategory(ctx, categoryID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("unknown category_id")
		}
		return err
	}
	if subcategoryID == "" {
		return nil
	}
	sub, err := repos.Categories.GetSubcategory(ctx, subcategoryID)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.Validation("unknown subcategory_id")
	}
	if err != nil {
		return err
	}
	if sub.CategoryID != categoryID {
		return apperr.Validation("subcategory does not belong to the selected category")
	}
	return nil
}

// Submit files a grassroot idea at SUBMITTED_RM and notifies the ideator's
// reporting manager when one is recorded
func (s *GrassrootService) Submit(ctx context.Context, actor *models.User, in SubmitGrassrootInput) (*models.GrassrootIdea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.SubcategoryID = strings.TrimSpace(in.SubcategoryID)
	if err := validate(&in); err != nil {
		return nil, err
	}

	idea := &models.GrassrootIdea{
		ID:               uuid.NewString(),
		IdeatorID:        actor.ID,
		CategoryID:       strPtr(in.CategoryID),
		SubcategoryID:    strPtr(in.SubcategoryID),
		BusinessValue:    strings.TrimSpace(in.BusinessValue),
		MonetaryValue:    strings.TrimSpace(in.MonetaryValue),
		NonMonetaryValue: strings.TrimSpace(in.NonMonetaryValue),
		ProposedIdea:     strings.TrimSpace(in.ProposedIdea),
		Assumptions:      strings.TrimSpace(in.Assumptions),
		KeyRisks:         strings.TrimSpace(in.KeyRisks),
		AdditionalInfo:   strPtr(strings.TrimSpace(in.AdditionalInformation)),
		Status:           models.GrassrootSubmittedRM,
	}

	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		if err := resolveCategory(ctx, repos, in.CategoryID, in.SubcategoryID); err != nil {
			return err
		}
		if err := repos.Grassroots.Create(ctx, idea); err != nil {
			return err
		}
		if err := logGrassrootTransition(ctx, repos, idea.ID, "", idea.Status, actor, "submitted"); err != nil {
			return err
		}

		managerID, ok, err := s.resolver.ReportingManagerOf(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("Grassroot ideator has no reporting manager", "idea_id", idea.ID, "ideator_id", actor.ID)
			return nil
		}
		msg := fmt.Sprintf("New grassroot idea submitted by %s: %s...", actor.FullName, truncate(idea.ProposedIdea, 50))
		return Notify(ctx, repos, managerID, msg, actor, LinkRMDashboard)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Grassroot idea submitted", "idea_id", idea.ID, "ideator_id", actor.ID)
	return idea, nil
}

// List returns grassroot ideas, optionally only those of one ideator
func (s *GrassrootService) List(ctx context.Context, actor *models.User, ideatorID string) ([]models.GrassrootIdea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Grassroots.List(ctx, repository.GrassrootFilter{IdeatorID: ideatorID})
}

// Get returns the grassroot detail read model. It is visible to the ideator,
// their reporting manager and IBU heads.
func (s *GrassrootService) Get(ctx context.Context, actor *models.User, id string) (*models.GrassrootIdeaWithDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	idea, err := repos.Grassroots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if idea.IdeatorID != actor.ID {
		isRM, err := s.resolver.IsReportingManagerOf(ctx, actor.ID, idea.IdeatorID)
		if err != nil {
			return nil, err
		}
		isIBU, err := s.resolver.IsIBUHead(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if !isRM && !isIBU {
			return nil, apperr.Forbidden("you cannot view this grassroot idea")
		}
	}

	detail := &models.GrassrootIdeaWithDetails{GrassrootIdea: *idea}
	if ideator, err := repos.Users.GetByID(ctx, idea.IdeatorID); err == nil {
		detail.IdeatorName = ideator.FullName
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if idea.CategoryID != nil {
		if c, err := repos.Categories.GetCategory(ctx, *idea.CategoryID); err == nil {
			detail.CategoryName = c.Name
		}
	}
	if idea.SubcategoryID != nil {
		if sc, err := repos.Categories.GetSubcategory(ctx, *idea.SubcategoryID); err == nil {
			detail.SubcategoryName = sc.Name
		}
	}
	if detail.Evaluations, err = repos.Grassroots.ListEvaluations(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// RMDashboard lists ideas waiting for the actor as reporting manager
func (s *GrassrootService) RMDashboard(ctx context.Context, actor *models.User) ([]models.GrassrootIdea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ok, err := s.resolver.IsReportingManager(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("only reporting managers can open the RM dashboard")
	}
	return s.store.Repos().Grassroots.List(ctx, repository.GrassrootFilter{
		ManagerID: actor.ID,
		Status:    models.GrassrootSubmittedRM,
	})
}

// IBUDashboard lists every RM-approved idea; any IBU head may act on any of them
func (s *GrassrootService) IBUDashboard(ctx context.Context, actor *models.User) ([]models.GrassrootIdea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ok, err := s.resolver.IsIBUHead(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("only IBU heads can open the IBU dashboard")
	}
	return s.store.Repos().Grassroots.List(ctx, repository.GrassrootFilter{Status: models.GrassrootApprovedRM})
}

// Evaluate records a reviewer decision and moves the idea along the approval
// table. The evaluation, status change, workflow log and notifications
// commit together; a concurrent evaluator that already moved the idea makes
// this call fail with ReasonAlreadyEvaluated.
func (s *GrassrootService) Evaluate(ctx context.Context, actor *models.User, id string, in EvaluateInput) (*models.GrassrootEvaluation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	decision, err := workflow.ParseDecision(in.Decision)
	if err != nil {
		return nil, err
	}

	var eval *models.GrassrootEvaluation
	var next models.GrassrootStatus
	err = s.store.InTx(ctx, func(repos repository.Repositories) error {
		idea, err := repos.Grassroots.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var g workflow.GuardResult
		next, g = workflow.NextStatus(idea.Status, decision)
		if err := g.Error(); err != nil {
			return err
		}

		ec := workflow.EvaluationContext{Status: idea.Status}
		switch idea.Status {
		case models.GrassrootSubmittedRM:
			ec.IsReportingManager, err = s.resolver.IsReportingManagerOf(ctx, actor.ID, idea.IdeatorID)
		case models.GrassrootApprovedRM:
			ec.IsIBUHead, err = s.resolver.IsIBUHead(ctx, actor.ID)
		}
		if err != nil {
			return err
		}
		if g := workflow.CanEvaluate(ec); !g.Allowed {
			return apperr.Forbidden(g.Reason)
		}

		eval = &models.GrassrootEvaluation{
			ID:            uuid.NewString(),
			IdeaID:        idea.ID,
			EvaluatorID:   actor.ID,
			EvaluatorRole: workflow.EvaluatorRole(idea.Status),
			Decision:      decision,
			Desirability:  in.Desirability,
			Feasibility:   in.Feasibility,
			Viability:     in.Viability,
			Remarks:       in.Remarks,
		}
		if err := repos.Grassroots.CreateEvaluation(ctx, eval); err != nil {
			return err
		}

		moved, err := repos.Grassroots.CompareAndSetStatus(ctx, idea.ID, idea.Status, next)
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Precondition(ReasonAlreadyEvaluated)
		}

		if err := logGrassrootTransition(ctx, repos, idea.ID, idea.Status, next, actor, in.Remarks); err != nil {
			return err
		}
		return notifyEvaluated(ctx, repos, actor, idea, next)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Grassroot idea evaluated", "idea_id", id, "evaluator_id", actor.ID,
		"evaluator_role", eval.EvaluatorRole, "decision", decision, "status", next)
	return eval, nil
}

// notifyEvaluated emits the notifications of one transition
func notifyEvaluated(ctx context.Context, repos repository.Repositories, actor *models.User, idea *models.GrassrootIdea, next models.GrassrootStatus) error {
	excerpt := truncate(idea.ProposedIdea, 50)
	switch next {
	case models.GrassrootApprovedRM:
		if err := Notify(ctx, repos, idea.IdeatorID, "Your grassroot idea has been approved by your RM.", actor, LinkGrassrootDashboard); err != nil {
			return err
		}
		heads, err := repos.Roles.GetUsersByRole(ctx, models.RoleIBUHead)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("New grassroot idea approved by RM and pending IBU review: %s...", excerpt)
		for _, h := range heads {
			if err := Notify(ctx, repos, h.ID, msg, actor, LinkIBUDashboard); err != nil {
				return err
			}
		}
		return nil
	case models.GrassrootApprovedIBU:
		return Notify(ctx, repos, idea.IdeatorID, "Your grassroot idea has been approved by the IBU Head!", actor, "")
	case models.GrassrootReworkRM, models.GrassrootReworkIBU:
		return Notify(ctx, repos, idea.IdeatorID, fmt.Sprintf("Rework required for your grassroot idea: %s...", excerpt), actor, "")
	case models.GrassrootRejectedRM, models.GrassrootRejectedIBU:
		return Notify(ctx, repos, idea.IdeatorID, "Your grassroot idea has been rejected.", actor, LinkGrassrootDashboard)
	}
	return nil
}

// SubmitCustomerInput records customer feedback on an IBU-approved idea and
// completes it
func (s *GrassrootService) SubmitCustomerInput(ctx context.Context, actor *models.User, id string, in CustomerInputRequest) (*models.GrassrootIdea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}

	var idea *models.GrassrootIdea
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		isIBU, err := s.resolver.IsIBUHead(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !isIBU {
			return apperr.Forbidden("only IBU heads can submit customer input")
		}

		idea, err = repos.Grassroots.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.CanSubmitCustomerInput(idea.Status).Error(); err != nil {
			return err
		}

		input := repository.CustomerInput{
			Confidentiality:   in.Confidentiality,
			CustomerFeedback:  in.CustomerFeedback,
			InnovationContext: in.InnovationContext,
		}
		moved, err := repos.Grassroots.SetCustomerInput(ctx, id, input, idea.Status, models.GrassrootCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Precondition(ReasonAlreadyEvaluated)
		}
		if err := logGrassrootTransition(ctx, repos, id, idea.Status, models.GrassrootCompleted, actor, "customer input received"); err != nil {
			return err
		}

		idea.Status = models.GrassrootCompleted
		idea.Confidentiality = &input.Confidentiality
		idea.CustomerFeedback = &input.CustomerFeedback
		idea.InnovationContext = &input.InnovationContext
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Grassroot idea completed", "idea_id", id, "ibu_head_id", actor.ID)
	return idea, nil
}

// Categories lists the improvement categories
func (s *GrassrootService) Categories(ctx context.Context) ([]models.ImprovementCategory, error) {
	return s.store.Repos().Categories.ListCategories(ctx)
}

// Subcategories lists the subcategories of one category
func (s *GrassrootService) Subcategories(ctx context.Context, categoryID string) ([]models.ImprovementSubCategory, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, apperr.Validation("category_id is required")
	}
	return s.store.Repos().Categories.ListSubcategories(ctx, categoryID)
}
