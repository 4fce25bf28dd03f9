package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/identity"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/workflow"
)

// Suggestion limits
const (
	SuggestionMinQuery = 2
	SuggestionLimit    = 5
)

// ReviewParameterInput is one weighted review parameter of a new challenge
type ReviewParameterInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Weight int    `json:"weight" validate:"min=0,max=100"`
}

// PanelInput describes a panel, optionally with mentors to assign
type PanelInput struct {
	RoundNumber  int      `json:"round_number" validate:"required"`
	Name         string   `json:"name" validate:"required,max=100"`
	Description  string   `json:"description"`
	MentorEmails []string `json:"mentor_emails,omitempty"`
}

// CreateChallengeInput is the payload of CreateDraftChallenge
type CreateChallengeInput struct {
	Title            string                 `json:"title" validate:"required,max=200"`
	Description      string                 `json:"description" validate:"required"`
	Keywords         string                 `json:"keywords"`
	IBUName          string                 `json:"ibu_name"`
	KeyInsights      string                 `json:"key_insights"`
	ExpectedOutcome  string                 `json:"expected_outcome"`
	Visibility       string                 `json:"visibility" validate:"oneof=PUBLIC|PRIVATE"`
	TargetAudience   string                 `json:"target_audience" validate:"oneof=INTERNAL|EXTERNAL|BOTH"`
	StartDate        *time.Time             `json:"start_date,omitempty"`
	EndDate          *time.Time             `json:"end_date,omitempty"`
	Round1EvalStart  *time.Time             `json:"round1_eval_start,omitempty"`
	Round1EvalEnd    *time.Time             `json:"round1_eval_end,omitempty"`
	Round2EvalStart  *time.Time             `json:"round2_eval_start,omitempty"`
	Round2EvalEnd    *time.Time             `json:"round2_eval_end,omitempty"`
	IsFeatured       bool                   `json:"is_featured"`
	Publish          bool                   `json:"publish"`
	ReviewParameters []ReviewParameterInput `json:"review_parameters"`
	Panels           []PanelInput           `json:"panels"`
}

// AddMentorResult reports whether a mentor was newly added
type AddMentorResult struct {
	Mentor  *models.User `json:"mentor"`
	Added   bool         `json:"added"`
	Message string       `json:"message"`
}

// ChallengeService runs the challenge publication workflow
type ChallengeService struct {
	store    repository.Store
	resolver *identity.Resolver
	search   ChallengeSearch
}

// NewChallengeService creates a new challenge service. search may be nil.
func NewChallengeService(store repository.Store, resolver *identity.Resolver, search ChallengeSearch) *ChallengeService {
	return &ChallengeService{store: store, resolver: resolver, search: search}
}

func (s *ChallengeService) index(c *models.Challenge) {
	if s.search != nil {
		s.search.IndexChallenge(c)
	}
}

func validateChallengeInput(in *CreateChallengeInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return apperr.Validation("end_date must not be before start_date")
	}

	seen := make(map[string]bool, len(in.ReviewParameters))
	for i := range in.ReviewParameters {
		p := &in.ReviewParameters[i]
		p.Name = strings.TrimSpace(p.Name)
		if err := validate(p); err != nil {
			return err
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return apperr.Validation(fmt.Sprintf("review parameter '%s' is listed twice", p.Name))
		}
		seen[key] = true
	}

	for i := range in.Panels {
		if err := validate(&in.Panels[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateDraftChallenge persists a challenge with its review parameters,
// panels and mentors in one transaction. With Publish set the new challenge
// must also pass the publication guard and is stored LIVE.
func (s *ChallengeService) CreateDraftChallenge(ctx context.Context, actor *models.User, in CreateChallengeInput) (*models.Challenge, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	isOwner, err := s.resolver.IsChallengeOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check challenge owner role: %w", err)
	}
	if !isOwner {
		return nil, apperr.Forbidden("only challenge owners can create challenges")
	}
	if err := validateChallengeInput(&in); err != nil {
		return nil, err
	}

	c := &models.Challenge{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Keywords:        in.Keywords,
		IBUName:         in.IBUName,
		KeyInsights:     in.KeyInsights,
		ExpectedOutcome: in.ExpectedOutcome,
		Status:          models.ChallengeDraft,
		Visibility:      models.Visibility(in.Visibility),
		TargetAudience:  models.TargetAudience(in.TargetAudience),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Round1EvalStart: in.Round1EvalStart,
		Round1EvalEnd:   in.Round1EvalEnd,
		Round2EvalStart: in.Round2EvalStart,
		Round2EvalEnd:   in.Round2EvalEnd,
		IsFeatured:      in.IsFeatured,
		CreatedBy:       &actor.ID,
	}
	if c.Visibility == "" {
		c.Visibility = models.VisibilityPublic
	}
	if c.TargetAudience == "" {
		c.TargetAudience = models.AudienceBoth
	}

	err = s.store.InTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Challenges.Create(ctx, c); err != nil {
			return err
		}

		for _, p := range in.ReviewParameters {
			param, err := repos.Challenges.FindOrCreateParameter(ctx, p.Name)
			if err != nil {
				return err
			}
			weight := &models.ChallengeReviewParameter{
				ID:          uuid.NewString(),
				ChallengeID: c.ID,
				ParameterID: param.ID,
				Weight:      p.Weight,
			}
			if err := repos.Challenges.AddParameterWeight(ctx, weight); err != nil {
				return err
			}
		}

		var summaries []workflow.PanelSummary
		perRound := map[int]int{}
		for _, p := range in.Panels {
			if err := workflow.CanAddPanel(p.RoundNumber, perRound[p.RoundNumber]).Error(); err != nil {
				return err
			}
			perRound[p.RoundNumber]++

			panel := &models.ChallengePanel{
				ID:          uuid.NewString(),
				ChallengeID: c.ID,
				RoundNumber: p.RoundNumber,
				Name:        strings.TrimSpace(p.Name),
				Description: p.Description,
			}
			if err := repos.Challenges.CreatePanel(ctx, panel); err != nil {
				return err
			}

			summary := workflow.PanelSummary{Name: panel.Name, RoundNumber: panel.RoundNumber}
			for _, email := range normalizeEmails(p.MentorEmails) {
				res, err := addMentor(ctx, repos, actor, c, panel, email)
				if err != nil {
					return err
				}
				if res.Added {
					summary.MentorCount++
				}
			}
			summaries = append(summaries, summary)
		}

		if in.Publish {
			if err := workflow.CanPromoteToLive(c.Status, summaries).Error(); err != nil {
				return err
			}
			if err := repos.Challenges.UpdateStatus(ctx, c.ID, models.ChallengeLive); err != nil {
				return err
			}
			c.Status = models.ChallengeLive
		}

		return logChallengeTransition(ctx, repos, c.ID, "", c.Status, actor, "challenge created")
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Challenge created", "challenge_id", c.ID, "status", c.Status, "created_by", actor.ID)
	s.index(c)
	return c, nil
}

func logChallengeTransition(ctx context.Context, repos repository.Repositories, id string, from, to models.ChallengeStatus, actor *models.User, remarks string) error {
	entry := &models.WorkflowLog{
		ID:             uuid.NewString(),
		EntityType:     models.EntityChallenge,
		EntityID:       id,
		PreviousStatus: string(from),
		NewStatus:      string(to),
		Remarks:        remarks,
	}
	if actor != nil {
		entry.ChangedBy = &actor.ID
	}
	return repos.WorkflowLogs.Create(ctx, entry)
}

// ownedChallenge loads a challenge and checks that actor created it
func ownedChallenge(ctx context.Context, repos repository.Repositories, actor *models.User, id, action string) (*models.Challenge, error) {
	c, err := repos.Challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsCreatedBy(actor.ID) {
		return nil, apperr.Forbidden("only the challenge creator can " + action)
	}
	return c, nil
}

// challengePanel loads a panel and checks that it belongs to the challenge
func challengePanel(ctx context.Context, repos repository.Repositories, challengeID, panelID string) (*models.ChallengePanel, error) {
	panel, err := repos.Challenges.GetPanel(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if panel.ChallengeID != challengeID {
		return nil, apperr.NotFound("panel not found")
	}
	return panel, nil
}

// AddPanel adds a review panel to a round, enforcing the per-round cap
func (s *ChallengeService) AddPanel(ctx context.Context, actor *models.User, challengeID string, in PanelInput) (*models.ChallengePanel, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}

	panel := &models.ChallengePanel{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		RoundNumber: in.RoundNumber,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}

	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		if _, err := ownedChallenge(ctx, repos, actor, challengeID, "manage panels"); err != nil {
			return err
		}
		existing, err := repos.Challenges.CountPanels(ctx, challengeID, in.RoundNumber)
		if err != nil {
			return err
		}
		if err := workflow.CanAddPanel(in.RoundNumber, existing).Error(); err != nil {
			return err
		}
		return repos.Challenges.CreatePanel(ctx, panel)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Panel added", "challenge_id", challengeID, "panel_id", panel.ID, "round", panel.RoundNumber)
	return panel, nil
}

// DeletePanel removes a panel and its mentor links
func (s *ChallengeService) DeletePanel(ctx context.Context, actor *models.User, challengeID, panelID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(repos repository.Repositories) error {
		c, err := ownedChallenge(ctx, repos, actor, challengeID, "manage panels")
		if err != nil {
			return err
		}
		if _, err := challengePanel(ctx, repos, challengeID, panelID); err != nil {
			return err
		}
		if err := repos.Challenges.DeletePanel(ctx, panelID); err != nil {
			return err
		}
		return checkRemainingPanels(ctx, repos, c)
	})
}

// checkRemainingPanels rejects an edit that leaves a live challenge without
// the panels and mentors it was published with. The caller's transaction
// rolls the edit back.
func checkRemainingPanels(ctx context.Context, repos repository.Repositories, c *models.Challenge) error {
	if c.Status != models.ChallengeLive {
		return nil
	}
	summaries, err := panelSummaries(ctx, repos, c.ID)
	if err != nil {
		return err
	}
	return workflow.CanKeepPanels(c.Status, summaries).Error()
}

// addMentor resolves email, links the mentor and notifies them. A duplicate
// pair is not an error: the result reports Added false.
func addMentor(ctx context.Context, repos repository.Repositories, actor *models.User, c *models.Challenge, panel *models.ChallengePanel, email string) (*AddMentorResult, error) {
	mentor, err := repos.Users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("User with email %s not found.", email))
	}
	if err != nil {
		return nil, err
	}

	added, err := repos.Challenges.AddMentor(ctx, &models.ChallengeMentor{
		ID:       uuid.NewString(),
		PanelID:  panel.ID,
		MentorID: mentor.ID,
	})
	if err != nil {
		return nil, err
	}
	if !added {
		return &AddMentorResult{
			Mentor:  mentor,
			Message: fmt.Sprintf("%s is already in this panel.", mentor.FullName),
		}, nil
	}

	msg := fmt.Sprintf("You have been assigned as a mentor for the challenge: %s in panel: %s.", c.Title, panel.Name)
	if err := Notify(ctx, repos, mentor.ID, msg, actor, LinkChallenges); err != nil {
		return nil, err
	}
	return &AddMentorResult{
		Mentor:  mentor,
		Added:   true,
		Message: fmt.Sprintf("%s added to panel %s.", mentor.FullName, panel.Name),
	}, nil
}

// AddMentor assigns the user with email to a panel of the challenge
func (s *ChallengeService) AddMentor(ctx context.Context, actor *models.User, challengeID, panelID, email string) (*AddMentorResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	var result *AddMentorResult
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		c, err := ownedChallenge(ctx, repos, actor, challengeID, "manage mentors")
		if err != nil {
			return err
		}
		panel, err := challengePanel(ctx, repos, challengeID, panelID)
		if err != nil {
			return err
		}
		result, err = addMentor(ctx, repos, actor, c, panel, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Added {
		slog.Info("Mentor added", "challenge_id", challengeID, "panel_id", panelID, "mentor_id", result.Mentor.ID)
	}
	return result, nil
}

// RemoveMentor unlinks a mentor from a panel
func (s *ChallengeService) RemoveMentor(ctx context.Context, actor *models.User, challengeID, panelID, mentorID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(repos repository.Repositories) error {
		c, err := ownedChallenge(ctx, repos, actor, challengeID, "manage mentors")
		if err != nil {
			return err
		}
		if _, err := challengePanel(ctx, repos, challengeID, panelID); err != nil {
			return err
		}
		if err := repos.Challenges.RemoveMentor(ctx, panelID, mentorID); err != nil {
			return err
		}
		return checkRemainingPanels(ctx, repos, c)
	})
}

func panelSummaries(ctx context.Context, repos repository.Repositories, challengeID string) ([]workflow.PanelSummary, error) {
	panels, err := repos.Challenges.ListPanels(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	summaries := make([]workflow.PanelSummary, 0, len(panels))
	for _, p := range panels {
		mentors, err := repos.Challenges.ListMentors(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, workflow.PanelSummary{Name: p.Name, RoundNumber: p.RoundNumber, MentorCount: len(mentors)})
	}
	return summaries, nil
}

// transition moves a creator-owned challenge to a new status after guard passes
func (s *ChallengeService) transition(ctx context.Context, actor *models.User, id, action string, to models.ChallengeStatus, guard func(*models.Challenge, repository.Repositories) (workflow.GuardResult, error)) (*models.Challenge, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var c *models.Challenge
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		c, err = ownedChallenge(ctx, repos, actor, id, action)
		if err != nil {
			return err
		}
		g, err := guard(c, repos)
		if err != nil {
			return err
		}
		if err := g.Error(); err != nil {
			return err
		}
		if err := repos.Challenges.UpdateStatus(ctx, id, to); err != nil {
			return err
		}
		from := c.Status
		c.Status = to
		return logChallengeTransition(ctx, repos, id, from, to, actor, "")
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Challenge status changed", "challenge_id", id, "status", to, "changed_by", actor.ID)
	s.index(c)
	return c, nil
}

// PromoteToLive publishes a draft once its panels and mentors are complete
func (s *ChallengeService) PromoteToLive(ctx context.Context, actor *models.User, id string) (*models.Challenge, error) {
	return s.transition(ctx, actor, id, "publish it", models.ChallengeLive, func(c *models.Challenge, repos repository.Repositories) (workflow.GuardResult, error) {
		summaries, err := panelSummaries(ctx, repos, c.ID)
		if err != nil {
			return workflow.GuardResult{}, err
		}
		return workflow.CanPromoteToLive(c.Status, summaries), nil
	})
}

// CompleteChallenge closes ideation on a live challenge
func (s *ChallengeService) CompleteChallenge(ctx context.Context, actor *models.User, id string) (*models.Challenge, error) {
	return s.transition(ctx, actor, id, "complete it", models.ChallengeCompleted, func(c *models.Challenge, _ repository.Repositories) (workflow.GuardResult, error) {
		return workflow.CanCompleteChallenge(c.Status), nil
	})
}

// ArchiveChallenge archives a challenge from any status
func (s *ChallengeService) ArchiveChallenge(ctx context.Context, actor *models.User, id string) (*models.Challenge, error) {
	return s.transition(ctx, actor, id, "archive it", models.ChallengeArchived, func(c *models.Challenge, _ repository.Repositories) (workflow.GuardResult, error) {
		return workflow.CanArchiveChallenge(c.Status), nil
	})
}

// CloseExpired completes every live challenge whose end date has passed
func (s *ChallengeService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.Repos().Challenges.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range expired {
		c := &expired[i]
		err := s.store.InTx(ctx, func(repos repository.Repositories) error {
			if err := repos.Challenges.UpdateStatus(ctx, c.ID, models.ChallengeCompleted); err != nil {
				return err
			}
			return logChallengeTransition(ctx, repos, c.ID, c.Status, models.ChallengeCompleted, nil, "end date passed")
		})
		if err != nil {
			slog.Error("Failed to close expired challenge", "challenge_id", c.ID, "error", err)
			continue
		}
		c.Status = models.ChallengeCompleted
		s.index(c)
		closed++
	}
	if closed > 0 {
		slog.Info("Closed expired challenges", "count", closed)
	}
	return closed, nil
}

// ParseStatusBucket maps a listing filter to a status; "all" maps to any status
func ParseStatusBucket(filter string) (models.ChallengeStatus, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", "active":
		return models.ChallengeLive, nil
	case "draft":
		return models.ChallengeDraft, nil
	case "past":
		return models.ChallengeCompleted, nil
	case "all":
		return "", nil
	}
	return "", apperr.Validation(fmt.Sprintf("invalid filter '%s': must be active, draft, past or all", filter))
}

// ListChallenges lists the challenges visible to actor in a status bucket,
// optionally narrowed by a free-text query on title and keywords
func (s *ChallengeService) ListChallenges(ctx context.Context, actor *models.User, filter, query string) ([]models.Challenge, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	status, err := ParseStatusBucket(filter)
	if err != nil {
		return nil, err
	}

	f := repository.ChallengeFilter{Status: status, Query: strings.TrimSpace(query)}

	isMentor, err := s.resolver.IsMentor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if isMentor {
		f.MentorID = actor.ID
	} else {
		isOwner, err := s.resolver.IsChallengeOwner(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if isOwner {
			f.OwnerID = actor.ID
		}
	}

	if f.Query != "" && s.search != nil {
		if ids, ok := s.search.MatchIDs(f.Query); ok {
			f.IDs = append([]string{}, ids...)
		}
	}

	return s.store.Repos().Challenges.List(ctx, f)
}

// Featured returns the featured challenge
func (s *ChallengeService) Featured(ctx context.Context, actor *models.User) (*models.Challenge, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.Repos().Challenges.GetFeatured(ctx)
}

// Suggestions returns up to five challenge titles for queries of at least two characters
func (s *ChallengeService) Suggestions(ctx context.Context, actor *models.User, query string) ([]string, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < SuggestionMinQuery {
		return []string{}, nil
	}
	if s.search != nil {
		if titles, ok := s.search.Suggest(query, SuggestionLimit); ok {
			return titles, nil
		}
	}
	return s.store.Repos().Challenges.SuggestTitles(ctx, query, SuggestionLimit)
}

// GetChallenge returns the challenge detail read model if actor may view it
func (s *ChallengeService) GetChallenge(ctx context.Context, actor *models.User, id string) (*models.ChallengeWithDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	c, err := repos.Challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g := workflow.CanViewChallenge(c, actor); !g.Allowed {
		return nil, apperr.Forbidden(g.Reason)
	}

	detail := &models.ChallengeWithDetails{Challenge: *c}

	panels, err := repos.Challenges.ListPanels(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range panels {
		mentors, err := repos.Challenges.ListMentors(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		detail.Panels = append(detail.Panels, models.PanelWithMentors{ChallengePanel: p, Mentors: mentors})
	}

	detail.Parameters, err = repos.Challenges.ListParameterWeights(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range detail.Parameters {
		detail.WeightTotal += p.Weight
	}

	detail.IdeaCount, err = repos.Ideas.CountByChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}
