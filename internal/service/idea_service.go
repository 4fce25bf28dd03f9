package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/filestore"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/internal/workflow"
)

// DefaultIdeaPoints is the reward for one idea submission
const DefaultIdeaPoints = 5

// Upload is one attached document of an idea submission
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitIdeaInput is the payload of SubmitIdea
type SubmitIdeaInput struct {
	Title            string   `json:"title" validate:"required,max=200"`
	ProblemStatement string   `json:"problem_statement" validate:"required"`
	ProposedSolution string   `json:"proposed_solution" validate:"required"`
	ValueProposition string   `json:"value_proposition"`
	RiskAssessment   string   `json:"risk_assessment"`
	InnovationType   string   `json:"innovation_type" validate:"oneof=INCREMENTAL|ADJACENT|DISRUPTIVE"`
	SharingScope     string   `json:"sharing_scope" validate:"oneof=CUSTOMER|ECOSYSTEM|PUBLIC|NONE"`
	IsConfidential   bool     `json:"is_confidential"`
	CoIdeatorEmails  []string `json:"co_ideator_emails"`
}

// IdeaService handles idea submission against live challenges
type IdeaService struct {
	store  repository.Store
	files  FileStore
	cipher DetailCipher
	points int
}

// NewIdeaService creates a new idea service. files and cipher may be nil:
// uploads are then refused and confidential narratives are stored as given.
func NewIdeaService(store repository.Store, files FileStore, cipher DetailCipher, points int) *IdeaService {
	if points <= 0 {
		points = DefaultIdeaPoints
	}
	return &IdeaService{store: store, files: files, cipher: cipher, points: points}
}

// SubmitIdea creates an idea with its detail, co-ideators, documents and
// reward in one transaction and notifies the challenge creator and every
// distinct mentor of the challenge. Unknown co-ideator emails are skipped.
func (s *IdeaService) SubmitIdea(ctx context.Context, actor *models.User, challengeID string, in SubmitIdeaInput, uploads []Upload) (*models.IdeaWithDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	if len(uploads) > 0 && s.files == nil {
		return nil, apperr.Precondition("file storage is not configured")
	}

	idea := &models.Idea{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(in.Title),
		SubmitterID:    &actor.ID,
		ChallengeID:    &challengeID,
		Status:         models.IdeaSubmitted,
		SharingScope:   models.SharingScope(in.SharingScope),
		IsConfidential: in.IsConfidential,
	}
	if idea.SharingScope == "" {
		idea.SharingScope = models.SharingNone
	}
	detail := &models.IdeaDetail{
		IdeaID:           idea.ID,
		ProblemStatement: in.ProblemStatement,
		ProposedSolution: in.ProposedSolution,
		ValueProposition: in.ValueProposition,
		RiskAssessment:   in.RiskAssessment,
		InnovationType:   models.InnovationType(in.InnovationType),
	}
	if detail.InnovationType == "" {
		detail.InnovationType = models.InnovationIncremental
	}
	result := &models.IdeaWithDetails{Idea: *idea}
	plain := *detail
	var written []string

	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		challenge, err := repos.Challenges.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}
		if err := workflow.CanSubmitIdea(challenge.Status).Error(); err != nil {
			return err
		}
		result.ChallengeTitle = challenge.Title

		if err := repos.Ideas.Create(ctx, idea); err != nil {
			return err
		}
		result.SubmissionDate = idea.SubmissionDate

		if in.IsConfidential && s.cipher != nil {
			if err := s.cipher.Seal(ctx, detail); err != nil {
				return fmt.Errorf("failed to seal idea detail: %w", err)
			}
		}
		if err := repos.Ideas.CreateDetail(ctx, detail); err != nil {
			return err
		}

		result.CoIdeators, err = addCoIdeators(ctx, repos, actor, idea.ID, in.CoIdeatorEmails)
		if err != nil {
			return err
		}

		for _, up := range uploads {
			doc, ref, err := s.storeDocument(ctx, repos, idea.ID, up)
			if ref != "" {
				written = append(written, ref)
			}
			if err != nil {
				return err
			}
			result.Documents = append(result.Documents, *doc)
		}

		reward := &models.Reward{
			ID:     uuid.NewString(),
			UserID: actor.ID,
			Points: s.points,
			Reason: "Idea submission for " + challenge.Title,
		}
		if err := repos.Rewards.Create(ctx, reward); err != nil {
			return err
		}

		return notifyIdeaSubmitted(ctx, repos, actor, challenge, idea)
	})
	if err != nil {
		s.discardDocuments(context.WithoutCancel(ctx), idea.ID, written)
		return nil, err
	}

	result.Detail = &plain
	slog.Info("Idea submitted", "idea_id", idea.ID, "challenge_id", challengeID, "submitter_id", actor.ID,
		"co_ideators", len(result.CoIdeators), "documents", len(result.Documents))
	return result, nil
}

func addCoIdeators(ctx context.Context, repos repository.Repositories, actor *models.User, ideaID string, emails []string) ([]models.User, error) {
	var added []models.User
	for _, email := range normalizeEmails(emails) {
		user, err := repos.Users.GetByEmail(ctx, email)
		if apperr.Is(err, apperr.KindNotFound) {
			slog.Debug("Skipping unknown co-ideator", "idea_id", ideaID, "email", email)
			continue
		}
		if err != nil {
			return nil, err
		}
		if user.ID == actor.ID {
			continue
		}
		if err := repos.Ideas.AddCoIdeator(ctx, ideaID, user.ID); err != nil {
			return nil, err
		}
		added = append(added, *user)
	}
	return added, nil
}

// storeDocument uploads one file and records it. The returned ref is set as
// soon as the object exists, even when recording it fails.
func (s *IdeaService) storeDocument(ctx context.Context, repos repository.Repositories, ideaID string, up Upload) (*models.IdeaDocument, string, error) {
	name := strings.TrimSpace(up.FileName)
	if name == "" {
		return nil, "", apperr.Validation("uploaded file has no name")
	}
	ref, err := s.files.Put(ctx, filestore.ObjectKey("ideas/"+ideaID, name), up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store document %s: %w", name, err)
	}
	doc := &models.IdeaDocument{
		ID:       uuid.NewString(),
		IdeaID:   ideaID,
		FileName: name,
		FileRef:  ref,
	}
	if err := repos.Ideas.AddDocument(ctx, doc); err != nil {
		return nil, ref, err
	}
	return doc, ref, nil
}

// discardDocuments removes objects uploaded by a submission that rolled back
func (s *IdeaService) discardDocuments(ctx context.Context, ideaID string, refs []string) {
	for _, ref := range refs {
		if err := s.files.Delete(ctx, ref); err != nil {
			slog.Warn("Failed to delete orphaned document", "idea_id", ideaID, "ref", ref, "error", err)
		}
	}
}

// notifyIdeaSubmitted informs the challenge creator and each distinct mentor
// once. A mentor who also created the challenge gets only the owner message.
func notifyIdeaSubmitted(ctx context.Context, repos repository.Repositories, actor *models.User, c *models.Challenge, idea *models.Idea) error {
	if c.CreatedBy != nil {
		msg := fmt.Sprintf("New idea '%s' submitted for your challenge: %s.", idea.Title, c.Title)
		if err := Notify(ctx, repos, *c.CreatedBy, msg, actor, LinkMyIdeas); err != nil {
			return err
		}
	}

	mentorIDs, err := repos.Challenges.ListMentorIDs(ctx, c.ID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("New idea '%s' submitted for the challenge you are mentoring: %s.", idea.Title, c.Title)
	seen := map[string]bool{}
	for _, id := range mentorIDs {
		if seen[id] || c.IsCreatedBy(id) {
			continue
		}
		seen[id] = true
		if err := Notify(ctx, repos, id, msg, actor, LinkChallenges); err != nil {
			return err
		}
	}
	return nil
}

// canReadConfidential reports whether actor is the submitter, a co-ideator,
// the challenge creator or one of its mentors
func canReadConfidential(ctx context.Context, repos repository.Repositories, actor *models.User, idea *models.IdeaWithDetails) (bool, error) {
	if idea.SubmitterID != nil && *idea.SubmitterID == actor.ID {
		return true, nil
	}
	for _, u := range idea.CoIdeators {
		if u.ID == actor.ID {
			return true, nil
		}
	}
	if idea.ChallengeID == nil {
		return false, nil
	}
	c, err := repos.Challenges.GetByID(ctx, *idea.ChallengeID)
	if err != nil {
		return false, err
	}
	if c.IsCreatedBy(actor.ID) {
		return true, nil
	}
	mentorIDs, err := repos.Challenges.ListMentorIDs(ctx, c.ID)
	if err != nil {
		return false, err
	}
	for _, id := range mentorIDs {
		if id == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

// GetIdea returns the idea detail read model. Confidential ideas are only
// readable by the people working on them.
func (s *IdeaService) GetIdea(ctx context.Context, actor *models.User, id string) (*models.IdeaWithDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	idea, err := repos.Ideas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &models.IdeaWithDetails{Idea: *idea}

	if result.CoIdeators, err = repos.Ideas.ListCoIdeators(ctx, id); err != nil {
		return nil, err
	}

	if idea.IsConfidential {
		ok, err := canReadConfidential(ctx, repos, actor, result)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbidden("this idea is confidential")
		}
	}

	if idea.ChallengeID != nil {
		c, err := repos.Challenges.GetByID(ctx, *idea.ChallengeID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		if c != nil {
			result.ChallengeTitle = c.Title
		}
	}

	detail, err := repos.Ideas.GetDetail(ctx, id)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if detail != nil {
		if detail.Sealed {
			if s.cipher == nil {
				return nil, apperr.Precondition("idea detail is sealed and encryption is not configured")
			}
			if err := s.cipher.Open(ctx, detail); err != nil {
				return nil, fmt.Errorf("failed to open idea detail: %w", err)
			}
		}
		result.Detail = detail
	}

	if result.Documents, err = repos.Ideas.ListDocuments(ctx, id); err != nil {
		return nil, err
	}
	return result, nil
}

// ListIdeas lists all ideas, or those submitted or co-authored by userID
func (s *IdeaService) ListIdeas(ctx context.Context, actor *models.User, userID string) ([]models.Idea, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if userID == "" {
		return repos.Ideas.List(ctx)
	}
	return repos.Ideas.ListBySubmitterOrCoIdeator(ctx, userID)
}

// MyIdeas returns the actor's submitted and shared ideas with their points balance
func (s *IdeaService) MyIdeas(ctx context.Context, actor *models.User) (*models.MyIdeas, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	submitted, err := repos.Ideas.ListBySubmitter(ctx, actor.ID, 0)
	if err != nil {
		return nil, err
	}
	shared, err := repos.Ideas.ListShared(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	points, err := repos.Rewards.SumPoints(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &models.MyIdeas{Submitted: submitted, Shared: shared, TotalPoints: points}, nil
}
