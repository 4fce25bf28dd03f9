package repository

import (
	"context"
	"fmt"
	"time"

	"iris/internal/models"
)

const ideaColumns = `i.id, i.title, i.submitter_id, i.challenge_id, i.status, i.sharing_scope, i.is_confidential, i.submission_date`

// IdeaRepository handles challenge ideas and their children
type IdeaRepository struct {
	db Querier
}

// NewIdeaRepository creates a new idea repository
func NewIdeaRepository(db Querier) *IdeaRepository {
	return &IdeaRepository{db: db}
}

func scanIdea(row rowScanner) (*models.Idea, error) {
	idea := &models.Idea{}
	err := row.Scan(
		&idea.ID,
		&idea.Title,
		&idea.SubmitterID,
		&idea.ChallengeID,
		&idea.Status,
		&idea.SharingScope,
		&idea.IsConfidential,
		&idea.SubmissionDate,
	)
	return idea, err
}

func (r *IdeaRepository) queryIdeas(ctx context.Context, query string, args ...any) ([]models.Idea, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer closeRows(rows)

	var ideas []models.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

func (r *IdeaRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}
	return n, nil
}

// Create creates a new idea
func (r *IdeaRepository) Create(ctx context.Context, idea *models.Idea) error {
	query := `
		INSERT INTO ideas (id, title, submitter_id, challenge_id, status, sharing_scope, is_confidential, submission_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if idea.SubmissionDate.IsZero() {
		idea.SubmissionDate = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.SubmitterID, idea.ChallengeID,
		idea.Status, idea.SharingScope, idea.IsConfidential, idea.SubmissionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create idea: %w", err)
	}
	return nil
}

// CreateDetail stores the narrative of an idea
func (r *IdeaRepository) CreateDetail(ctx context.Context, d *models.IdeaDetail) error {
	query := `
		INSERT INTO idea_details (idea_id, problem_statement, proposed_solution, value_proposition,
			risk_assessment, innovation_type, sealed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.IdeaID, d.ProblemStatement, d.ProposedSolution, d.ValueProposition,
		d.RiskAssessment, d.InnovationType, d.Sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to create idea detail: %w", err)
	}
	return nil
}

// GetByID retrieves an idea by ID
func (r *IdeaRepository) GetByID(ctx context.Context, id string) (*models.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas i WHERE i.id = $1`

	idea, err := scanIdea(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err, "idea", "get idea")
	}
	return idea, nil
}

// GetDetail retrieves the narrative of an idea
func (r *IdeaRepository) GetDetail(ctx context.Context, ideaID string) (*models.IdeaDetail, error) {
	query := `
		SELECT idea_id, problem_statement, proposed_solution, value_proposition,
			risk_assessment, innovation_type, sealed
		FROM idea_details
		WHERE idea_id = $1
	`
	d := &models.IdeaDetail{}
	err := r.db.QueryRowContext(ctx, query, ideaID).Scan(
		&d.IdeaID, &d.ProblemStatement, &d.ProposedSolution, &d.ValueProposition,
		&d.RiskAssessment, &d.InnovationType, &d.Sealed,
	)
	if err != nil {
		return nil, rowError(err, "idea detail", "get idea detail")
	}
	return d, nil
}

// AddCoIdeator credits a user on an idea
func (r *IdeaRepository) AddCoIdeator(ctx context.Context, ideaID, userID string) error {
	query := `INSERT INTO co_ideators (idea_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, ideaID, userID); err != nil {
		return fmt.Errorf("failed to add co-ideator: %w", err)
	}
	return nil
}

// ListCoIdeators returns the users credited on an idea
func (r *IdeaRepository) ListCoIdeators(ctx context.Context, ideaID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.user_type, u.employee_id, u.is_active, u.created_at
		FROM users u
		INNER JOIN co_ideators ci ON ci.user_id = u.id
		WHERE ci.idea_id = $1
		ORDER BY u.full_name
	`
	rows, err := r.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list co-ideators: %w", err)
	}
	defer closeRows(rows)

	return collectUsers(rows)
}

// AddDocument records an uploaded attachment
func (r *IdeaRepository) AddDocument(ctx context.Context, doc *models.IdeaDocument) error {
	query := `
		INSERT INTO idea_documents (id, idea_id, file_name, file_ref, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, query, doc.ID, doc.IdeaID, doc.FileName, doc.FileRef, doc.UploadedAt); err != nil {
		return fmt.Errorf("failed to add idea document: %w", err)
	}
	return nil
}

// ListDocuments returns the attachments of an idea
func (r *IdeaRepository) ListDocuments(ctx context.Context, ideaID string) ([]models.IdeaDocument, error) {
	query := `
		SELECT id, idea_id, file_name, file_ref, uploaded_at
		FROM idea_documents
		WHERE idea_id = $1
		ORDER BY uploaded_at
	`
	rows, err := r.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list idea documents: %w", err)
	}
	defer closeRows(rows)

	var docs []models.IdeaDocument
	for rows.Next() {
		var d models.IdeaDocument
		if err := rows.Scan(&d.ID, &d.IdeaID, &d.FileName, &d.FileRef, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// List returns all ideas, newest first
func (r *IdeaRepository) List(ctx context.Context) ([]models.Idea, error) {
	return r.queryIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas i ORDER BY i.submission_date DESC`)
}

// ListBySubmitterOrCoIdeator returns ideas a user submitted or is credited on
func (r *IdeaRepository) ListBySubmitterOrCoIdeator(ctx context.Context, userID string) ([]models.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas i
		WHERE i.submitter_id = $1
		   OR EXISTS (SELECT 1 FROM co_ideators ci WHERE ci.idea_id = i.id AND ci.user_id = $1)
		ORDER BY i.submission_date DESC`
	return r.queryIdeas(ctx, query, userID)
}

// ListBySubmitter returns a user's own ideas, newest first; limit <= 0 means all
func (r *IdeaRepository) ListBySubmitter(ctx context.Context, userID string, limit int) ([]models.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas i WHERE i.submitter_id = $1 ORDER BY i.submission_date DESC`
	if limit > 0 {
		return r.queryIdeas(ctx, query+` LIMIT $2`, userID, limit)
	}
	return r.queryIdeas(ctx, query, userID)
}

// ListShared returns ideas a user is credited on but did not submit
func (r *IdeaRepository) ListShared(ctx context.Context, userID string) ([]models.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas i
		INNER JOIN co_ideators ci ON ci.idea_id = i.id
		WHERE ci.user_id = $1 AND (i.submitter_id IS NULL OR i.submitter_id <> $1)
		ORDER BY i.submission_date DESC`
	return r.queryIdeas(ctx, query, userID)
}

// CountBySubmitter returns how many ideas a user submitted
func (r *IdeaRepository) CountBySubmitter(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM ideas WHERE submitter_id = $1`, userID)
}

// CountChallengesParticipated returns how many distinct challenges a user submitted to
func (r *IdeaRepository) CountChallengesParticipated(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT challenge_id) FROM ideas WHERE submitter_id = $1 AND challenge_id IS NOT NULL`, userID)
}

// CountByChallenge returns the number of ideas submitted to a challenge
func (r *IdeaRepository) CountByChallenge(ctx context.Context, challengeID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM ideas WHERE challenge_id = $1`, challengeID)
}

// Count returns the number of ideas
func (r *IdeaRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM ideas`)
}
