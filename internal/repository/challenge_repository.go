package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"iris/internal/apperr"
	"iris/internal/models"
)

const challengeColumns = `c.id, c.title, c.description, c.keywords, c.ibu_name, c.key_insights, c.expected_outcome,
	c.status, c.visibility, c.target_audience, c.start_date, c.end_date,
	c.round1_eval_start, c.round1_eval_end, c.round2_eval_start, c.round2_eval_end,
	c.is_featured, c.icon_ref, c.document_ref, c.created_by, c.created_at, c.updated_at`

// ChallengeRepository handles challenges, panels, mentors and review parameters
type ChallengeRepository struct {
	db Querier
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db Querier) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Keywords, &c.IBUName, &c.KeyInsights, &c.ExpectedOutcome,
		&c.Status, &c.Visibility, &c.TargetAudience, &c.StartDate, &c.EndDate,
		&c.Round1EvalStart, &c.Round1EvalEnd, &c.Round2EvalStart, &c.Round2EvalEnd,
		&c.IsFeatured, &c.IconRef, &c.DocumentRef, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func collectChallenges(rows sqlRows) ([]models.Challenge, error) {
	var challenges []models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// Create creates a new challenge
func (r *ChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (id, title, description, keywords, ibu_name, key_insights, expected_outcome,
			status, visibility, target_audience, start_date, end_date,
			round1_eval_start, round1_eval_end, round2_eval_start, round2_eval_end,
			is_featured, icon_ref, document_ref, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Description, c.Keywords, c.IBUName, c.KeyInsights, c.ExpectedOutcome,
		c.Status, c.Visibility, c.TargetAudience, c.StartDate, c.EndDate,
		c.Round1EvalStart, c.Round1EvalEnd, c.Round2EvalStart, c.Round2EvalEnd,
		c.IsFeatured, c.IconRef, c.DocumentRef, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// GetByID retrieves a challenge by ID
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE c.id = $1`

	c, err := scanChallenge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err, "challenge", "get challenge")
	}
	return c, nil
}

// UpdateStatus sets the lifecycle status of a challenge
func (r *ChallengeRepository) UpdateStatus(ctx context.Context, id string, status models.ChallengeStatus) error {
	query := `UPDATE challenges SET status = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update challenge status: %w", err)
	}
	return requireAffected(res, "challenge")
}

// List returns the challenges matching the filter ordered by end date
func (r *ChallengeRepository) List(ctx context.Context, f ChallengeFilter) ([]models.Challenge, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case f.MentorID != "":
		where = append(where, `EXISTS (
			SELECT 1 FROM challenge_panels p
			INNER JOIN challenge_mentors m ON m.panel_id = p.id
			WHERE p.challenge_id = c.id AND m.mentor_id = `+arg(f.MentorID)+`)`)
	case f.OwnerID != "":
		where = append(where, `(c.created_by = `+arg(f.OwnerID)+` OR c.status = 'LIVE')`)
	default:
		where = append(where, `c.status = 'LIVE'`)
	}

	if f.Status != "" {
		where = append(where, `c.status = `+arg(f.Status))
	}
	if f.IDs != nil {
		where = append(where, `c.id = ANY(`+arg(pq.Array(f.IDs))+`)`)
	} else if q := strings.TrimSpace(f.Query); q != "" {
		p := arg(likePattern(q))
		where = append(where, `(c.title ILIKE `+p+` OR c.keywords ILIKE `+p+`)`)
	}

	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY c.end_date ASC NULLS LAST, c.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer closeRows(rows)

	return collectChallenges(rows)
}

// GetFeatured returns the most recently created featured challenge
func (r *ChallengeRepository) GetFeatured(ctx context.Context) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c
		WHERE c.is_featured = TRUE
		ORDER BY c.created_at DESC
		LIMIT 1`

	c, err := scanChallenge(r.db.QueryRowContext(ctx, query))
	if err != nil {
		return nil, rowError(err, "featured challenge", "get featured challenge")
	}
	return c, nil
}

// SuggestTitles returns up to limit challenge titles containing query
func (r *ChallengeRepository) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	sqlQuery := `SELECT title FROM challenges WHERE title ILIKE $1 ORDER BY title LIMIT $2`

	rows, err := r.db.QueryContext(ctx, sqlQuery, likePattern(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest challenge titles: %w", err)
	}
	defer closeRows(rows)

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// ListExpired returns live challenges whose end date is before now
func (r *ChallengeRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c
		WHERE c.status = 'LIVE' AND c.end_date IS NOT NULL AND c.end_date < $1
		ORDER BY c.end_date`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired challenges: %w", err)
	}
	defer closeRows(rows)

	return collectChallenges(rows)
}

// CountLive returns the number of live challenges
func (r *ChallengeRepository) CountLive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges WHERE status = 'LIVE'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count live challenges: %w", err)
	}
	return count, nil
}

// CreatePanel creates a review panel
func (r *ChallengeRepository) CreatePanel(ctx context.Context, p *models.ChallengePanel) error {
	query := `
		INSERT INTO challenge_panels (id, challenge_id, round_number, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	p.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, p.ID, p.ChallengeID, p.RoundNumber, p.Name, p.Description, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}
	return nil
}

// GetPanel retrieves a panel by ID
func (r *ChallengeRepository) GetPanel(ctx context.Context, id string) (*models.ChallengePanel, error) {
	query := `
		SELECT id, challenge_id, round_number, name, description, created_at
		FROM challenge_panels
		WHERE id = $1
	`
	p := &models.ChallengePanel{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.ChallengeID, &p.RoundNumber, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, rowError(err, "panel", "get panel")
	}
	return p, nil
}

// ListPanels returns the panels of a challenge ordered by round then creation
func (r *ChallengeRepository) ListPanels(ctx context.Context, challengeID string) ([]models.ChallengePanel, error) {
	query := `
		SELECT id, challenge_id, round_number, name, description, created_at
		FROM challenge_panels
		WHERE challenge_id = $1
		ORDER BY round_number, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	defer closeRows(rows)

	var panels []models.ChallengePanel
	for rows.Next() {
		var p models.ChallengePanel
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.RoundNumber, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan panel: %w", err)
		}
		panels = append(panels, p)
	}
	return panels, rows.Err()
}

// CountPanels returns the number of panels of a challenge in one round
func (r *ChallengeRepository) CountPanels(ctx context.Context, challengeID string, round int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM challenge_panels WHERE challenge_id = $1 AND round_number = $2`
	if err := r.db.QueryRowContext(ctx, query, challengeID, round).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count panels: %w", err)
	}
	return count, nil
}

// DeletePanel deletes a panel and its mentor links
func (r *ChallengeRepository) DeletePanel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenge_panels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete panel: %w", err)
	}
	return requireAffected(res, "panel")
}

// AddMentor links a mentor to a panel; it reports false for an existing pair
func (r *ChallengeRepository) AddMentor(ctx context.Context, m *models.ChallengeMentor) (bool, error) {
	query := `
		INSERT INTO challenge_mentors (id, panel_id, mentor_id, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (panel_id, mentor_id) DO NOTHING
	`
	m.AddedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, m.ID, m.PanelID, m.MentorID, m.AddedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add mentor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// RemoveMentor unlinks a mentor from a panel
func (r *ChallengeRepository) RemoveMentor(ctx context.Context, panelID, mentorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenge_mentors WHERE panel_id = $1 AND mentor_id = $2`, panelID, mentorID)
	if err != nil {
		return fmt.Errorf("failed to remove mentor: %w", err)
	}
	return requireAffected(res, "mentor")
}

// ListMentors returns the mentors of a panel
func (r *ChallengeRepository) ListMentors(ctx context.Context, panelID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.user_type, u.employee_id, u.is_active, u.created_at
		FROM users u
		INNER JOIN challenge_mentors m ON m.mentor_id = u.id
		WHERE m.panel_id = $1
		ORDER BY m.added_at
	`

	rows, err := r.db.QueryContext(ctx, query, panelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}
	defer closeRows(rows)

	return collectUsers(rows)
}

// ListMentorIDs returns the distinct mentor ids across all panels of a challenge
func (r *ChallengeRepository) ListMentorIDs(ctx context.Context, challengeID string) ([]string, error) {
	query := `
		SELECT DISTINCT m.mentor_id
		FROM challenge_mentors m
		INNER JOIN challenge_panels p ON p.id = m.panel_id
		WHERE p.challenge_id = $1
		ORDER BY m.mentor_id
	`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentor ids: %w", err)
	}
	defer closeRows(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan mentor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindOrCreateParameter returns the review parameter with this name, creating it on the fly
func (r *ChallengeRepository) FindOrCreateParameter(ctx context.Context, name string) (*models.ReviewParameter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("review parameter name is required")
	}

	query := `
		INSERT INTO review_parameters (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`
	p := &models.ReviewParameter{}
	if err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&p.ID, &p.Name); err != nil {
		return nil, fmt.Errorf("failed to find or create review parameter: %w", err)
	}
	return p, nil
}

// AddParameterWeight assigns a weighted review parameter to a challenge
func (r *ChallengeRepository) AddParameterWeight(ctx context.Context, p *models.ChallengeReviewParameter) error {
	query := `
		INSERT INTO challenge_review_parameters (id, challenge_id, parameter_id, weight)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.ChallengeID, p.ParameterID, p.Weight); err != nil {
		return writeError(err, "review parameter is already weighted for this challenge", "add review parameter weight")
	}
	return nil
}

// ListParameterWeights returns the weighted review parameters of a challenge
func (r *ChallengeRepository) ListParameterWeights(ctx context.Context, challengeID string) ([]models.ChallengeReviewParameter, error) {
	query := `
		SELECT crp.id, crp.challenge_id, crp.parameter_id, rp.name, crp.weight
		FROM challenge_review_parameters crp
		INNER JOIN review_parameters rp ON rp.id = crp.parameter_id
		WHERE crp.challenge_id = $1
		ORDER BY rp.name
	`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review parameters: %w", err)
	}
	defer closeRows(rows)

	var params []models.ChallengeReviewParameter
	for rows.Next() {
		var p models.ChallengeReviewParameter
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.ParameterID, &p.ParameterName, &p.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan review parameter: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}
