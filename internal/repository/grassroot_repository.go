package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iris/internal/models"
)

const grassrootColumns = `g.id, g.ideator_id, g.category_id, g.subcategory_id, g.business_value, g.monetary_value,
	g.non_monetary_value, g.proposed_idea, g.assumptions, g.key_risks, g.additional_information, g.status, g.confidentiality, g.customer_feedback,
	g.innovation_context, g.created_at, g.updated_at`

// GrassrootRepository handles grassroot ideas and their evaluations
type GrassrootRepository struct {
	db Querier
}

// NewGrassrootRepository creates a new grassroot idea repository
func NewGrassrootRepository(db Querier) *GrassrootRepository {
	return &GrassrootRepository{db: db}
}

func scanGrassroot(row rowScanner) (*models.GrassrootIdea, error) {
	g := &models.GrassrootIdea{}
	err := row.Scan(
		&g.ID, &g.IdeatorID, &g.CategoryID, &g.SubcategoryID, &g.BusinessValue, &g.MonetaryValue,
		&g.NonMonetaryValue, &g.ProposedIdea, &g.Assumptions, &g.KeyRisks, &g.AdditionalInfo, &g.Status, &g.Confidentiality, &g.CustomerFeedback,
		&g.InnovationContext, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

// Create creates a new grassroot idea
func (r *GrassrootRepository) Create(ctx context.Context, g *models.GrassrootIdea) error {
	query := `
		INSERT INTO grassroot_ideas (id, ideator_id, category_id, subcategory_id, business_value, monetary_value,
			non_monetary_value, proposed_idea, assumptions, key_risks, additional_information, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.IdeatorID, g.CategoryID, g.SubcategoryID, g.BusinessValue, g.MonetaryValue,
		g.NonMonetaryValue, g.ProposedIdea, g.Assumptions, g.KeyRisks, g.AdditionalInfo, g.Status,
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create grassroot idea: %w", err)
	}
	return nil
}

// GetByID retrieves a grassroot idea by ID
func (r *GrassrootRepository) GetByID(ctx context.Context, id string) (*models.GrassrootIdea, error) {
	query := `SELECT ` + grassrootColumns + ` FROM grassroot_ideas g WHERE g.id = $1`

	g, err := scanGrassroot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err, "grassroot idea", "get grassroot idea")
	}
	return g, nil
}

// List returns grassroot ideas matching the filter, newest first
func (r *GrassrootRepository) List(ctx context.Context, f GrassrootFilter) ([]models.GrassrootIdea, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := `grassroot_ideas g`
	if f.ManagerID != "" {
		from += ` INNER JOIN employee_details e ON e.user_id = g.ideator_id`
		where = append(where, `e.reporting_manager_id = `+arg(f.ManagerID))
	}
	if f.IdeatorID != "" {
		where = append(where, `g.ideator_id = `+arg(f.IdeatorID))
	}
	if f.Status != "" {
		where = append(where, `g.status = `+arg(f.Status))
	}

	query := `SELECT ` + grassrootColumns + ` FROM ` + from
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY g.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list grassroot ideas: %w", err)
	}
	defer closeRows(rows)

	var ideas []models.GrassrootIdea
	for rows.Next() {
		g, err := scanGrassroot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grassroot idea: %w", err)
		}
		ideas = append(ideas, *g)
	}
	return ideas, rows.Err()
}

// Count returns the number of grassroot ideas
func (r *GrassrootRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grassroot_ideas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count grassroot ideas: %w", err)
	}
	return n, nil
}

// CompareAndSetStatus moves an idea from one status to another
func (r *GrassrootRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.GrassrootStatus) (bool, error) {
	query := `UPDATE grassroot_ideas SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to update grassroot idea status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// SetCustomerInput stores customer input and moves the idea to its terminal status
func (r *GrassrootRepository) SetCustomerInput(ctx context.Context, id string, in CustomerInput, from, to models.GrassrootStatus) (bool, error) {
	query := `
		UPDATE grassroot_ideas
		SET confidentiality = $3, customer_feedback = $4, innovation_context = $5, status = $6, updated_at = $7
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, from,
		in.Confidentiality, in.CustomerFeedback, in.InnovationContext, to, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to store customer input: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// CreateEvaluation appends an evaluation record
func (r *GrassrootRepository) CreateEvaluation(ctx context.Context, e *models.GrassrootEvaluation) error {
	query := `
		INSERT INTO grassroot_evaluations (id, idea_id, evaluator_id, evaluator_role, decision,
			desirability, feasibility, viability, remarks, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.IdeaID, e.EvaluatorID, e.EvaluatorRole, e.Decision,
		e.Desirability, e.Feasibility, e.Viability, e.Remarks, e.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create grassroot evaluation: %w", err)
	}
	return nil
}

// ListEvaluations returns the evaluations of an idea in order
func (r *GrassrootRepository) ListEvaluations(ctx context.Context, ideaID string) ([]models.GrassrootEvaluation, error) {
	query := `
		SELECT id, idea_id, evaluator_id, evaluator_role, decision,
			desirability, feasibility, viability, remarks, evaluated_at
		FROM grassroot_evaluations
		WHERE idea_id = $1
		ORDER BY evaluated_at
	`
	rows, err := r.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grassroot evaluations: %w", err)
	}
	defer closeRows(rows)

	var evals []models.GrassrootEvaluation
	for rows.Next() {
		var e models.GrassrootEvaluation
		if err := rows.Scan(
			&e.ID, &e.IdeaID, &e.EvaluatorID, &e.EvaluatorRole, &e.Decision,
			&e.Desirability, &e.Feasibility, &e.Viability, &e.Remarks, &e.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan grassroot evaluation: %w", err)
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}
